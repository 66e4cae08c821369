package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"planet-permission-service/internal/position"
)

func newPositionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "position",
		Short: "Encode and decode channel positions",
	}
	cmd.AddCommand(newPositionDecodeCmd())
	cmd.AddCommand(newPositionAppendCmd())
	cmd.AddCommand(newPositionBoundsCmd())
	return cmd
}

func newPositionDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <position>",
		Short: "Show the depth, path and ancestors of a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := position.Parse(args[0])
			if err != nil {
				return err
			}
			depth, err := position.Depth(p)
			if err != nil {
				return err
			}
			local, err := position.LocalPosition(p)
			if err != nil {
				return err
			}
			ancestors, err := position.Ancestors(p)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "hex\t%s\n", p.Hex())
			fmt.Fprintf(out, "path\t%s\n", p)
			fmt.Fprintf(out, "depth\t%d\n", depth)
			fmt.Fprintf(out, "local\t%d\n", local)
			for _, a := range ancestors {
				fmt.Fprintf(out, "ancestor\t%s\t%s\n", a.Hex(), a)
			}
			return nil
		},
	}
}

func newPositionAppendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "append <parent> <order>",
		Short: "Compute the position of a child; use 0 as parent for a top-level channel",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid order %q: %w", args[1], err)
			}

			var child position.Position
			if args[0] == "0" || args[0] == "0x00000000" {
				child, err = position.TopLevel(order)
			} else {
				var parent position.Position
				if parent, err = position.Parse(args[0]); err != nil {
					return err
				}
				child, err = position.AppendRelativePosition(parent, order)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", child.Hex(), child)
			return nil
		},
	}
}

func newPositionBoundsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bounds <position>",
		Short: "Print the half-open range holding a position and its descendants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := position.Parse(args[0])
			if err != nil {
				return err
			}
			lower, upper, err := position.DescendantBounds(p)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "[0x%08X, 0x%08X)\n", lower, upper)
			return nil
		},
	}
}
