package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"planet-permission-service/internal/api"
	"planet-permission-service/internal/permission"
)

type connectionFlags struct {
	addr    string
	timeout time.Duration
}

func (f *connectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.addr, "addr", "localhost:10010", "permission service address")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 5*time.Second, "request timeout")
}

func (f *connectionFlags) dial() (api.PermissionServiceClient, func() error, error) {
	conn, err := grpc.NewClient(f.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", f.addr, err)
	}
	return api.NewPermissionServiceClient(conn), conn.Close, nil
}

func parseIds(names []string, values ...string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(values))
	for i, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("invalid --%s %q: %w", names[i], v, err)
		}
		ids[i] = id
	}
	return ids, nil
}

func printResult(cmd *cobra.Command, resp *api.ResolveResponse) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\t%s\n", resp.Decision, resp.Reason)
	if resp.DecidingRoleId != uuid.Nil {
		fmt.Fprintf(out, "role\t%s\n", resp.DecidingRoleId)
	}
	if resp.EffectiveTargetId != uuid.Nil {
		fmt.Fprintf(out, "target\t%s\n", resp.EffectiveTargetId)
	}
}

func newResolveCmd() *cobra.Command {
	var (
		conn                       connectionFlags
		planet, user, target, perm string
		targetType                 string
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a channel permission for a member",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIds([]string{"planet", "user", "target"}, planet, user, target)
			if err != nil {
				return err
			}
			tt, err := permission.ParseTargetType(targetType)
			if err != nil {
				return err
			}

			client, closeConn, err := conn.dial()
			if err != nil {
				return err
			}
			defer closeConn()

			ctx, cancel := context.WithTimeout(cmd.Context(), conn.timeout)
			defer cancel()

			resp, err := client.Resolve(ctx, &api.ResolveRequest{
				PlanetId: ids[0], UserId: ids[1], TargetId: ids[2], TargetType: tt, Permission: perm,
			})
			if err != nil {
				return err
			}
			printResult(cmd, resp)
			return nil
		},
	}

	conn.register(cmd)
	cmd.Flags().StringVar(&planet, "planet", "", "planet id")
	cmd.Flags().StringVar(&user, "user", "", "user id")
	cmd.Flags().StringVar(&target, "target", "", "channel or category id")
	cmd.Flags().StringVar(&targetType, "type", "chat", "target type (chat|category|voice)")
	cmd.Flags().StringVar(&perm, "permission", "view", "permission name, e.g. post-messages")
	return cmd
}

func newResolvePlanetCmd() *cobra.Command {
	var (
		conn               connectionFlags
		planet, user, perm string
	)

	cmd := &cobra.Command{
		Use:   "resolve-planet",
		Short: "Resolve a planet-wide permission for a member",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIds([]string{"planet", "user"}, planet, user)
			if err != nil {
				return err
			}

			client, closeConn, err := conn.dial()
			if err != nil {
				return err
			}
			defer closeConn()

			ctx, cancel := context.WithTimeout(cmd.Context(), conn.timeout)
			defer cancel()

			resp, err := client.ResolvePlanet(ctx, &api.ResolvePlanetRequest{
				PlanetId: ids[0], UserId: ids[1], Permission: perm,
			})
			if err != nil {
				return err
			}
			printResult(cmd, resp)
			return nil
		},
	}

	conn.register(cmd)
	cmd.Flags().StringVar(&planet, "planet", "", "planet id")
	cmd.Flags().StringVar(&user, "user", "", "user id")
	cmd.Flags().StringVar(&perm, "permission", "view", "permission name, e.g. manage-roles")
	return cmd
}
