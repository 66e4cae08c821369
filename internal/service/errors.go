package service

import (
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"planet-permission-service/internal/api"
	"planet-permission-service/internal/position"
	"planet-permission-service/internal/repository"
)

// newStatusError attaches an ErrorInfo to the status when reason is set.
func newStatusError(code codes.Code, reason string, msg string) error {
	st := status.New(code, msg)
	if reason == "" {
		return st.Err()
	}

	withDetails, err := st.WithDetails(&errdetails.ErrorInfo{Reason: reason, Domain: api.ErrorDomain})
	if err != nil {
		return st.Err()
	}
	return withDetails.Err()
}

// handleError maps domain errors to statuses. Anything unrecognised is logged
// and returned as Internal so storage details do not leak to callers.
func (s *permissionService) handleError(msg string, err error, notFoundReason string) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		return newStatusError(codes.NotFound, notFoundReason, msg+": not found")
	case errors.Is(err, repository.ErrAlreadyHasRole):
		return newStatusError(codes.AlreadyExists, api.ReasonAlreadyHasRole, "member already has role")
	case errors.Is(err, repository.ErrDoesNotHaveRole):
		return newStatusError(codes.FailedPrecondition, api.ReasonDoesNotHaveRole, "member does not have role")
	case errors.Is(err, repository.ErrAlreadyExists):
		return newStatusError(codes.AlreadyExists, api.ReasonAlreadyExists, msg+": already exists")
	case errors.Is(err, repository.ErrRoleLimitReached):
		return newStatusError(codes.ResourceExhausted, api.ReasonRoleLimitReached, "planet role limit reached")
	case errors.Is(err, repository.ErrSiblingLimitReached):
		return newStatusError(codes.ResourceExhausted, api.ReasonSiblingLimitReached, "channel sibling limit reached")
	case errors.Is(err, position.ErrDepthExceeded):
		return newStatusError(codes.InvalidArgument, api.ReasonDepthExceeded, err.Error())
	case errors.Is(err, position.ErrInvalidLocalPosition):
		return newStatusError(codes.InvalidArgument, api.ReasonInvalidLocalPosition, err.Error())
	case errors.Is(err, position.ErrMalformedPosition):
		s.logger.Errorw(msg, "error", err)
		return newStatusError(codes.Internal, api.ReasonMalformedPosition, msg)
	}

	s.logger.Errorw(msg, "error", err)
	return status.Error(codes.Internal, msg)
}

// positionArgumentError maps errors for positions supplied by the caller,
// where a malformed position is the caller's mistake.
func positionArgumentError(err error) error {
	switch {
	case errors.Is(err, position.ErrDepthExceeded):
		return newStatusError(codes.InvalidArgument, api.ReasonDepthExceeded, err.Error())
	case errors.Is(err, position.ErrInvalidLocalPosition):
		return newStatusError(codes.InvalidArgument, api.ReasonInvalidLocalPosition, err.Error())
	case errors.Is(err, position.ErrMalformedPosition):
		return newStatusError(codes.InvalidArgument, api.ReasonMalformedPosition, err.Error())
	default:
		return newStatusError(codes.InvalidArgument, "", err.Error())
	}
}
