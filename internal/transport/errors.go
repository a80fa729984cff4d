package transport

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"cleanstage/store"
)

var codeOf = []struct {
	err  error
	code codes.Code
}{
	{store.ErrNotFound, codes.NotFound},
	{store.ErrInvalidRef, codes.InvalidArgument},
	{store.ErrTypeClash, codes.AlreadyExists},
	{store.ErrUnknownRun, codes.FailedPrecondition},
	{context.Canceled, codes.Canceled},
	{context.DeadlineExceeded, codes.DeadlineExceeded},
}

// toStatus maps store sentinels onto gRPC codes so the client can restore
// them.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	for _, m := range codeOf {
		if errors.Is(err, m.err) {
			return status.Error(m.code, err.Error())
		}
	}
	return status.Error(codes.Internal, err.Error())
}

// FromStatus turns a gRPC error back into a store sentinel where one
// applies.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unavailable:
		return fmt.Errorf("%w: %s", store.ErrUnavailable, st.Message())
	case codes.Internal, codes.Unknown:
		return errors.New(st.Message())
	}
	for _, m := range codeOf {
		if m.code == st.Code() {
			return fmt.Errorf("%w (remote: %s)", m.err, st.Message())
		}
	}
	return err
}
