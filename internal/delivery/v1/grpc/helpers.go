package grpc

import (
	"context"
	"errors"

	"github.com/DRSN-tech/face-matcher/pkg/e"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func GRPCErrorResponse(err error) error {
	switch {
	case errors.Is(err, e.ErrInvalidPhotoID):
		return status.Error(codes.InvalidArgument, e.ErrInvalidPhotoID.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, context.Canceled.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, context.DeadlineExceeded.Error())
	default:
		return status.Error(codes.Internal, e.ErrInternalServerError.Error())
	}
}
