package server

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "filecollect/api/gen"
	"filecollect/internal/agent/auth"
	"filecollect/internal/agent/domain"
	"filecollect/internal/mappers"
	collecterrors "filecollect/pkg/errors"
	"filecollect/pkg/logger"
)

// Collector is the action surface the service exposes.
type Collector interface {
	Execute(ctx context.Context, args domain.ActionArgs) (*domain.ActionResult, error)
}

type CollectServiceServer struct {
	pb.UnimplementedCollectServiceServer
	auth      auth.GrpcAuthorization
	collector Collector
	logger    *logger.Logger
}

func NewCollectServiceServer(authz auth.GrpcAuthorization, collector Collector) *CollectServiceServer {
	return &CollectServiceServer{
		auth:      authz,
		collector: collector,
		logger:    logger.WithField("component", "grpc-service"),
	}
}

func (s *CollectServiceServer) CollectLargeFile(ctx context.Context, req *pb.CollectLargeFileReq) (*pb.CollectLargeFileRes, error) {
	log := s.logger.WithFields(
		"operation", "CollectLargeFile",
		"pathSpec", req.GetPathSpec())

	log.Debug("collect request received")

	if err := s.auth.Authorized(ctx, auth.CollectLargeFileOp); err != nil {
		log.Warn("authorization failed", "error", err)
		return nil, err
	}

	if req.GetPathSpec() == "" || req.GetSignedUrl() == "" {
		log.Warn("invalid arguments")
		return nil, status.Error(codes.InvalidArgument, "path spec and signed URL are required")
	}

	result, err := s.collector.Execute(ctx, mappers.ProtobufToActionArgs(req))
	if err != nil {
		log.Error("collection failed to start", "error", err)
		return nil, classifiedStatus(err)
	}

	log.Info("collection started", "sessionURI", result.SessionURI)
	return mappers.ActionResultToProtobuf(result), nil
}

// classifiedStatus maps collection classifications onto stable gRPC codes.
// Everything after a successful handoff never reaches this path: the action
// has already returned by then.
func classifiedStatus(err error) error {
	class, ok := collecterrors.ClassOf(err)
	if !ok {
		return status.Errorf(codes.Internal, "collection failed: %v", err)
	}

	var code codes.Code
	switch class {
	case collecterrors.ClassNotFound:
		code = codes.NotFound
	case collecterrors.ClassPermissionDenied:
		code = codes.PermissionDenied
	case collecterrors.ClassUnreadable:
		code = codes.FailedPrecondition
	case collecterrors.ClassUrlExpired:
		code = codes.DeadlineExceeded
	case collecterrors.ClassUrlInvalid:
		code = codes.InvalidArgument
	case collecterrors.ClassRemoteRejected:
		code = codes.Unavailable
	default:
		code = codes.Internal
	}
	return status.Errorf(code, "%v", err)
}
