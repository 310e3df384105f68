// Package mappers converts between the protobuf wire types and the domain
// value objects.
package mappers

import (
	pb "filecollect/api/gen"
	"filecollect/internal/agent/domain"
)

// ProtobufToActionArgs maps a collection request to domain args.
func ProtobufToActionArgs(req *pb.CollectLargeFileReq) domain.ActionArgs {
	return domain.ActionArgs{
		PathSpec:  req.GetPathSpec(),
		SignedURL: req.GetSignedUrl(),
	}
}

// ActionResultToProtobuf maps the action's commitment back onto the wire.
func ActionResultToProtobuf(res *domain.ActionResult) *pb.CollectLargeFileRes {
	return &pb.CollectLargeFileRes{
		SessionUri: res.SessionURI,
	}
}
