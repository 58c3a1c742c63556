// Package pb holds the wire types for the detection gRPC service as
// plain Go structs with JSON tags, standing in for a proto contract that
// hasn't been through protoc yet. Messages here round-trip through the
// JSON codec registered in codec.go rather than protoc-gen-go's binary
// wire format. The message and field names follow api/inference_rpc.proto:
// encoded_image{data,size} in, detection_output{bboxes} out, each bbox
// carrying label_id/label/prob and an optional box rectangle.
package pb

import (
	"context"

	"google.golang.org/grpc"
)

// EncodedImage carries one raw JPEG/PNG payload and its byte count.
type EncodedImage struct {
	Data []byte `json:"data"`
	Size int32  `json:"size"`
}

// Rect is a detection rectangle in image-space pixel coordinates.
type Rect struct {
	Xmin int32 `json:"xmin"`
	Ymin int32 `json:"ymin"`
	Xmax int32 `json:"xmax"`
	Ymax int32 `json:"ymax"`
}

// BBox is one detection on the wire. Box is nil (and omitted) when all
// four coordinates are zero.
type BBox struct {
	LabelID int32   `json:"label_id"`
	Label   string  `json:"label"`
	Prob    float64 `json:"prob"`
	Box     *Rect   `json:"box,omitempty"`
}

// DetectionOutput is the server's reply to RunDetection.
type DetectionOutput struct {
	Bboxes []BBox `json:"bboxes"`
}

// EngineInfo describes one configured engine, for the metadata RPC.
type EngineInfo struct {
	Device string `json:"device"`
	Model  string `json:"model"`
	Labels int32  `json:"labels"`
}

// MetadataRequest is empty; every field is reserved for future filtering.
type MetadataRequest struct{}

// MetadataResponse lists every engine the server has configured.
type MetadataResponse struct {
	Engines []EngineInfo `json:"engines"`
}

// InferenceRPCServer is implemented by whatever backs the detection
// RPCs; grpcfront.Server implements it against a dispatch.Dispatcher.
type InferenceRPCServer interface {
	RunDetection(ctx context.Context, req *EncodedImage) (*DetectionOutput, error)
	Metadata(ctx context.Context, req *MetadataRequest) (*MetadataResponse, error)
}

// ServiceName is the fully-qualified name the grpc.Server dispatches on,
// matching the convention protoc-gen-go would have produced
// ("package.Service").
const ServiceName = "heteroserving.InferenceRPC"

// ServiceDesc is the hand-written equivalent of the *_grpc.pb.go file a
// real protoc run would generate: one entry per unary RPC, each
// unmarshaling its request with the codec registered in codec.go.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InferenceRPCServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RunDetection", Handler: runDetectionHandler},
		{MethodName: "Metadata", Handler: metadataHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "inference_rpc.proto",
}
