package pb

import "encoding/json"

// CodecName is registered with grpc's codec registry and must match the
// subtype sent in every request's "content-type: application/grpc+json"
// header (grpc-go derives it from Codec.Name automatically).
const CodecName = "json"

// jsonCodec implements encoding.Codec (the interface encoding.RegisterCodec
// and grpc.CallContentSubtype expect) over plain Go structs, replacing
// the protoc-gen-go-generated marshaling until api/inference_rpc.proto
// goes through protoc. Clients must force this codec on their calls.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string { return CodecName }

// Codec is the shared jsonCodec instance servers and clients register.
var Codec = jsonCodec{}
