// Package rpc holds the Connect wiring shared by the API surface and the
// remote engine client. Messages are plain Go structs carried as JSON;
// protobuf well-known types go through protojson.
package rpc

import (
	"encoding/json"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// CodecName is registered in place of Connect's built-in JSON codec.
const CodecName = "json"

// Codec marshals proto messages with protojson and everything else with
// encoding/json.
type Codec struct{}

var _ connect.Codec = Codec{}

func (Codec) Name() string {
	return CodecName
}

func (Codec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return protojson.Marshal(m)
	}
	return json.Marshal(v)
}

func (Codec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		data = []byte("{}")
	}
	if m, ok := v.(proto.Message); ok {
		return protojson.UnmarshalOptions{DiscardUnknown: true}.Unmarshal(data, m)
	}
	return json.Unmarshal(data, v)
}

// ClientOptions returns the options every Connect client in this module uses.
func ClientOptions() []connect.ClientOption {
	return []connect.ClientOption{connect.WithCodec(Codec{})}
}

// HandlerOptions returns the options every Connect handler in this module uses.
func HandlerOptions(extra ...connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(Codec{})}, extra...)
}
