// Package jsoncodec implements a gRPC wire codec that marshals request and
// response messages as JSON instead of protobuf.
//
// The service contracts under proto/ are documented as protobuf IDL for
// readability, but the module has no protoc toolchain available to generate
// bindings from them. Rather than drop gRPC — and with it the codes/status
// error model and deadline propagation the rest of the system is built
// around — every RPC message here is a plain Go struct, and this codec is
// forced onto the client and server so grpc-go serializes those structs with
// encoding/json instead of requiring them to implement proto.Message.
package jsoncodec

import (
	"encoding/json"
	"fmt"
)

// Name is the codec's name. The codec is never registered with
// encoding.RegisterCodec: clients force it with grpc.ForceCodec, which sends
// this name as the content-subtype, and servers force it with
// grpc.ForceServerCodec, which uses this codec whatever subtype arrives.
const Name = "json"

// Codec implements encoding.Codec by delegating to encoding/json. It has no
// state and is safe to share across every client and server in a process.
type Codec struct{}

// Marshal returns the JSON encoding of v.
func (Codec) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("jsoncodec: marshal: %w", err)
	}
	return b, nil
}

// Unmarshal parses JSON-encoded data into v.
func (Codec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("jsoncodec: unmarshal: %w", err)
	}
	return nil
}

// Name returns the codec's registered name.
func (Codec) Name() string {
	return Name
}
