// Package apiconnect wires the groupledger RPC services to connectrpc.com/connect:
// procedure names, typed clients, handler constructors and the JSON codec
// every client and handler is built with.
//
// The procedure paths look like generated protobuf services
// (/groupledger.v1.GroupService/CreateGroup) but the wire format is not
// protobuf JSON. Messages are plain encoding/json structs: int64 fields are
// JSON numbers, not strings, and the binary protobuf codec is not served.
// A client generated from .proto files cannot talk to these handlers; use the
// clients in this package.
package apiconnect

import "encoding/json"

// Codec marshals api messages with encoding/json. Its name replaces Connect's
// built-in protobuf JSON codec, so requests use the application/json content type.
type Codec struct{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}
