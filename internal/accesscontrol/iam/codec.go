package iam

import (
	"encoding/json"
	"fmt"
)

// jsonCodec lets the gRPC client exercise real transport, deadlines, and
// connection management against the identity service without depending on
// its actual .proto — the wire format is explicitly out of scope (spec.md
// §1: "the concrete wire format of the remote identity service (treated as
// an abstract RPC)"). Request/response payloads are marshaled as JSON
// instead of protobuf.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return "json"
}

// verifyAccessTokenRequest is the RPC request payload: `VerifyAccessToken
// (access_token: string)` per spec.md §6.
type verifyAccessTokenRequest struct {
	AccessToken string `json:"access_token"`
}

// verifyAccessTokenResponse mirrors spec.md §6's remote identity RPC
// response shape.
type verifyAccessTokenResponse struct {
	IsValid         bool   `json:"is_valid"`
	SubjectID       string `json:"subject_id"`
	JTI             string `json:"jti"`
	ExpEpochSeconds uint64 `json:"exp_epoch_seconds"`
	ErrorMessage    string `json:"error_message"`
}

// verifyAccessTokenMethod is the fully-qualified method name passed to
// ClientConn.Invoke. No .proto defines this service; the name only needs
// to match whatever the identity service registers for the json codec.
const verifyAccessTokenMethod = "/identity.IdentityService/VerifyAccessToken"

func init() {
	// Fail loudly if this package is ever linked twice with conflicting
	// codecs registered under the same name.
	if name := (jsonCodec{}).Name(); name != "json" {
		panic(fmt.Sprintf("unexpected codec name %q", name))
	}
}
