package iam

import "testing"

func TestJSONCodec_RoundTrip(t *testing.T) {
	codec := jsonCodec{}
	req := verifyAccessTokenRequest{AccessToken: "abc.def.ghi"}

	data, err := codec.Marshal(&req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded verifyAccessTokenRequest
	if err := codec.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.AccessToken != req.AccessToken {
		t.Errorf("AccessToken = %q, want %q", decoded.AccessToken, req.AccessToken)
	}
}

func TestJSONCodec_Name(t *testing.T) {
	if got := (jsonCodec{}).Name(); got != "json" {
		t.Errorf("Name() = %q, want %q", got, "json")
	}
}
