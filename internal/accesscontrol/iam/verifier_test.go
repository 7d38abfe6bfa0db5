package iam

import "testing"

func TestTrimToken(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  abc  ", "abc"},
		{"abc", "abc"},
		{"   ", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := trimToken(tt.in); got != tt.want {
			t.Errorf("trimToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUUIDParse(t *testing.T) {
	if _, err := uuidParse("00000000-0000-4000-8000-000000000001"); err != nil {
		t.Errorf("expected valid UUID to parse: %v", err)
	}
	if _, err := uuidParse("not-a-uuid"); err == nil {
		t.Errorf("expected invalid UUID to fail parsing")
	}
}
