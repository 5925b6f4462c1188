package remote

import (
	"errors"
	"testing"
)

func TestNormalizeBaseURL(t *testing.T) {
	cases := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"192.168.1.25:7860", "http://192.168.1.25:7860/", false},
		{"wan2gp.local", "http://wan2gp.local/", false},
		{"http://192.168.1.25:7860", "http://192.168.1.25:7860/", false},
		{"https://192.168.1.25:7860/", "http://192.168.1.25:7860/", false},
		{"  10.0.0.5:80  ", "http://10.0.0.5:80/", false},
		{"192.168.1.25:65535", "http://192.168.1.25:65535/", false},
		{"", "", true},
		{"   ", "", true},
		{"192.168.1.25:99999", "", true},
		{"192.168.1.25:0", "", true},
		{"host:port", "", true},
		{"host name", "", true},
		{"host:80:90", "", true},
		{"http://", "", true},
	}

	for _, tc := range cases {
		got, err := NormalizeBaseURL(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("NormalizeBaseURL(%q): expected error, got %q", tc.input, got)
				continue
			}
			re, ok := AsError(err)
			if !ok || re.Kind != ErrInvalidAddress {
				t.Errorf("NormalizeBaseURL(%q): expected invalid address error, got %v", tc.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeBaseURL(%q) failed: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeBaseURL(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestNormalizeBaseURL_Idempotent(t *testing.T) {
	first, err := NormalizeBaseURL("192.168.1.25:7860")
	if err != nil {
		t.Fatalf("first normalization failed: %v", err)
	}
	second, err := NormalizeBaseURL(first)
	if err != nil {
		t.Fatalf("second normalization failed: %v", err)
	}
	if first != second {
		t.Errorf("normalization is not idempotent: %q != %q", first, second)
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(&Error{Kind: ErrInvalidAddress}) {
		t.Error("invalid address should not be retryable")
	}
	for _, kind := range []ErrorKind{ErrTimeout, ErrUnreachableHost, ErrHTTP, ErrMalformedResponse, ErrAssetDownload} {
		if !Retryable(&Error{Kind: kind}) {
			t.Errorf("%s should be retryable", kind)
		}
	}
	if !Retryable(errors.New("plain error")) {
		t.Error("unclassified errors should default to retryable")
	}
	if Retryable(nil) {
		t.Error("nil should not be retryable")
	}
}
