package frame

import (
	"errors"
	"testing"
)

func TestDecodeImageEmptyPayload(t *testing.T) {
	_, err := DecodeImage("")
	if !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}

	_, err = DecodeImage("   ")
	if !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload for whitespace, got %v", err)
	}
}

func TestDecodeImageMalformedBase64(t *testing.T) {
	_, err := DecodeImage("not-valid-base64!!!")
	if err == nil {
		t.Fatal("expected error for malformed base64 payload")
	}
}

func TestClosedCaptureBehavior(t *testing.T) {
	c := &Capture{closed: true}

	if err := c.Close(); err != nil {
		t.Errorf("Close on closed capture = %v, want nil", err)
	}
	if _, err := c.ReadFrame(); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("ReadFrame on closed capture = %v, want ErrEndOfStream", err)
	}
}

func TestStripScheme(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"raw base64", "aGVsbG8=", "aGVsbG8="},
		{"png data url", "data:image/png;base64,aGVsbG8=", "aGVsbG8="},
		{"jpeg data url", "data:image/jpeg;base64,aGVsbG8=", "aGVsbG8="},
		{"prefix without comma", "data:image/png;base64", "data:image/png;base64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripScheme(tt.payload); got != tt.want {
				t.Errorf("stripScheme(%q) = %q, want %q", tt.payload, got, tt.want)
			}
		})
	}
}
