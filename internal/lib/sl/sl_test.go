package sl

import (
	"errors"
	"testing"
)

func TestErr(t *testing.T) {
	attr := Err(errors.New("disk full"))

	if attr.Key != "error" {
		t.Errorf("expected key error, got %q", attr.Key)
	}
	if attr.Value.String() != "disk full" {
		t.Errorf("expected value disk full, got %q", attr.Value.String())
	}
}
