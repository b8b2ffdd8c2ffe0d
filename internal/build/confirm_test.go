package build

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestPromptConfirmer(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes", "y\n", true},
		{"no", "n\n", false},
		{"retries until answered", "maybe\n\nyes\n", true},
		{"eof declines", "", false},
		{"answer without newline", "y", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			c := PromptConfirmer{In: strings.NewReader(tt.input), Out: &out}
			got, err := c.Confirm(context.Background(), "Convert?", []string{"/a.wav"})
			if err != nil {
				t.Fatalf("Confirm: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			if !strings.Contains(out.String(), "/a.wav") || !strings.Contains(out.String(), "Convert? (y/n)") {
				t.Fatalf("prompt missing details: %q", out.String())
			}
		})
	}
}
