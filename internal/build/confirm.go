package build

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Confirmer asks whether the listed sources may be rewritten in place.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string, paths []string) (bool, error)
}

// AutoConfirm approves every request. It backs the --yes flag.
type AutoConfirm struct{}

// Confirm always returns true.
func (AutoConfirm) Confirm(context.Context, string, []string) (bool, error) { return true, nil }

// PromptConfirmer asks on Out and reads y or n from In, repeating the
// question until it gets one of the two.
type PromptConfirmer struct {
	In  io.Reader
	Out io.Writer
}

// Confirm prints the prompt and waits for an answer. End of input declines.
func (p PromptConfirmer) Confirm(ctx context.Context, prompt string, paths []string) (bool, error) {
	reader := bufio.NewReader(p.In)
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		for _, path := range paths {
			fmt.Fprintf(p.Out, "  %s\n", path)
		}
		fmt.Fprintf(p.Out, "%s (y/n) ", prompt)
		line, err := reader.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("read confirmation: %w", err)
		}
	}
}
