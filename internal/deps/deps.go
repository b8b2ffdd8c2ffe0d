// Package deps resolves the external programs audiopack shells out to and
// reports whether each one actually runs.
package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const probeTimeout = 10 * time.Second

// Requirement is an external program plus an optional version probe.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// VersionArgs, when set, are run against the resolved binary. A non-zero
	// exit marks the requirement unavailable.
	VersionArgs []string
}

// Status reports what Check found for one Requirement.
type Status struct {
	Name        string
	Description string
	Optional    bool
	// Command is the resolved absolute path once the binary is found.
	Command   string
	Available bool
	Version   string
	Detail    string
}

// FFmpeg is the encoder requirement for the configured command.
func FFmpeg(command string) Requirement {
	return Requirement{
		Name:        "FFmpeg",
		Command:     command,
		Description: "Required for encoding and remediation",
		VersionArgs: []string{"-hide_banner", "-version"},
	}
}

// Check evaluates every requirement in order.
func Check(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, check(ctx, req))
	}
	return results
}

func check(ctx context.Context, req Requirement) Status {
	command := strings.TrimSpace(req.Command)
	status := Status{
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
		Command:     command,
	}
	if command == "" {
		status.Detail = "command not configured"
		return status
	}
	resolved, err := exec.LookPath(command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", command)
		return status
	}
	status.Command = resolved
	if len(req.VersionArgs) == 0 {
		status.Available = true
		return status
	}

	version, err := probeVersion(ctx, resolved, req.VersionArgs)
	if err != nil {
		status.Detail = err.Error()
		return status
	}
	status.Available = true
	status.Version = version
	if version != "" {
		status.Detail = "version " + version
	}
	return status
}

func probeVersion(ctx context.Context, binary string, args []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, binary, args...).Output()
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", binary, strings.Join(args, " "), err)
	}
	return ParseVersionBanner(out), nil
}

// ParseVersionBanner returns the token after "version" on the first line of
// a -version banner ("ffmpeg version 7.1 Copyright ..." gives "7.1"). Other
// layouts yield the trimmed first line.
func ParseVersionBanner(out []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if !scanner.Scan() {
		return ""
	}
	line := strings.TrimSpace(scanner.Text())
	fields := strings.Fields(line)
	for i := 0; i+1 < len(fields); i++ {
		if fields[i] == "version" {
			return fields[i+1]
		}
	}
	return line
}
