package solve

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// ExecSolver invokes an external solver binary. The request is written to
// the process's stdin as JSON and the result is read from its stdout, in the
// shapes of Input and Result. Cancelling the context kills the process.
type ExecSolver struct {
	// Path is the solver executable.
	Path string
	// Args are passed before the JSON exchange begins.
	Args []string
}

func (s *ExecSolver) Solve(ctx context.Context, in *Input) (*Result, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode solver input: %w", err)
	}

	cmd := exec.CommandContext(ctx, s.Path, s.Args...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			diag = err.Error()
		}
		return nil, fmt.Errorf("solver process: %s", diag)
	}

	var res Result
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		return nil, fmt.Errorf("decode solver output: %w", err)
	}
	return &res, nil
}
