// Copyright (c) 2019, Gareth Watts
// All rights reserved.

package export

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Renderer runs an external converter program to completion.
type Renderer interface {
	Render(program string, args ...string) error
}

// ExecRenderer runs converters as child processes. Their output is passed
// through to Stdout and Stderr and is not otherwise inspected.
type ExecRenderer struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRenderer returns a renderer attached to the process's own stdout and stderr.
func NewExecRenderer() *ExecRenderer {
	return &ExecRenderer{Stdout: os.Stdout, Stderr: os.Stderr}
}

func (r *ExecRenderer) Render(program string, args ...string) error {
	cmd := exec.Command(program, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	log.Debug().Str("program", program).Str("args", strings.Join(args, " ")).Msg("running renderer")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", program, err)
	}
	return nil
}

// joinOut joins a slash separated subpath onto the destination root.
func joinOut(root, sub string) string {
	return filepath.Join(root, filepath.FromSlash(sub))
}
