// Package editor hands freshly created records to an interactive editor.
package editor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Editor lets a user change a record after it is written. Path is
// relative to the record store root.
type Editor interface {
	Edit(ctx context.Context, path string) error
}

// None leaves records untouched.
type None struct{}

// Edit does nothing.
func (None) Edit(context.Context, string) error { return nil }

// Exec runs an external command with the record's absolute path appended.
type Exec struct {
	Command string // e.g. "code --wait"
	Root    string // directory record paths are relative to
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// Edit runs the command and waits for it to exit.
func (e *Exec) Edit(ctx context.Context, path string) error {
	fields := strings.Fields(e.Command)
	if len(fields) == 0 {
		return nil
	}
	target := filepath.Join(e.Root, filepath.FromSlash(path))
	cmd := exec.CommandContext(ctx, fields[0], append(fields[1:], target)...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if e.Stdin != nil {
		cmd.Stdin = e.Stdin
	}
	if e.Stdout != nil {
		cmd.Stdout = e.Stdout
	}
	if e.Stderr != nil {
		cmd.Stderr = e.Stderr
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor: %s %s: %w", fields[0], target, err)
	}
	return nil
}

// Resolve picks the editor command: the configured one, then $VISUAL, then
// $EDITOR. With none set, records are left as rendered.
func Resolve(configured, root string) Editor {
	cmd := configured
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if cmd != "" {
			break
		}
		cmd = os.Getenv(env)
	}
	if strings.TrimSpace(cmd) == "" {
		return None{}
	}
	return &Exec{Command: cmd, Root: root}
}
