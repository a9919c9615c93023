package pipeline

import (
	"context"
	"os/exec"
	"runtime"
)

// Viewer shows an image file to the user.
type Viewer interface {
	Open(ctx context.Context, path string) error
}

// SystemViewer hands files to the desktop's default application.
type SystemViewer struct {
	// GOOS overrides runtime.GOOS, mostly for tests.
	GOOS string
}

// Command returns the program and arguments used to open path.
func (v SystemViewer) Command(path string) (string, []string) {
	goos := v.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	switch goos {
	case "darwin":
		return "open", []string{path}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", path}
	default:
		return "xdg-open", []string{path}
	}
}

// Open starts the viewer and returns without waiting for it. The viewer
// is not stopped when ctx ends.
func (v SystemViewer) Open(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, args := v.Command(path)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
