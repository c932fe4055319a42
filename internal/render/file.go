package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/park285/othello-turn-client/internal/view"
)

// FileDisplay writes every frame as a PNG to a fixed path. The file is
// replaced atomically so image viewers never see a partial write.
type FileDisplay struct {
	path     string
	renderer *Renderer
	timeout  time.Duration
}

func NewFileDisplay(path string, r *Renderer) *FileDisplay {
	if r == nil {
		r = NewRenderer()
	}
	return &FileDisplay{path: path, renderer: r, timeout: 2 * time.Second}
}

func (d *FileDisplay) Name() string { return "png:" + d.path }

func (d *FileDisplay) Show(f view.Frame) error {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	raw, err := d.renderer.RenderPNG(ctx, f)
	if err != nil {
		return err
	}

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create board dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".board-*.png")
	if err != nil {
		return fmt.Errorf("create temp board: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write board: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close board: %w", err)
	}
	if err := os.Rename(tmp.Name(), d.path); err != nil {
		return fmt.Errorf("replace board: %w", err)
	}
	return nil
}
