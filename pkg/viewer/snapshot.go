package viewer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/taigrr/diorama/pkg/demo"
)

// SnapshotOptions configure Snapshot.
type SnapshotOptions struct {
	Out           string        // PNG path; numbered when Frames > 1
	At            time.Duration // Scene time of the first frame
	Width, Height int
	Frames        int
}

// Snapshot renders frames of d on a virtual clock and writes them as PNG
// files, returning the paths written. The model load is awaited first; a
// failed load is logged by the demo and the frames are rendered without it.
func Snapshot(ctx context.Context, d *demo.Demo, opts SnapshotOptions) ([]string, error) {
	if opts.Out == "" {
		return nil, errors.New("snapshot: no output path")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("snapshot: invalid size %dx%d", opts.Width, opts.Height)
	}
	frames := max(opts.Frames, 1)

	base := time.Unix(0, 0)
	now := base
	d.Clock = demo.NewClockFunc(func() time.Time { return now })
	d.Resize(opts.Width, opts.Height)

	d.Start(ctx)
	if err := d.Await(ctx); err != nil {
		return nil, fmt.Errorf("snapshot: wait for model: %w", err)
	}

	step := time.Second / time.Duration(d.Config().FPS)
	paths := make([]string, 0, frames)
	for i := range frames {
		now = base.Add(opts.At + time.Duration(i)*step)
		d.Tick()
		d.Render()

		path := framePath(opts.Out, i, frames)
		if err := d.Renderer.Framebuffer().SavePNG(path); err != nil {
			return paths, fmt.Errorf("snapshot: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// framePath numbers out as name_0001.png when more than one frame is
// written.
func framePath(out string, i, frames int) string {
	if frames <= 1 {
		return out
	}
	ext := filepath.Ext(out)
	return fmt.Sprintf("%s_%04d%s", strings.TrimSuffix(out, ext), i+1, ext)
}
