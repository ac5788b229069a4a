// Package viewer runs the demo in a terminal or renders it to files.
package viewer

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/diorama/pkg/demo"
	"github.com/taigrr/diorama/pkg/render"
)

const (
	mouseOn  = "\x1b[?1003h\x1b[?1006h" // Any-event tracking, SGR encoding
	mouseOff = "\x1b[?1003l\x1b[?1006l"
)

// TerminalOptions configure RunTerminal.
type TerminalOptions struct {
	Title   string // Shown in the HUD
	ShowHUD bool
	Logger  *log.Logger
}

// RunTerminal takes over the terminal and runs d until the user quits or
// ctx is done. Input is read on its own goroutine and applied between
// frames, so the demo is only touched from the calling goroutine.
func RunTerminal(ctx context.Context, d *demo.Demo, opts TerminalOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger = logger.With("component", "terminal")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)
	fmt.Fprint(os.Stdout, mouseOn)

	defer func() {
		fmt.Fprint(os.Stdout, mouseOff)
		term.ExitAltScreen()
		term.ShowCursor()
		if err := term.Shutdown(context.Background()); err != nil {
			logger.Debug("terminal shutdown", "err", err)
		}
	}()

	out := render.NewTerminalRenderer(term, width, height)
	d.Resize(out.FramebufferSize())
	d.Start(ctx)

	events := make(chan any, 64)
	go func() {
		for ev := range term.Events() {
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	hud := NewHUD(opts.Title, time.Now())
	hud.Visible = opts.ShowHUD
	in := newTermInput(d, hud)
	in.resize(height)

	fps := d.Config().FPS
	targetDuration := time.Second / time.Duration(fps)
	logger.Info("running", "width", width, "height", height, "fps", fps)

	for {
		now := time.Now()

		select {
		case <-ctx.Done():
			return nil
		default:
		}

	drain:
		for {
			select {
			case ev := <-events:
				if size, ok := ev.(uv.WindowSizeEvent); ok {
					width, height = size.Width, size.Height
					term.Erase()
					term.Resize(width, height)
					out = render.NewTerminalRenderer(term, width, height)
					d.Resize(out.FramebufferSize())
					in.resize(height)
					continue
				}
				if in.handle(ev) {
					return nil
				}
			default:
				break drain
			}
		}

		d.Tick()
		d.Render()

		out.Render(d.Renderer.Framebuffer())
		if err := out.Flush(); err != nil {
			return fmt.Errorf("flush: %w", err)
		}

		hud.UpdateFPS(time.Now())
		hud.Render(os.Stdout, width, height, StatusOf(d))

		// Frame timing
		elapsed := time.Since(now)
		if elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}
