// diorama - animated 3D scene in the terminal
//
// Loads a glTF model, plays one of its animation clips next to three
// spinning wireframe primitives, and renders the result with a software
// rasterizer.
//
// Controls:
//
//	Left drag   - Orbit
//	Right drag  - Pan
//	Scroll, +/- - Dolly in/out
//	Arrows      - Pan
//	Space       - Pause animation
//	G           - Toggle ground grid
//	R           - Reset camera
//	?           - Toggle HUD overlay
//	Esc         - Quit
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/taigrr/diorama/pkg/anim"
	"github.com/taigrr/diorama/pkg/demo"
	"github.com/taigrr/diorama/pkg/viewer"
	"github.com/taigrr/diorama/pkg/viewer/window"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: could not read .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(ctx, newRootCmd(), fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

// options are the flags shared by every command.
type options struct {
	model    string
	clip     int
	loop     string
	decoder  string
	fps      int
	bg       string
	grid     bool
	logFile  string
	logLevel string

	envErrs map[string]error // Unparsable environment defaults, by flag
}

func newRootCmd() *cobra.Command {
	defaults := demo.DefaultConfig()
	opts := &options{envErrs: make(map[string]error)}

	root := &cobra.Command{
		Use:   "diorama",
		Short: "Animated glTF scene rendered in the terminal",
		Long: "diorama loads a glTF model, plays one of its animations beside three spinning\n" +
			"wireframe primitives, and renders the scene with a software rasterizer.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.checkEnv(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The alternate screen owns stdout, so logs go to a file or nowhere.
			logger, closeLog, err := opts.logger(io.Discard)
			if err != nil {
				return err
			}
			defer closeLog()

			d, err := opts.demo(logger)
			if err != nil {
				return err
			}
			return viewer.RunTerminal(cmd.Context(), d, viewer.TerminalOptions{
				Title:   filepath.Base(opts.model),
				ShowHUD: true,
				Logger:  logger,
			})
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.model, "model", envString("DIORAMA_MODEL", defaults.ModelPath), "glTF/GLB model to load (env DIORAMA_MODEL)")
	f.IntVar(&opts.clip, "clip", opts.envInt("clip", "DIORAMA_CLIP", defaults.ClipIndex), "animation clip index to play (env DIORAMA_CLIP)")
	f.StringVar(&opts.loop, "loop", envString("DIORAMA_LOOP", defaults.Loop.String()), "repeat, once or pingpong (env DIORAMA_LOOP)")
	f.StringVar(&opts.decoder, "draco-decoder", defaults.DecoderPath, "Draco decoder path (Draco assets are rejected)")
	f.IntVar(&opts.fps, "fps", defaults.FPS, "target frames per second")
	f.StringVar(&opts.bg, "bg", "0,0,0", "background color (R,G,B)")
	f.BoolVar(&opts.grid, "grid", false, "draw a ground grid")
	f.StringVar(&opts.logFile, "log-file", "", "append logs to this file")
	f.StringVar(&opts.logLevel, "log-level", envString("DIORAMA_LOG_LEVEL", "info"), "debug, info, warn or error (env DIORAMA_LOG_LEVEL)")

	root.AddCommand(newWindowCmd(opts), newSnapshotCmd(opts))
	return root
}

func newWindowCmd(opts *options) *cobra.Command {
	var (
		ratioCap      float64
		width, height int
	)
	cmd := &cobra.Command{
		Use:   "window",
		Short: "Open the scene in a desktop window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, closeLog, err := opts.logger(os.Stderr)
			if err != nil {
				return err
			}
			defer closeLog()

			d, err := opts.demo(logger, func(c *demo.Config) { c.PixelRatioCap = ratioCap })
			if err != nil {
				return err
			}
			return window.Run(cmd.Context(), d, window.Options{
				Title:  "diorama - " + filepath.Base(opts.model),
				Width:  width,
				Height: height,
				Logger: logger,
			})
		},
	}
	cmd.Flags().Float64Var(&ratioCap, "pixel-ratio-cap", demo.DefaultConfig().PixelRatioCap, "upper bound on the device pixel ratio")
	cmd.Flags().IntVar(&width, "width", 960, "initial window width")
	cmd.Flags().IntVar(&height, "height", 640, "initial window height")
	return cmd
}

func newSnapshotCmd(opts *options) *cobra.Command {
	var so viewer.SnapshotOptions
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render frames to PNG without a display",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, closeLog, err := opts.logger(os.Stderr)
			if err != nil {
				return err
			}
			defer closeLog()

			d, err := opts.demo(logger)
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout(cmd.Context(), timeout)
			defer cancel()
			paths, err := viewer.Snapshot(ctx, d, so)
			if err != nil {
				return err
			}
			for _, p := range paths {
				logger.Info("wrote", "path", p)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&so.Out, "out", "diorama.png", "output PNG path")
	f.DurationVar(&so.At, "at", 2*time.Second, "scene time of the first frame")
	f.IntVar(&so.Width, "width", 640, "image width")
	f.IntVar(&so.Height, "height", 360, "image height")
	f.IntVar(&so.Frames, "frames", 1, "number of consecutive frames")
	f.DurationVar(&timeout, "timeout", 30*time.Second, "give up waiting for the model after this long; 0 waits forever")
	return cmd
}

// demo builds the scene from the flags; edits adjust the config first.
func (o *options) demo(logger *log.Logger, edits ...func(*demo.Config)) (*demo.Demo, error) {
	cfg := demo.DefaultConfig()
	cfg.ModelPath = o.model
	cfg.ClipIndex = o.clip
	loop, err := anim.ParseLoopMode(o.loop)
	if err != nil {
		return nil, fmt.Errorf("--loop: %w", err)
	}
	cfg.Loop = loop
	cfg.DecoderPath = o.decoder
	cfg.FPS = o.fps
	cfg.ShowGrid = o.grid

	bg, err := demo.ParseColor(o.bg)
	if err != nil {
		return nil, fmt.Errorf("--bg: %w", err)
	}
	cfg.Background = bg

	for _, edit := range edits {
		edit(&cfg)
	}
	d, err := demo.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("configure scene: %w", err)
	}
	return d, nil
}

// logger writes to --log-file when set and to fallback otherwise. The
// returned func closes the log file.
func (o *options) logger(fallback io.Writer) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(o.logLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("--log-level: %w", err)
	}

	w, closeFn := fallback, func() {}
	if o.logFile != "" {
		f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closeFn = f, func() { f.Close() }
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          "diorama",
		ReportTimestamp: true,
	})
	return logger, closeFn, nil
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// envInt reads an integer default for flag from key. A value that does not
// parse is remembered and reported by checkEnv unless the flag is set.
func (o *options) envInt(flag, key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		o.envErrs[flag] = fmt.Errorf("%s=%q: not an integer", key, v)
		return def
	}
	return n
}

// checkEnv fails on bad environment defaults for flags the command line
// did not override.
func (o *options) checkEnv(cmd *cobra.Command) error {
	var errs []error
	for flag, err := range o.envErrs {
		if !cmd.Flags().Changed(flag) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// withTimeout bounds ctx by d; zero or less means no limit.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
