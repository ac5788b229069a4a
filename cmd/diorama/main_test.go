package main

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/taigrr/diorama/pkg/anim"
)

func TestWithTimeout(t *testing.T) {
	tests := []struct {
		name         string
		timeout      time.Duration
		wantDeadline bool
	}{
		{"zero waits forever", 0, false},
		{"negative waits forever", -time.Second, false},
		{"positive sets a deadline", time.Minute, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := withTimeout(context.Background(), tt.timeout)
			defer cancel()
			if _, ok := ctx.Deadline(); ok != tt.wantDeadline {
				t.Errorf("deadline set = %v, want %v", ok, tt.wantDeadline)
			}
			if err := ctx.Err(); err != nil {
				t.Errorf("fresh context already done: %v", err)
			}
		})
	}
}

func TestEnvClip(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		args     []string
		wantClip int
		wantErr  string
	}{
		{"unset", "", nil, 2, ""},
		{"numeric", "4", nil, 4, ""},
		{"not a number", "walk", nil, 2, "DIORAMA_CLIP"},
		{"flag overrides a bad value", "walk", []string{"--clip", "1"}, 1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DIORAMA_CLIP", tt.env)
			root := newRootCmd()
			if err := root.ParseFlags(tt.args); err != nil {
				t.Fatalf("ParseFlags: %v", err)
			}

			err := root.PersistentPreRunE(root, nil)
			if tt.wantErr == "" && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)) {
				t.Fatalf("error = %v, want mention of %s", err, tt.wantErr)
			}

			clip, err := root.Flags().GetInt("clip")
			if err != nil {
				t.Fatal(err)
			}
			if clip != tt.wantClip {
				t.Errorf("clip = %d, want %d", clip, tt.wantClip)
			}
		})
	}
}

func TestOptionsLoop(t *testing.T) {
	tests := []struct {
		loop    string
		want    anim.LoopMode
		wantErr bool
	}{
		{"repeat", anim.LoopRepeat, false},
		{"once", anim.LoopOnce, false},
		{"pingpong", anim.LoopPingPong, false},
		{"forever", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.loop, func(t *testing.T) {
			opts := &options{loop: tt.loop, fps: 60, bg: "0,0,0"}
			d, err := opts.demo(log.New(io.Discard))
			if (err != nil) != tt.wantErr {
				t.Fatalf("demo() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && d.Config().Loop != tt.want {
				t.Errorf("Loop = %v, want %v", d.Config().Loop, tt.want)
			}
		})
	}
}
