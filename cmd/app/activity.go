package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"cipher_go/internal/session"
)

const activityInterval = 100 * time.Millisecond

// watchSession logs every session change until ctx is done.
func watchSession(ctx context.Context, s *session.Context, logger *slog.Logger) {
	updates, cancel := s.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			if st.InitErr != nil {
				logger.Warn("🔐 Session not initialized", slog.String("env", string(st.Environment)), slog.Any("error", st.InitErr))
				continue
			}
			logger.Info("🔐 Session updated",
				slog.String("env", string(st.Environment)),
				slog.Bool("initialized", st.Initialized),
			)
		}
	}
}

type busyFlag struct {
	label string
	busy  func() bool
}

// watchActivity prints the label of the first busy flag whenever it changes.
func watchActivity(ctx context.Context, w io.Writer, interval time.Duration, flags ...busyFlag) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := ""
	for {
		current := ""
		for _, f := range flags {
			if f.busy() {
				current = f.label
				break
			}
		}
		if current != last && current != "" {
			fmt.Fprintln(w, current+"...")
		}
		last = current

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
