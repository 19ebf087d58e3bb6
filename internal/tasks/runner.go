// Package tasks holds the periodic scheduler loops: pre-expiry reminders,
// expiry handling and winback nudges.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// Loop runs fn once per interval until ctx is cancelled. One bad iteration
// (error or panic) is logged and the loop keeps ticking; an in-flight
// iteration finishes before the loop exits.
func Loop(ctx context.Context, log *slog.Logger, name string, interval time.Duration, fn func(ctx context.Context) error) {
	log.Info("loop started", "loop", name, "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := runOnce(ctx, fn); err != nil {
			log.Error("loop iteration failed", "loop", name, "error", err)
		}
		select {
		case <-ctx.Done():
			log.Info("loop stopped", "loop", name)
			return
		case <-ticker.C:
		}
	}
}

func runOnce(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return fn(ctx)
}

// Messenger delivers scheduler notifications to end users.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, replyMarkup any) error
	SendPhoto(ctx context.Context, chatID int64, photo, caption string, replyMarkup any) error
}

// ChannelMembership removes expired members from the gated channel.
type ChannelMembership interface {
	RemoveMember(ctx context.Context, chatID, userID int64) error
}
