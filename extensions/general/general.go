// Package general provides the general bot commands.
package general

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/platforma-dev/yatb/bot"
	"github.com/platforma-dev/yatb/extension"
)

// Name is the registry name of the extension.
const Name = "general"

// New returns the general extension.
func New() extension.Extension {
	return extension.Func(setup)
}

func setup(_ context.Context, b *bot.Bot) error {
	return b.AddCommand(&bot.Command{
		Name:     "ping",
		Help:     "Get the bot's API ping and websocket latency.",
		Cooldown: 3 * time.Second,
		Handler:  ping,
	})
}

func timed[T any](fn func() (T, error)) (T, time.Duration, error) {
	start := time.Now()
	res, err := fn()
	return res, time.Since(start), err
}

func ping(ctx context.Context, c *bot.Context) error {
	sender := c.Bot.Sender()

	sent, sendTime, err := timed(func() (bot.Message, error) {
		return c.Send(ctx, "Testing ping...")
	})
	if err != nil {
		return err
	}

	edited, editTime, err := timed(func() (bot.Message, error) {
		return sender.Edit(ctx, sent, "Edit test.")
	})
	if err != nil {
		return fmt.Errorf("failed to edit ping message: %w", err)
	}

	_, deleteTime, err := timed(func() (struct{}, error) {
		return struct{}{}, sender.Delete(ctx, edited)
	})
	if err != nil {
		return fmt.Errorf("failed to delete ping message: %w", err)
	}

	var b strings.Builder
	b.WriteString("Bot Ping\n")
	fmt.Fprintf(&b, "API Send: %s\n", millis(sendTime))
	fmt.Fprintf(&b, "API Edit: %s\n", millis(editTime))
	fmt.Fprintf(&b, "API Delete: %s\n", millis(deleteTime))
	fmt.Fprintf(&b, "WS Latency: %s", millis(sender.Latency()))

	_, err = c.Reply(ctx, b.String())
	return err
}

func millis(d time.Duration) string {
	return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000)
}
