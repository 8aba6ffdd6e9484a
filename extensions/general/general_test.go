package general_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/platforma-dev/yatb/bot"
	"github.com/platforma-dev/yatb/extensions/general"
)

func TestPing(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	b := bot.New("!", bot.NewConsole(strings.NewReader(""), &out, "tester"))

	if err := general.New().Setup(context.Background(), b); err != nil {
		t.Fatalf("failed to set up extension: %v", err)
	}

	err := b.Handle(context.Background(), bot.Message{ChannelID: "general", GuildID: "guild", Author: "tester", Content: "!ping"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := out.String()
	for _, expected := range []string{"Testing ping...", "edited] Edit test.", "deleted]", "Bot Ping", "API Send: ", "API Edit: ", "API Delete: ", "WS Latency: 0.00ms"} {
		if !strings.Contains(output, expected) {
			t.Errorf("expected %q in output, got: %s", expected, output)
		}
	}
}

func TestPingCooldown(t *testing.T) {
	t.Parallel()

	b := bot.New("!", bot.NewConsole(strings.NewReader(""), &bytes.Buffer{}, "tester"))
	_ = general.New().Setup(context.Background(), b)

	msg := bot.Message{ChannelID: "general", GuildID: "guild", Author: "tester", Content: "!ping"}
	_ = b.Handle(context.Background(), msg)

	if got := bot.KindOf(b.Handle(context.Background(), msg)); got != bot.KindCooldown {
		t.Errorf("expected cooldown on immediate second ping, got %s", got)
	}
}
