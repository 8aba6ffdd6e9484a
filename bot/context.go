package bot

import (
	"context"
	"fmt"
)

// Context carries one command invocation.
type Context struct {
	Bot     *Bot
	Message Message
	// Command is nil when no command matched.
	Command *Command
	Args    []string
}

// Arg returns the i-th bound argument, or "" when it was omitted.
func (c *Context) Arg(i int) string {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return ""
}

// Send posts content to the invoking channel.
func (c *Context) Send(ctx context.Context, content string) (Message, error) {
	msg, err := c.Bot.sender.Send(ctx, c.Message.ChannelID, content)
	if err != nil {
		return Message{}, fmt.Errorf("failed to send message: %w", err)
	}
	return msg, nil
}

// Reply posts content addressed to the invoking author.
func (c *Context) Reply(ctx context.Context, content string) (Message, error) {
	return c.Send(ctx, fmt.Sprintf("@%s %s", c.Message.Author, content))
}

// GuildOnly rejects invocations from direct messages.
func GuildOnly() Check {
	return func(_ context.Context, c *Context) error {
		if c.Message.GuildID == "" {
			return NewCommandError(KindNoPrivateMessage, c.Command.Name, nil)
		}
		return nil
	}
}
