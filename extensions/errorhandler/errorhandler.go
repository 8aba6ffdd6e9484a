// Package errorhandler turns command failures into replies.
package errorhandler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/platforma-dev/yatb/bot"
	"github.com/platforma-dev/yatb/extension"
	"github.com/platforma-dev/yatb/log"
)

// Name is the registry name of the extension.
const Name = "errorhandler"

// New returns the error handler extension.
func New() extension.Extension {
	return extension.Func(func(_ context.Context, b *bot.Bot) error {
		b.SetErrorHandler(Handle)
		return nil
	})
}

// Handle replies to the invoking channel according to the error kind.
// Unknown commands are only logged.
func Handle(ctx context.Context, c *bot.Context, err error) {
	kind := bot.KindOf(err)

	var cmdErr *bot.CommandError
	errors.As(err, &cmdErr)

	var reply string
	withUsage := false

	switch kind {
	case bot.KindCommandNotFound:
		log.WarnContext(ctx, "command not found", "content", c.Message.Content)
		return
	case bot.KindMissingArgument:
		reply = "Missing required argument: " + cmdErr.Param
		withUsage = true
	case bot.KindTooManyArguments:
		reply = "Too many arguments: " + causeOf(cmdErr)
		withUsage = true
	case bot.KindBadArgument:
		reply = "Bad argument: " + causeOf(cmdErr)
		withUsage = true
	case bot.KindArgumentParsing:
		reply = "Argument parsing error: " + causeOf(cmdErr)
	case bot.KindCheckFailure:
		reply = "You can't use this command here."
	case bot.KindBotMissingPermissions:
		reply = "Sorry, it looks like I don't have the permissions or roles I need to do that."
	case bot.KindNoPrivateMessage:
		reply = "This command can't be used in private messages."
	case bot.KindCooldown:
		reply = fmt.Sprintf("This command is on cooldown. Try again in %.2fs", cmdErr.RetryAfter.Round(10*time.Millisecond).Seconds())
	case bot.KindInternal:
		reply = "Unexpected internal error: " + err.Error()
	default:
		reply = "Unexpected internal error: " + err.Error()
	}

	if withUsage && c.Command != nil {
		reply += "\nUsage: " + c.Command.Usage(c.Bot.Prefix())
	}

	if _, sendErr := c.Send(ctx, reply); sendErr != nil {
		log.ErrorContext(ctx, "failed to send error reply", "error", sendErr)
	}

	log.WarnContext(ctx, "error in command", "kind", kind.String(), "author", c.Message.Author, "error", err)
}

func causeOf(cmdErr *bot.CommandError) string {
	if cause := cmdErr.Unwrap(); cause != nil {
		return cause.Error()
	}
	return cmdErr.Kind.String()
}
