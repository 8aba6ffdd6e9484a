package bot

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies command failures. The set is closed: handlers switch
// over every kind, so adding one means updating each switch.
type ErrorKind int

const (
	// KindInternal is any failure not covered by a more specific kind.
	KindInternal ErrorKind = iota
	// KindCommandNotFound means the message named no registered command.
	KindCommandNotFound
	// KindMissingArgument means a required argument was not supplied.
	KindMissingArgument
	// KindTooManyArguments means more arguments were supplied than accepted.
	KindTooManyArguments
	// KindBadArgument means an argument could not be converted.
	KindBadArgument
	// KindArgumentParsing means the argument string itself was malformed.
	KindArgumentParsing
	// KindCheckFailure means a command check rejected the invocation.
	KindCheckFailure
	// KindBotMissingPermissions means the bot lacks permissions or roles.
	KindBotMissingPermissions
	// KindNoPrivateMessage means the command cannot run in direct messages.
	KindNoPrivateMessage
	// KindCooldown means the command is rate limited for this author.
	KindCooldown
)

func (k ErrorKind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindCommandNotFound:
		return "command_not_found"
	case KindMissingArgument:
		return "missing_argument"
	case KindTooManyArguments:
		return "too_many_arguments"
	case KindBadArgument:
		return "bad_argument"
	case KindArgumentParsing:
		return "argument_parsing"
	case KindCheckFailure:
		return "check_failure"
	case KindBotMissingPermissions:
		return "bot_missing_permissions"
	case KindNoPrivateMessage:
		return "no_private_message"
	case KindCooldown:
		return "cooldown"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// CommandError is the error passed to the command error handler.
type CommandError struct {
	Kind    ErrorKind
	Command string
	// Param names the offending parameter for KindMissingArgument.
	Param string
	// RetryAfter is set for KindCooldown.
	RetryAfter time.Duration
	err        error
}

// NewCommandError creates a CommandError of the given kind wrapping err.
func NewCommandError(kind ErrorKind, command string, err error) *CommandError {
	return &CommandError{Kind: kind, Command: command, err: err}
}

// Error returns the formatted error message for CommandError.
func (e *CommandError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("command %q: %s", e.Command, e.Kind)
	}
	return fmt.Sprintf("command %q: %s: %v", e.Command, e.Kind, e.err)
}

// Unwrap returns the underlying error for CommandError.
func (e *CommandError) Unwrap() error {
	return e.err
}

// KindOf returns the kind of the first CommandError in err's chain,
// or KindInternal when there is none.
func KindOf(err error) ErrorKind {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Kind
	}
	return KindInternal
}
