// Package bot is the command framework boundary: it parses prefixed messages,
// dispatches them to registered commands and routes failures to one handler.
package bot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/platforma-dev/yatb/log"
)

// ErrCommandExists is returned when a command name is registered twice.
var ErrCommandExists = errors.New("command already registered")

// Message is an incoming or sent chat message.
type Message struct {
	ID        string
	ChannelID string
	// GuildID is empty for direct messages.
	GuildID   string
	Author    string
	Content   string
	CreatedAt time.Time
}

// Sender is the chat transport used to answer commands.
type Sender interface {
	Send(ctx context.Context, channelID, content string) (Message, error)
	Edit(ctx context.Context, msg Message, content string) (Message, error)
	Delete(ctx context.Context, msg Message) error
	// Latency is the last measured round trip of the transport connection.
	Latency() time.Duration
}

// Handler runs a command.
type Handler func(ctx context.Context, c *Context) error

// Check decides whether a command may run for an invocation.
type Check func(ctx context.Context, c *Context) error

// Command describes a registered bot command.
type Command struct {
	Name   string
	Help   string
	Params []string
	// Optional is the number of trailing Params that may be omitted.
	Optional int
	// Rest lets the last parameter swallow all remaining words.
	Rest     bool
	Checks   []Check
	Cooldown time.Duration
	Handler  Handler
}

// Usage renders the invocation syntax for the command.
func (c *Command) Usage(prefix string) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(c.Name)
	for i, p := range c.Params {
		if i >= len(c.Params)-c.Optional {
			fmt.Fprintf(&b, " [%s]", p)
		} else {
			fmt.Fprintf(&b, " <%s>", p)
		}
	}
	return b.String()
}

// ErrorHandler receives every failed invocation.
type ErrorHandler func(ctx context.Context, c *Context, err error)

// Bot dispatches messages to commands. It is safe for concurrent use.
type Bot struct {
	prefix string
	sender Sender

	mu        sync.RWMutex
	commands  map[string]*Command
	onError   ErrorHandler
	cooldowns map[string]time.Time
	now       func() time.Time
}

// New creates a Bot answering messages that start with prefix.
func New(prefix string, sender Sender) *Bot {
	return &Bot{
		prefix:    prefix,
		sender:    sender,
		commands:  make(map[string]*Command),
		cooldowns: make(map[string]time.Time),
		now:       time.Now,
	}
}

// Prefix returns the command prefix.
func (b *Bot) Prefix() string {
	return b.prefix
}

// Sender returns the chat transport.
func (b *Bot) Sender() Sender {
	return b.sender
}

// AddCommand registers cmd under its name.
func (b *Bot) AddCommand(cmd *Command) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.commands[cmd.Name]; ok {
		return fmt.Errorf("%w: %s", ErrCommandExists, cmd.Name)
	}
	b.commands[cmd.Name] = cmd
	return nil
}

// Command returns the command registered under name.
func (b *Bot) Command(name string) (*Command, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	cmd, ok := b.commands[name]
	return cmd, ok
}

// Commands returns registered command names in alphabetical order.
func (b *Bot) Commands() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.commands))
	for name := range b.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SetErrorHandler replaces the command error handler.
func (b *Bot) SetErrorHandler(h ErrorHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.onError = h
}

// Handle processes one incoming message. Messages without the prefix are ignored.
// The returned error is the one passed to the error handler, if any.
func (b *Bot) Handle(ctx context.Context, msg Message) error {
	if !strings.HasPrefix(msg.Content, b.prefix) {
		return nil
	}

	ctx = log.WithAuthor(ctx, msg.Author)
	c := &Context{Bot: b, Message: msg}

	err := b.invoke(ctx, c)
	if err == nil {
		return nil
	}

	if c.Command != nil {
		ctx = log.WithCommand(ctx, c.Command.Name)
	}

	b.mu.RLock()
	onError := b.onError
	b.mu.RUnlock()

	if onError != nil {
		onError(ctx, c, err)
	} else {
		log.WarnContext(ctx, "unhandled command error", "kind", KindOf(err).String(), "error", err)
	}

	return err
}

func (b *Bot) invoke(ctx context.Context, c *Context) error {
	words := strings.Fields(strings.TrimPrefix(c.Message.Content, b.prefix))
	if len(words) == 0 {
		return NewCommandError(KindCommandNotFound, "", nil)
	}

	cmd, ok := b.Command(words[0])
	if !ok {
		return NewCommandError(KindCommandNotFound, words[0], nil)
	}
	c.Command = cmd

	args, err := bindArgs(cmd, words[1:])
	if err != nil {
		return err
	}
	c.Args = args

	for _, check := range cmd.Checks {
		if err := check(ctx, c); err != nil {
			if KindOf(err) == KindInternal {
				return NewCommandError(KindCheckFailure, cmd.Name, err)
			}
			return err
		}
	}

	if err := b.takeCooldown(cmd, c.Message.Author); err != nil {
		return err
	}

	if err := runHandler(ctx, cmd, c); err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			return err
		}
		return NewCommandError(KindInternal, cmd.Name, err)
	}

	return nil
}

func runHandler(ctx context.Context, cmd *Command, c *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("command panicked: %v", r)
		}
	}()

	return cmd.Handler(ctx, c)
}

func bindArgs(cmd *Command, words []string) ([]string, error) {
	required := len(cmd.Params) - cmd.Optional
	if len(words) < required {
		cmdErr := NewCommandError(KindMissingArgument, cmd.Name, nil)
		cmdErr.Param = cmd.Params[len(words)]
		return nil, cmdErr
	}

	if len(words) > len(cmd.Params) {
		if !cmd.Rest || len(cmd.Params) == 0 {
			return nil, NewCommandError(KindTooManyArguments, cmd.Name,
				fmt.Errorf("expected at most %d arguments, got %d", len(cmd.Params), len(words)))
		}
		last := len(cmd.Params) - 1
		joined := append(slices.Clone(words[:last]), strings.Join(words[last:], " "))
		return joined, nil
	}

	return words, nil
}

func (b *Bot) takeCooldown(cmd *Command, author string) error {
	if cmd.Cooldown <= 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := cmd.Name + "\x00" + author
	now := b.now()
	if until, ok := b.cooldowns[key]; ok && now.Before(until) {
		cmdErr := NewCommandError(KindCooldown, cmd.Name, nil)
		cmdErr.RetryAfter = until.Sub(now)
		return cmdErr
	}

	b.cooldowns[key] = now.Add(cmd.Cooldown)
	return nil
}
