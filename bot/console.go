package bot

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/platforma-dev/yatb/log"
)

// Console is a line-based transport over a reader and a writer.
// Every input line is a message in a single channel; replies are written as lines.
type Console struct {
	in     io.Reader
	out    io.Writer
	author string

	mu     sync.Mutex
	nextID int
}

// NewConsole creates a Console reading messages from in and writing replies to out.
func NewConsole(in io.Reader, out io.Writer, author string) *Console {
	return &Console{in: in, out: out, author: author}
}

func (c *Console) message(content string) Message {
	c.nextID++
	return Message{
		ID:        strconv.Itoa(c.nextID),
		ChannelID: "console",
		GuildID:   "console",
		Author:    c.author,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// Send writes content as a new message.
func (c *Console) Send(_ context.Context, _ string, content string) (Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := c.message(content)
	if _, err := fmt.Fprintf(c.out, "[%s] %s\n", msg.ID, content); err != nil {
		return Message{}, fmt.Errorf("failed to write message: %w", err)
	}
	return msg, nil
}

// Edit writes the new content of an existing message.
func (c *Console) Edit(_ context.Context, msg Message, content string) (Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintf(c.out, "[%s edited] %s\n", msg.ID, content); err != nil {
		return Message{}, fmt.Errorf("failed to write message: %w", err)
	}
	msg.Content = content
	return msg, nil
}

// Delete writes a deletion marker for msg.
func (c *Console) Delete(_ context.Context, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintf(c.out, "[%s deleted]\n", msg.ID); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// Latency is always zero for the console.
func (c *Console) Latency() time.Duration {
	return 0
}

// Listen feeds every input line to b until the input ends or ctx is cancelled.
func (c *Console) Listen(ctx context.Context, b *Bot) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("console listener stopped: %w", ctx.Err())
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("failed to read console input: %w", err)
					}
				default:
				}
				log.InfoContext(ctx, "console input closed")
				return nil
			}

			c.mu.Lock()
			msg := c.message(line)
			c.mu.Unlock()

			_ = b.Handle(ctx, msg)
		}
	}
}
