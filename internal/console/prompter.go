// Package console adapts the interaction controller to a terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/artconnect/artconnect/internal/interaction"
)

// Prompter reads answers line by line. End of input dismisses the prompt.
type Prompter struct {
	in  io.Reader
	out io.Writer

	once  sync.Once
	lines chan string
	mu    sync.Mutex
}

// NewPrompter returns a Prompter reading from in and printing labels to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out, lines: make(chan string)}
}

// Prompt prints label and waits for one line of input or for ctx to end.
func (p *Prompter) Prompt(ctx context.Context, label string) (string, error) {
	p.once.Do(p.start)

	p.mu.Lock()
	fmt.Fprintf(p.out, "%s ", label)
	p.mu.Unlock()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-p.lines:
		if !ok {
			return "", interaction.ErrPromptCancelled
		}
		return line, nil
	}
}

// start feeds input lines to waiting prompts. The reader goroutine lives until in is exhausted.
func (p *Prompter) start() {
	go func() {
		defer close(p.lines)
		scanner := bufio.NewScanner(p.in)
		for scanner.Scan() {
			p.lines <- scanner.Text()
		}
	}()
}

var _ interaction.Prompter = (*Prompter)(nil)
