package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/nao1215/quizsolve/internal/model"
)

var (
	// ErrEmptyReply is returned when a model answers without any text.
	ErrEmptyReply = errors.New("model returned no text")

	// ErrInvalidReply is returned when a reply does not name one of the
	// question's answer positions.
	ErrInvalidReply = errors.New("invalid model reply")

	// ErrNoAPIKey is returned by constructors given an empty key.
	ErrNoAPIKey = errors.New("API key is empty")
)

// Client completes a single prompt.
type Client interface {
	// Name identifies the backend in logs and error messages.
	Name() string

	// Complete sends the prompts and returns the reply text.
	Complete(ctx context.Context, system, user string) (string, error)
}

// SystemPrompt instructs the model to reply with a position number only.
const SystemPrompt = `You are a professional test-solving assistant. Your task:
1. Read the question carefully and analyze it.
2. Evaluate every answer option.
3. Choose the most correct answer.
4. Reply with the option number only.
5. Do not write any other text.

If the question is mathematical, calculate.
If the question is logical, reason about it.
If the question tests knowledge, choose the most accurate option.`

// UserPrompt renders q with its options labelled by position.
func UserPrompt(q model.Question) string {
	var b strings.Builder
	b.WriteString("Choose the most correct answer to the following question.\n\n")
	fmt.Fprintf(&b, "QUESTION: %s\n\nOPTIONS:\n", q.Question)
	for _, a := range q.Answers {
		fmt.Fprintf(&b, "Option %s: %s\n", a.Position, a.Text)
	}
	b.WriteString("\nCORRECT OPTION NUMBER:")
	return b.String()
}

var firstInteger = regexp.MustCompile(`\d+`)

// ParseAnswer returns the first integer in reply if it is one of q's answer
// positions.
func ParseAnswer(reply string, q model.Question) (string, error) {
	answer := firstInteger.FindString(reply)
	if answer == "" {
		return "", fmt.Errorf("%w: no number in %q", ErrInvalidReply, truncate(reply, 40))
	}
	if !q.HasPosition(answer) {
		return "", fmt.Errorf("%w: %s is not an option", ErrInvalidReply, answer)
	}
	return answer, nil
}

// Ask sends q to c and parses the reply.
func Ask(ctx context.Context, c Client, q model.Question) (string, error) {
	reply, err := c.Complete(ctx, SystemPrompt, UserPrompt(q))
	if err != nil {
		return "", err
	}
	return ParseAnswer(reply, q)
}

// Func adapts a function to Client.
type Func struct {
	ID string
	Fn func(ctx context.Context, system, user string) (string, error)
}

// Name returns f.ID.
func (f Func) Name() string { return f.ID }

// Complete calls f.Fn.
func (f Func) Complete(ctx context.Context, system, user string) (string, error) {
	return f.Fn(ctx, system, user)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
