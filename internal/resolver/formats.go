package resolver

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/tanq16/gdfetch/internal/utils"
)

// FormatResolver picks the export format for a document kind. It is only
// ever called from the single-threaded resolution phase.
type FormatResolver interface {
	ChooseFormat(kind utils.LinkKind, set utils.FormatSet) (string, error)
}

type FormatResolverFunc func(kind utils.LinkKind, set utils.FormatSet) (string, error)

func (f FormatResolverFunc) ChooseFormat(kind utils.LinkKind, set utils.FormatSet) (string, error) {
	return f(kind, set)
}

// DefaultFormats always answers with the kind's configured default.
var DefaultFormats = FormatResolverFunc(func(_ utils.LinkKind, set utils.FormatSet) (string, error) {
	return set.Default, nil
})

// StaticFormats answers from fixed per-kind choices and defers to Fallback
// for kinds it has no choice for.
type StaticFormats struct {
	Choices  map[utils.LinkKind]string
	Fallback FormatResolver
}

func (s StaticFormats) ChooseFormat(kind utils.LinkKind, set utils.FormatSet) (string, error) {
	if choice, ok := s.Choices[kind]; ok {
		return choice, nil
	}
	if s.Fallback != nil {
		return s.Fallback.ChooseFormat(kind, set)
	}
	return set.Default, nil
}

const promptAttempts = 3

var (
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	choiceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// Prompt asks the operator on Out and reads answers from In. An empty answer
// or end of input selects the default.
type Prompt struct {
	In  *bufio.Reader
	Out io.Writer
}

func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{In: bufio.NewReader(in), Out: out}
}

// StdinIsTerminal reports whether prompting on stdin can reach a person.
func StdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func (p *Prompt) ChooseFormat(kind utils.LinkKind, set utils.FormatSet) (string, error) {
	for attempt := 0; attempt < promptAttempts; attempt++ {
		fmt.Fprintf(p.Out, "%s %s [%s]: ",
			promptStyle.Render(fmt.Sprintf("Export format for %s", kind.Label())),
			choiceStyle.Render("("+strings.Join(set.Valid, ", ")+")"),
			set.Default,
		)
		line, err := p.In.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading answer: %w", err)
		}
		if answer == "" {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(p.Out)
			}
			return set.Default, nil
		}
		if set.Contains(answer) {
			return answer, nil
		}
		fmt.Fprintln(p.Out, warningStyle.Render(fmt.Sprintf("%q is not one of %s", answer, strings.Join(set.Valid, ", "))))
		if errors.Is(err, io.EOF) {
			break
		}
	}
	return set.Default, nil
}
