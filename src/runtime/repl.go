package runtime

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
)

// REPL will start an interactive repl running call statements against the module.
func (m *Module) REPL() error {
	rl, err := readline.New("> ")
	if err != nil {
		return err
	}
	defer func() { _ = rl.Close() }()
	return m.repl(rl, os.Stderr)
}

type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

func (m *Module) repl(rl lineReader, out io.Writer) error {
	var buf strings.Builder
	for {
		src, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if buf.Len() > 0 {
					rl.SetPrompt("> ")
					buf.Reset()
					fmt.Fprint(out, "Press ctrl-c again to quit.\n")
					continue
				}
				break
			} else if errors.Is(err, io.EOF) {
				break
			}
			fmt.Fprintln(out, err)
			continue
		}

		buf.WriteString(src + " ")
		if strings.TrimSpace(buf.String()) == "" {
			buf.Reset()
			continue
		}

		res, err := m.Exec(buf.String())
		if errors.Is(err, io.ErrUnexpectedEOF) {
			rl.SetPrompt("...> ")
			continue
		}
		rl.SetPrompt("> ")
		buf.Reset()
		if err != nil {
			fmt.Fprintln(out, err)
		} else if err := printResults(out, res); err != nil {
			return err
		}
	}
	return nil
}
