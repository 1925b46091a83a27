// Copyright 2025 Arion Yau
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package prompt asks the operator questions on a line-oriented terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ErrNoInput is returned when input ends before an answer was given
var ErrNoInput = errors.New("no input from operator")

var (
	questionStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7D56F4")).
		Bold(true)

	hintStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6272A4"))
)

// Prompter asks the operator for confirmation and free-form answers
type Prompter interface {
	Confirm(question string) (bool, error)
	Ask(question string) (string, error)
}

// Terminal is a Prompter reading answers line by line
type Terminal struct {
	in     *bufio.Reader
	out    io.Writer
	styled bool
}

// NewTerminal creates a prompter. Output is styled only when both ends are
// attached to a terminal.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:     bufio.NewReader(in),
		out:    out,
		styled: isTerminal(in) && isTerminal(out),
	}
}

// Confirm asks a yes/no question. Only "y" or "yes" count as agreement.
func (t *Terminal) Confirm(question string) (bool, error) {
	answer, err := t.ask(question, "y/n")
	if err != nil {
		return false, err
	}

	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Ask asks for a single line of input, trimmed of surrounding spaces
func (t *Terminal) Ask(question string) (string, error) {
	return t.ask(question, "")
}

func (t *Terminal) ask(question, hint string) (string, error) {
	text := question
	if t.styled {
		text = questionStyle.Render(question)
	}
	if hint != "" {
		if t.styled {
			text += " " + hintStyle.Render(hint)
		} else {
			text += " " + hint
		}
	}

	if _, err := fmt.Fprint(t.out, text+": "); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	line, err := t.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
