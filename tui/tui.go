// Package tui implements the login prompt shown by the client's -login flag.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrCancelled is returned when the user quits the prompt.
var ErrCancelled = errors.New("login cancelled")

// Login asks for a username and returns it.
func Login() (string, error) {
	p := tea.NewProgram(initialModel())
	final, err := p.StartReturningModel()
	if err != nil {
		return "", err
	}

	m := final.(model)
	if m.Quitting {
		return "", ErrCancelled
	}
	return m.Username(), nil
}

type model struct {
	textInput textinput.Model
	Quitting  bool
	LoggedIn  bool
}

func initialModel() model {
	ti := textinput.New()
	ti.Placeholder = "Username"
	ti.Focus()
	ti.CharLimit = 156
	ti.Width = 20

	return model{textInput: ti}
}

// Username returns the trimmed input.
func (m model) Username() string {
	return strings.TrimSpace(m.textInput.Value())
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.Quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			// An empty name is not accepted.
			if m.Username() == "" {
				return m, nil
			}
			m.LoggedIn = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.Quitting {
		return "\n  See you later!\n\n"
	}
	if m.LoggedIn {
		return fmt.Sprintf("\n  Welcome, %s!\n\n", m.Username())
	}
	return fmt.Sprintf(
		"Enter username:\n\n%s\n\n%s",
		m.textInput.View(),
		"(esc to quit)",
	) + "\n"
}
