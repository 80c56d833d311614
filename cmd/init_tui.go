package cmd

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type initModel struct {
	inputs   []textinput.Model
	focusIdx int
	canceled bool
	done     bool
}

func initialInitModel(assignmentArg string) initModel {
	cwd, _ := os.Getwd()
	defaultAssignment := filepath.Base(cwd)

	name := textinput.New()
	if assignmentArg != "" {
		name.Placeholder = assignmentArg
	} else {
		name.Placeholder = defaultAssignment
	}
	name.Focus()
	name.CharLimit = 64
	name.Width = 30

	templateRepo := textinput.New()
	templateRepo.Placeholder = "https://github.com/org/assignment-template.git"
	templateRepo.CharLimit = 200
	templateRepo.Width = 50

	firstTask := textinput.New()
	firstTask.Placeholder = "task01"
	firstTask.CharLimit = 64
	firstTask.Width = 30

	return initModel{
		inputs: []textinput.Model{name, templateRepo, firstTask},
	}
}

func (m initModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m initModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.canceled = true
			m.done = true
			return m, tea.Quit
		case "enter":
			m.done = true
			return m, tea.Quit
		case "tab", "shift+tab", "down", "up":
			if msg.String() == "up" || msg.String() == "shift+tab" {
				m.focusIdx--
			} else {
				m.focusIdx++
			}
			if m.focusIdx >= len(m.inputs) {
				m.focusIdx = 0
			} else if m.focusIdx < 0 {
				m.focusIdx = len(m.inputs) - 1
			}
			for i := range m.inputs {
				if i == m.focusIdx {
					m.inputs[i].Focus()
				} else {
					m.inputs[i].Blur()
				}
			}
			return m, nil
		}
	}

	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m initModel) View() string {
	s := "\n"
	labels := []string{"Assignment Name", "Template Repository (optional)", "First Task"}

	for i, input := range m.inputs {
		s += labels[i] + ": " + input.View() + "\n"
	}

	s += "\n[Enter] to continue • [Esc] to cancel\n"
	return s
}

func RunInitTUI(assignmentArg string) (assignmentName, templateRepo, firstTask string, canceled bool) {
	p := tea.NewProgram(initialInitModel(assignmentArg))
	m, err := p.Run()
	if err != nil {
		return "", "", "", true
	}

	final := m.(initModel)
	if final.canceled {
		return "", "", "", true
	}

	assignmentName = final.inputs[0].Value()
	if assignmentName == "" {
		if assignmentArg != "" {
			assignmentName = assignmentArg
		} else {
			assignmentName = "."
		}
	}

	templateRepo = final.inputs[1].Value()

	firstTask = final.inputs[2].Value()
	if firstTask == "" {
		firstTask = "task01"
	}

	return assignmentName, templateRepo, firstTask, false
}
