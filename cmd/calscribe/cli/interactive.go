package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))

func newInteractiveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Prompt for requests one at a time and schedule each",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Init(); err != nil {
				return err
			}
			defer app.Close()
			return runInteractive(cmd, app)
		},
	}
}

func runInteractive(cmd *cobra.Command, app *App) error {
	for {
		query, err := promptForQuery("What would you like to schedule? (blank to quit)")
		if err != nil {
			return err
		}
		query = strings.TrimSpace(query)
		if query == "" {
			return nil
		}
		if err := runSchedule(cmd, app, query); err != nil {
			writeErr(cmd, "error: %v\n", err)
		}
	}
}

type promptModel struct {
	prompt string
	input  textinput.Model
}

func initialPromptModel(prompt string) promptModel {
	ti := textinput.New()
	ti.Placeholder = "e.g. plan my sister's birthday party by next Friday"
	ti.Focus()
	ti.CharLimit = 280
	ti.Width = 60

	return promptModel{prompt: prompt, input: ti}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter, tea.KeyCtrlC:
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	return fmt.Sprintf("%s\n\n%s\n", promptStyle.Render(m.prompt), m.input.View())
}

// promptForQuery runs a single-line bubbletea prompt and returns whatever
// the user typed before pressing enter or ctrl-c.
func promptForQuery(prompt string) (string, error) {
	m := initialPromptModel(prompt)
	finalModel, err := tea.NewProgram(m).Run()
	if err != nil {
		return "", err
	}
	return finalModel.(promptModel).input.Value(), nil
}
