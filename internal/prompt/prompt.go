package prompt

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cruciblehq/cruxrel/internal/errs"
)

var (
	questionStyle = lipgloss.NewStyle().Bold(true)
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	yesStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#2ECC71"))
	noStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C"))
)

// Yes/no question state.
type model struct {
	question    string
	answered    bool
	confirmed   bool
	interrupted bool
}

func newModel(question string) model {
	return model{question: question}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "y", "Y":
		m.answered, m.confirmed = true, true
	case "n", "N", "enter", "esc":
		m.answered = true
	case "ctrl+c":
		m.answered, m.interrupted = true, true
	default:
		return m, nil
	}
	return m, tea.Quit
}

// View implements tea.Model.
func (m model) View() string {
	q := questionStyle.Render(m.question)
	if !m.answered {
		return q + " " + hintStyle.Render("[y/N]") + " "
	}
	if m.confirmed {
		return q + " " + yesStyle.Render("yes") + "\n"
	}
	return q + " " + noStyle.Render("no") + "\n"
}

// Asks question on out and reads the answer from in.
//
// Returns true only when the operator typed "y". Ctrl+c fails with
// [ErrInterrupted]. Input ending before an answer counts as a decline.
func Confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	p := tea.NewProgram(newModel(question), tea.WithInput(in), tea.WithOutput(out))

	final, err := p.Run()
	if err != nil {
		return false, errs.Wrap(ErrPrompt, err)
	}

	m, _ := final.(model)
	if m.interrupted {
		return false, ErrInterrupted
	}
	return m.confirmed, nil
}
