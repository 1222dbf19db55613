package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/amplify-rest-cli/internal/adapters/rest"
)

type (
	callRetryMsg struct {
		attempt int
		max     int
	}
	callFinishedMsg struct {
		err error
	}
)

// callProgress renders "<spinner> METHOD PATH" while a REST call is in flight and
// appends the retry counter once the client starts retrying.
type callProgress struct {
	spinner    spinner.Model
	retryStyle lipgloss.Style
	request    string
	send       tea.Cmd
	attempt    int
	maxRetries int
	finished   bool
	err        error
}

func newCallProgress(request string, send tea.Cmd) callProgress {
	return callProgress{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("39"))),
		),
		retryStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		request:    request,
		send:       send,
	}
}

func (m callProgress) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.send)
}

func (m callProgress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case callRetryMsg:
		m.attempt, m.maxRetries = msg.attempt, msg.max
		return m, nil
	case callFinishedMsg:
		m.finished, m.err = true, msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m callProgress) View() string {
	if m.finished {
		return ""
	}
	line := m.spinner.View() + " " + m.request
	if m.attempt > 0 {
		line += " " + m.retryStyle.Render(fmt.Sprintf("(retry %d/%d)", m.attempt, m.maxRetries))
	}
	return line
}

// runCallSpinner runs call under a progress line on output. Retries reported by the
// REST client through the call's context show up next to the request.
func runCallSpinner(ctx context.Context, output io.Writer, request string, call func(context.Context) error) error {
	var program *tea.Program

	callCtx := rest.WithRetryObserver(ctx, func(attempt, max int) {
		program.Send(callRetryMsg{attempt: attempt, max: max})
	})
	send := func() tea.Msg {
		return callFinishedMsg{err: call(callCtx)}
	}

	program = tea.NewProgram(
		newCallProgress(request, send),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	final, err := program.Run()
	if err != nil {
		return err
	}

	progress, ok := final.(callProgress)
	if !ok {
		return fmt.Errorf("unexpected final progress model %T", final)
	}
	return progress.err
}
