package view

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/orderdesk/internal/user"
)

// LoggedInMsg carries the authenticated staff member.
type LoggedInMsg struct {
	User *user.User
}

type LoginModel struct {
	CommonModel
	users *user.Service

	form  *huh.Form
	creds *credentials
	busy  bool
	err   error
}

type credentials struct {
	username string
	password string
}

func NewLoginModel(svc *user.Service) LoginModel {
	m := LoginModel{users: svc, creds: &credentials{}}
	m.form = m.buildForm()

	return m
}

func (m LoginModel) buildForm() *huh.Form {
	m.creds.password = ""

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Username").Value(&m.creds.username),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&m.creds.password),
		),
	).WithWidth(40).WithShowHelp(false)
}

func (m LoginModel) Title() string { return "Sign In" }

func (m LoginModel) ShortHelp() string { return "Enter: next | Ctrl+C: quit" }

func (m LoginModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if res, ok := msg.(loginResultMsg); ok {
		m.busy = false

		if res.err != nil {
			m.err = res.err
			m.form = m.buildForm()

			return m, m.form.Init()
		}

		return m, func() tea.Msg { return LoggedInMsg{User: res.user} }
	}

	if m.busy {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.busy = true
	m.err = nil

	return m, m.loginCmd(m.creds.username, m.creds.password)
}

func (m LoginModel) View() string {
	body := m.form.View()

	switch {
	case m.busy:
		body = "Signing in..."
	case errors.Is(m.err, user.ErrInvalidCredentials):
		body = errorStyle("Invalid username or password.") + "\n\n" + body
	case m.err != nil:
		body = errorStyle(fmt.Sprintf("Error: %v", m.err)) + "\n\n" + body
	}

	return lipgloss.NewStyle().Padding(2).Render(body)
}

type loginResultMsg struct {
	user *user.User
	err  error
}

func (m LoginModel) loginCmd(username, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		u, err := m.users.Login(ctx, username, password)

		return loginResultMsg{user: u, err: err}
	}
}
