package view

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/MrJamesThe3rd/orderdesk/internal/order"
)

type CommonModel struct {
	Width  int
	Height int
	// Actor is the signed-in staff member every ledger operation is recorded against.
	Actor order.Actor
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}
