package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/orderdesk/internal/money"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "10", want: "$10.00"},
		{in: "12.995", want: "$13.00"},
		{in: "0.5", want: "$0.50"},
		{in: "1234.5", want: "$1,234.50"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, money.Format(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestPlain(t *testing.T) {
	assert.Equal(t, "10.00", money.Plain(decimal.NewFromInt(10)))
	assert.Equal(t, "0.10", money.Plain(decimal.RequireFromString("0.1")))
}
