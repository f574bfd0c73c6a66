package settings_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/orderdesk/internal/settings"
)

func TestRender(t *testing.T) {
	got := settings.Render(
		"Order {{orderId}}, Invoice {{invoiceId}}. Total: {{total}}. {{unknown}}",
		map[string]string{"orderId": "ORD-1000", "invoiceId": "INV-1000", "total": "$10.00"},
	)

	assert.Equal(t, "Order ORD-1000, Invoice INV-1000. Total: $10.00. {{unknown}}", got)
}

func TestSettings_TemplateFallback(t *testing.T) {
	s := settings.Defaults()
	s.Templates[settings.TemplateInvoiceSMS] = "  "
	delete(s.Templates, settings.TemplateReceiptSMS)

	assert.Contains(t, s.Template(settings.TemplateInvoiceSMS), "{{invoiceId}}")
	assert.Contains(t, s.Template(settings.TemplateReceiptSMS), "Payment received")
	assert.True(t, settings.IsTemplate(settings.TemplateStatusPrepared))
	assert.False(t, settings.IsTemplate("statusUnknown"))
}

func TestService_GetSettings(t *testing.T) {
	t.Run("DefaultsWhenNothingSaved", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := settings.NewMockRepository(ctrl)
		repo.EXPECT().GetSettings(gomock.Any()).Return(nil, settings.ErrNotFound)

		got, err := settings.NewService(repo).GetSettings(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Home Made Foods", got.BusinessName)
		assert.False(t, got.TaxEnabled)
		assert.True(t, decimal.RequireFromString("8.5").Equal(got.TaxPercent))
	})

	t.Run("StoreError", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := settings.NewMockRepository(ctrl)
		repo.EXPECT().GetSettings(gomock.Any()).Return(nil, errors.New("db down"))

		_, err := settings.NewService(repo).GetSettings(context.Background())
		assert.Error(t, err)
	})
}

func TestService_Update(t *testing.T) {
	type testCase struct {
		name    string
		mutate  func(s *settings.Settings)
		wantErr bool
	}

	tests := []testCase{
		{name: "Valid", mutate: func(s *settings.Settings) { s.TaxEnabled = true }},
		{name: "BlankName", mutate: func(s *settings.Settings) { s.BusinessName = " " }, wantErr: true},
		{name: "TaxOver100", mutate: func(s *settings.Settings) { s.TaxPercent = decimal.NewFromInt(101) }, wantErr: true},
		{name: "NegativeFee", mutate: func(s *settings.Settings) { s.FeeValue = decimal.NewFromInt(-1) }, wantErr: true},
		{name: "UnknownTemplate", mutate: func(s *settings.Settings) { s.Templates["promo"] = "hi" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := settings.NewMockRepository(ctrl)
			if !tt.wantErr {
				repo.EXPECT().SaveSettings(gomock.Any(), gomock.Any()).Return(nil)
			}

			next := settings.Defaults()
			tt.mutate(&next)

			_, err := settings.NewService(repo).Update(context.Background(), next)
			if tt.wantErr {
				assert.ErrorIs(t, err, settings.ErrInvalid)
				return
			}

			assert.NoError(t, err)
		})
	}
}
