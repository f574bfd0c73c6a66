package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/orderdesk/internal/catalog"
)

func TestService_Upsert(t *testing.T) {
	type testCase struct {
		name      string
		product   catalog.Product
		setupMock func(m *catalog.MockRepository)
		wantErr   error
	}

	valid := catalog.Product{
		Name:        "  Chicken Biryani ",
		Category:    catalog.CategoryHomemade,
		PricingType: catalog.PricingFixed,
		Price:       decimal.RequireFromString("12.99"),
		Active:      true,
	}

	tests := []testCase{
		{
			name:    "CreatesWhenNoID",
			product: valid,
			setupMock: func(m *catalog.MockRepository) {
				m.EXPECT().
					CreateProduct(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, p *catalog.Product) error {
						assert.Equal(t, "Chicken Biryani", p.Name)
						p.ID = uuid.New()
						return nil
					})
			},
		},
		{
			name: "UpdatesWhenIDSet",
			product: func() catalog.Product {
				p := valid
				p.ID = uuid.New()
				return p
			}(),
			setupMock: func(m *catalog.MockRepository) {
				m.EXPECT().UpdateProduct(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "MissingName",
			product: func() catalog.Product {
				p := valid
				p.Name = "  "
				return p
			}(),
			wantErr: catalog.ErrInvalid,
		},
		{
			name: "UnknownCategory",
			product: func() catalog.Product {
				p := valid
				p.Category = "Frozen"
				return p
			}(),
			wantErr: catalog.ErrInvalid,
		},
		{
			name: "NegativePrice",
			product: func() catalog.Product {
				p := valid
				p.Price = decimal.NewFromInt(-1)
				return p
			}(),
			wantErr: catalog.ErrInvalid,
		},
		{
			name: "RepoError",
			product: valid,
			setupMock: func(m *catalog.MockRepository) {
				m.EXPECT().CreateProduct(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
			},
			wantErr: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := catalog.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			p := tt.product
			err := catalog.NewService(repo).Upsert(context.Background(), &p)

			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)

			if errors.Is(tt.wantErr, catalog.ErrInvalid) {
				assert.ErrorIs(t, err, catalog.ErrInvalid)
			}
		})
	}
}

func TestService_ListActiveByCategory(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := catalog.NewMockRepository(ctrl)
	svc := catalog.NewService(repo)

	category := catalog.CategoryRawMeat
	repo.EXPECT().
		ListProducts(gomock.Any(), catalog.ListFilter{Category: &category, ActiveOnly: true}).
		Return([]*catalog.Product{{ID: uuid.New(), Category: catalog.CategoryRawMeat}}, nil)

	got, err := svc.ListActiveByCategory(context.Background(), catalog.CategoryRawMeat)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestService_LowStock(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := catalog.NewMockRepository(ctrl)
	svc := catalog.NewService(repo)

	repo.EXPECT().
		ListProducts(gomock.Any(), catalog.ListFilter{ActiveOnly: true}).
		Return([]*catalog.Product{
			{Name: "Samosa", StockQuantity: new(6), LowStockThreshold: new(10)},
			{Name: "Rice", StockQuantity: new(24), LowStockThreshold: new(6)},
			{Name: "Untracked"},
			{Name: "Olive Oil", StockQuantity: new(6), LowStockThreshold: new(6)},
		}, nil)

	got, err := svc.LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Samosa", got[0].Name)
	assert.Equal(t, "Olive Oil", got[1].Name)
}
