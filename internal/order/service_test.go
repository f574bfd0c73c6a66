package order_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/orderdesk/internal/catalog"
	"github.com/MrJamesThe3rd/orderdesk/internal/customer"
	"github.com/MrJamesThe3rd/orderdesk/internal/order"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type mocks struct {
	repo      *order.MockRepository
	uow       *order.MockUnitOfWork
	catalog   *order.MockCatalog
	customers *order.MockCustomers
	settings  *order.MockSettingsProvider
	publisher *order.MockPublisher
}

func newMocks(ctrl *gomock.Controller) *mocks {
	return &mocks{
		repo:      order.NewMockRepository(ctrl),
		uow:       order.NewMockUnitOfWork(ctrl),
		catalog:   order.NewMockCatalog(ctrl),
		customers: order.NewMockCustomers(ctrl),
		settings:  order.NewMockSettingsProvider(ctrl),
		publisher: order.NewMockPublisher(ctrl),
	}
}

func (m *mocks) service() *order.Service {
	return order.NewService(m.repo, m.catalog, m.customers, m.settings,
		order.WithPublisher(m.publisher),
		order.WithClock(func() time.Time { return fixedNow }),
	)
}

var staff = order.Actor{ID: uuid.New(), Name: "Maria"}

func TestService_CreateDraft(t *testing.T) {
	customerID := uuid.New()

	type testCase struct {
		name      string
		params    order.DraftParams
		actor     order.Actor
		setupMock func(m *mocks)
		wantErr   error
	}

	tests := []testCase{
		{
			name:   "Success",
			params: order.DraftParams{CustomerID: customerID, Items: []order.Item{fixedItem(2, "5.00")}},
			actor:  staff,
			setupMock: func(m *mocks) {
				m.settings.EXPECT().GetSettings(gomock.Any()).Return(plainSettings(), nil)
				m.customers.EXPECT().GetCustomer(gomock.Any(), customerID).Return(&customer.Customer{ID: customerID}, nil)
				m.repo.EXPECT().Begin(gomock.Any(), gomock.Any()).Return(m.uow, nil)
				m.uow.EXPECT().SaveOrder(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, o *order.Order) error {
						assert.Equal(t, 0, o.Version)
						o.Version++
						return nil
					})
				m.uow.EXPECT().Commit().Return(nil)
				m.uow.EXPECT().Rollback().Return(nil)
				m.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, ev order.Event) error {
						assert.Equal(t, string(order.OpCreateDraft), ev.Type)
						assert.Equal(t, order.StatusDraft, ev.Status)
						return nil
					})
			},
		},
		{
			name:    "EmptyCart",
			params:  order.DraftParams{CustomerID: customerID},
			actor:   staff,
			wantErr: order.ErrValidation,
			setupMock: func(m *mocks) {
				m.settings.EXPECT().GetSettings(gomock.Any()).Return(plainSettings(), nil)
				m.customers.EXPECT().GetCustomer(gomock.Any(), customerID).Return(&customer.Customer{ID: customerID}, nil)
			},
		},
		{
			name:    "MissingCustomer",
			params:  order.DraftParams{Items: []order.Item{fixedItem(1, "1")}},
			actor:   staff,
			wantErr: order.ErrValidation,
			setupMock: func(m *mocks) {
				m.settings.EXPECT().GetSettings(gomock.Any()).Return(plainSettings(), nil)
			},
		},
		{
			name:    "UnknownCustomer",
			params:  order.DraftParams{CustomerID: customerID, Items: []order.Item{fixedItem(1, "1")}},
			actor:   staff,
			wantErr: order.ErrNotFound,
			setupMock: func(m *mocks) {
				m.settings.EXPECT().GetSettings(gomock.Any()).Return(plainSettings(), nil)
				m.customers.EXPECT().GetCustomer(gomock.Any(), customerID).Return(nil, customer.ErrNotFound)
			},
		},
		{
			name:    "NoActor",
			params:  order.DraftParams{CustomerID: customerID, Items: []order.Item{fixedItem(1, "1")}},
			wantErr: order.ErrValidation,
		},
		{
			name:    "SaveFails",
			params:  order.DraftParams{CustomerID: customerID, Items: []order.Item{fixedItem(1, "1")}},
			actor:   staff,
			wantErr: order.ErrConcurrency,
			setupMock: func(m *mocks) {
				m.settings.EXPECT().GetSettings(gomock.Any()).Return(plainSettings(), nil)
				m.customers.EXPECT().GetCustomer(gomock.Any(), customerID).Return(&customer.Customer{ID: customerID}, nil)
				m.repo.EXPECT().Begin(gomock.Any(), gomock.Any()).Return(m.uow, nil)
				m.uow.EXPECT().SaveOrder(gomock.Any(), gomock.Any()).Return(order.ErrConcurrency)
				m.uow.EXPECT().Rollback().Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			m := newMocks(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(m)
			}

			got, err := m.service().CreateDraft(context.Background(), tt.params, tt.actor)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, order.StatusDraft, got.Status)
			assert.Nil(t, got.OrderNumber)
			assert.Nil(t, got.InvoiceNumber)
			assert.Equal(t, order.PaymentNone, got.PaymentStatus)
			assert.Equal(t, staff.ID, got.CreatedBy)
			assert.True(t, dec("10").Equal(got.Total))
			require.Len(t, got.Timeline, 1)
			assert.Equal(t, "Created Draft", got.Timeline[0].Action)
			assert.Equal(t, "Maria", got.Timeline[0].By)
			assert.Equal(t, fixedNow, got.Timeline[0].At)
		})
	}
}

func TestService_Accept_NewCart(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newMocks(ctrl)
	customerID := uuid.New()

	var appended []*order.Message

	m.settings.EXPECT().GetSettings(gomock.Any()).Return(plainSettings(), nil)
	m.customers.EXPECT().GetCustomer(gomock.Any(), customerID).Return(&customer.Customer{ID: customerID}, nil)
	m.repo.EXPECT().NextOrderNumber(gomock.Any()).Return("ORD-1000", nil)
	m.repo.EXPECT().NextInvoiceNumber(gomock.Any()).Return("INV-1000", nil)
	m.repo.EXPECT().Begin(gomock.Any(), gomock.Any()).Return(m.uow, nil)
	m.uow.EXPECT().SaveOrder(gomock.Any(), gomock.Any()).Return(nil)
	m.uow.EXPECT().AppendMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg *order.Message) error {
			appended = append(appended, msg)
			return nil
		}).Times(2)
	m.uow.EXPECT().Commit().Return(nil)
	m.uow.EXPECT().Rollback().Return(nil)
	m.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	got, err := m.service().Accept(context.Background(), order.AcceptParams{
		CustomerID: customerID,
		Items:      []order.Item{fixedItem(2, "5.00")},
		SendEmail:  true,
	}, staff)
	require.NoError(t, err, "publish failures must not fail the operation")

	assert.Equal(t, order.StatusAccepted, got.Status)
	assert.Equal(t, order.PaymentAwaiting, got.PaymentStatus)
	assert.Equal(t, "ORD-1000", got.Number())
	assert.Equal(t, "INV-1000", got.Invoice())
	require.Len(t, got.Timeline, 1)
	assert.Equal(t, map[string]string{"email": "Sent", "sms": "Skipped"}, got.Timeline[0].Data)

	require.Len(t, appended, 2)
	assert.Equal(t, order.ChannelEmail, appended[0].Channel)
	assert.Equal(t, order.MessageSent, appended[0].Status)
	assert.Contains(t, appended[0].Details, "ORD-1000")
	assert.Contains(t, appended[0].Details, "$10.00")
	assert.Equal(t, order.ChannelSMS, appended[1].Channel)
	assert.Equal(t, order.MessageSkipped, appended[1].Status)
	assert.Empty(t, appended[1].Details)
}

func TestService_AdvanceStatus_RejectedLeavesOrderUnsaved(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newMocks(ctrl)
	id := uuid.New()

	m.repo.EXPECT().Begin(gomock.Any(), id).Return(m.uow, nil)
	m.uow.EXPECT().GetOrder(gomock.Any(), id).Return(&order.Order{ID: id, Status: order.StatusDraft, Version: 1}, nil)
	m.uow.EXPECT().Rollback().Return(nil)

	_, err := m.service().AdvanceStatus(context.Background(), id, order.StatusPrepared, staff)

	var te *order.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, order.OpPrepare, te.Op)
	assert.Equal(t, order.StatusDraft, te.From)
}

func TestService_AdvanceStatus_UnknownTarget(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newMocks(ctrl)
	id := uuid.New()

	m.repo.EXPECT().GetOrder(gomock.Any(), id).Return(&order.Order{ID: id, Status: order.StatusAccepted}, nil)

	_, err := m.service().AdvanceStatus(context.Background(), id, order.StatusPaid, staff)
	assert.ErrorIs(t, err, order.ErrInvalidTransition)

	var te *order.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, order.OpAdvance, te.Op)
	assert.Equal(t, order.StatusPaid, te.To)
	assert.Contains(t, err.Error(), `"Paid"`)
}

func TestService_Cancel_BlankReason(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newMocks(ctrl)

	_, err := m.service().Cancel(context.Background(), uuid.New(), staff, "   ")
	assert.ErrorIs(t, err, order.ErrValidation)
}

func TestService_CommitFailureIsReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newMocks(ctrl)
	id := uuid.New()

	m.repo.EXPECT().Begin(gomock.Any(), id).Return(m.uow, nil)
	m.uow.EXPECT().GetOrder(gomock.Any(), id).Return(&order.Order{ID: id, Status: order.StatusAccepted, Version: 2}, nil)
	m.uow.EXPECT().SaveOrder(gomock.Any(), gomock.Any()).Return(nil)
	m.uow.EXPECT().Commit().Return(errors.New("connection reset"))
	m.uow.EXPECT().Rollback().Return(nil)

	_, err := m.service().AdvanceStatus(context.Background(), id, order.StatusProcessing, staff)
	assert.ErrorContains(t, err, "connection reset")
}

func TestService_NewItem(t *testing.T) {
	productID := uuid.New()

	type testCase struct {
		name     string
		product  *catalog.Product
		lookup   error
		quantity *int
		wantErr  error
	}

	tests := []testCase{
		{
			name:     "Fixed",
			product:  &catalog.Product{ID: productID, Name: "Brownies", PricingType: catalog.PricingFixed, Price: dec("3.25"), Active: true},
			quantity: new(4),
		},
		{
			name:     "Inactive",
			product:  &catalog.Product{ID: productID, Name: "Brownies", PricingType: catalog.PricingFixed, Price: dec("3.25")},
			quantity: new(4),
			wantErr:  order.ErrValidation,
		},
		{
			name:     "Unknown",
			lookup:   catalog.ErrNotFound,
			quantity: new(1),
			wantErr:  order.ErrNotFound,
		},
		{
			name:    "WeighedWithoutWeight",
			product: &catalog.Product{ID: productID, Name: "Ribeye", PricingType: catalog.PricingPerLb, Price: dec("12"), Active: true},
			wantErr: order.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			m := newMocks(ctrl)
			m.catalog.EXPECT().GetProduct(gomock.Any(), productID).Return(tt.product, tt.lookup)

			got, err := m.service().NewItem(context.Background(), productID, tt.quantity, nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "Brownies", got.ProductName)
			assert.True(t, dec("13").Equal(got.LineTotal))
		})
	}
}

func TestService_Observer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newMocks(ctrl)

	var seen []string

	svc := order.NewService(m.repo, m.catalog, m.customers, m.settings,
		order.WithObserver(func(op string, err error) {
			seen = append(seen, op)
			assert.ErrorIs(t, err, order.ErrValidation)
		}),
	)

	_, err := svc.Cancel(context.Background(), uuid.New(), staff, "")
	require.Error(t, err)
	assert.Equal(t, []string{"cancel"}, seen)
}

func TestService_Observer_UnknownAdvanceTarget(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newMocks(ctrl)

	var seen []string

	svc := order.NewService(m.repo, m.catalog, m.customers, m.settings,
		order.WithObserver(func(op string, err error) {
			seen = append(seen, op)
			assert.ErrorIs(t, err, order.ErrInvalidTransition)
		}),
	)

	for _, target := range []order.Status{"x1", "x2", "Shipped"} {
		id := uuid.New()
		m.repo.EXPECT().GetOrder(gomock.Any(), id).Return(&order.Order{ID: id, Status: order.StatusAccepted}, nil)

		_, err := svc.AdvanceStatus(context.Background(), id, target, staff)
		require.Error(t, err)
	}

	assert.Equal(t, []string{"advance status", "advance status", "advance status"}, seen)
}
