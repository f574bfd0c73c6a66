package report

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/orderdesk/internal/catalog"
	"github.com/MrJamesThe3rd/orderdesk/internal/customer"
	"github.com/MrJamesThe3rd/orderdesk/internal/order"
	"github.com/MrJamesThe3rd/orderdesk/internal/settings"
	"github.com/MrJamesThe3rd/orderdesk/internal/user"
)

var ErrInvalidRange = errors.New("invalid report range")

type Orders interface {
	List(ctx context.Context, filter order.ListFilter) ([]*order.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*order.Order, error)
}

type Products interface {
	List(ctx context.Context, filter catalog.ListFilter) ([]*catalog.Product, error)
	LowStock(ctx context.Context) ([]*catalog.Product, error)
}

type Customers interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (*customer.Customer, error)
	List(ctx context.Context) ([]*customer.Customer, error)
}

type Users interface {
	List(ctx context.Context) ([]*user.User, error)
}

type SettingsProvider interface {
	GetSettings(ctx context.Context) (settings.Settings, error)
}

// Service reads from the ledger and directories; it never writes.
type Service struct {
	orders    Orders
	products  Products
	customers Customers
	users     Users
	settings  SettingsProvider
	now       func() time.Time
}

func NewService(orders Orders, products Products, customers Customers, users Users, sp SettingsProvider) *Service {
	return &Service{
		orders:    orders,
		products:  products,
		customers: customers,
		users:     users,
		settings:  sp,
		now:       time.Now,
	}
}

func (s *Service) Sales(ctx context.Context, filter SalesFilter) (*Sales, error) {
	if filter.Range == "" {
		filter.Range = RangeMonthly
	}

	if !filter.Range.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRange, filter.Range)
	}

	orders, err := s.orders.List(ctx, order.ListFilter{
		CreatedBy: filter.EmployeeID,
		StartDate: filter.Range.Start(s.now()),
	})
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	customerNames, err := s.customerNames(ctx)
	if err != nil {
		return nil, err
	}

	categories, err := s.productCategories(ctx)
	if err != nil {
		return nil, err
	}

	userNames, err := s.userNames(ctx)
	if err != nil {
		return nil, err
	}

	report := &Sales{Range: filter.Range, Revenue: decimal.Zero}

	byCategory := make(map[catalog.Category]*CategoryRow, len(catalog.Categories))
	for _, c := range catalog.Categories {
		report.Categories = append(report.Categories, CategoryRow{Category: c, Revenue: decimal.Zero})
	}

	for i := range report.Categories {
		byCategory[report.Categories[i].Category] = &report.Categories[i]
	}

	report.Payments = []PaymentRow{
		{Method: order.PaymentCOD, Revenue: decimal.Zero},
		{Method: order.PaymentCard, Revenue: decimal.Zero},
	}

	byEmployee := make(map[uuid.UUID]*EmployeeRow)

	for _, o := range orders {
		name, ok := customerNames[o.CustomerID]
		if !ok {
			name = "-"
		}

		report.Rows = append(report.Rows, SalesRow{
			OrderID:     o.ID,
			OrderNumber: orDash(o.Number()),
			Customer:    name,
			Total:       o.Total,
			Status:      o.Status,
			Paid:        o.PaymentStatus == order.PaymentPaid,
		})

		if !countsAsRevenue(o) {
			continue
		}

		report.Revenue = report.Revenue.Add(o.Total)

		for _, it := range o.Items {
			category, ok := categories[it.ProductID]
			if !ok {
				category = catalog.CategoryHomemade
			}

			if filter.Category != nil && category != *filter.Category {
				continue
			}

			row := byCategory[category]
			row.Items++
			row.Revenue = row.Revenue.Add(it.LineTotal)
		}

		if o.PaymentStatus == order.PaymentPaid {
			for i := range report.Payments {
				if report.Payments[i].Method == o.PaymentMethod {
					report.Payments[i].Count++
					report.Payments[i].Revenue = report.Payments[i].Revenue.Add(o.Total)
				}
			}
		}

		row, ok := byEmployee[o.CreatedBy]
		if !ok {
			row = &EmployeeRow{EmployeeID: o.CreatedBy, Name: userNames[o.CreatedBy], Revenue: decimal.Zero}
			byEmployee[o.CreatedBy] = row
		}

		row.Orders++
		row.Revenue = row.Revenue.Add(o.Total)
	}

	for _, row := range byEmployee {
		report.Employees = append(report.Employees, *row)
	}

	slices.SortFunc(report.Employees, func(a, b EmployeeRow) int {
		return b.Revenue.Cmp(a.Revenue)
	})

	return report, nil
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	orders, err := s.orders.List(ctx, order.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	lowStock, err := s.products.LowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing low stock: %w", err)
	}

	now := s.now()
	today := *RangeDaily.Start(now)

	d := &Dashboard{
		TotalOrders:  len(orders),
		TodayRevenue: decimal.Zero,
		TotalRevenue: decimal.Zero,
		LowStock:     lowStock,
	}

	for i := 6; i >= 0; i-- {
		d.LastWeek = append(d.LastWeek, DayRevenue{Day: today.AddDate(0, 0, -i), Revenue: decimal.Zero})
	}

	items := make(map[uuid.UUID]*ItemSales)

	for _, o := range orders {
		if isPending(o) {
			d.PendingOrders++
		}

		if !o.CreatedAt.Before(today) {
			d.TodayOrders++
		}

		if !countsAsRevenue(o) {
			continue
		}

		d.TotalRevenue = d.TotalRevenue.Add(o.Total)

		if !o.CreatedAt.Before(today) {
			d.TodayRevenue = d.TodayRevenue.Add(o.Total)
		}

		for i := range d.LastWeek {
			start := d.LastWeek[i].Day
			if !o.CreatedAt.Before(start) && o.CreatedAt.Before(start.AddDate(0, 0, 1)) {
				d.LastWeek[i].Revenue = d.LastWeek[i].Revenue.Add(o.Total)
			}
		}

		for _, it := range o.Items {
			row, ok := items[it.ProductID]
			if !ok {
				row = &ItemSales{ProductID: it.ProductID, Name: it.ProductName, Count: decimal.Zero, Revenue: decimal.Zero}
				items[it.ProductID] = row
			}

			row.Count = row.Count.Add(it.Amount())
			row.Revenue = row.Revenue.Add(it.LineTotal)
		}
	}

	for _, row := range items {
		d.TopItems = append(d.TopItems, *row)
	}

	slices.SortFunc(d.TopItems, func(a, b ItemSales) int {
		if c := b.Count.Cmp(a.Count); c != 0 {
			return c
		}

		return cmp.Compare(a.Name, b.Name)
	})

	if len(d.TopItems) > 5 {
		d.TopItems = d.TopItems[:5]
	}

	return d, nil
}

func (s *Service) customerNames(ctx context.Context) (map[uuid.UUID]string, error) {
	customers, err := s.customers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}

	names := make(map[uuid.UUID]string, len(customers))
	for _, c := range customers {
		names[c.ID] = c.Name
	}

	return names, nil
}

func (s *Service) productCategories(ctx context.Context) (map[uuid.UUID]catalog.Category, error) {
	products, err := s.products.List(ctx, catalog.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	categories := make(map[uuid.UUID]catalog.Category, len(products))
	for _, p := range products {
		categories[p.ID] = p.Category
	}

	return categories, nil
}

func (s *Service) userNames(ctx context.Context) (map[uuid.UUID]string, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	names := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	return names, nil
}

type CustomerReport struct {
	Customer *customer.Customer
	Range    Range
	Rows     []SalesRow
	Orders   int
	Spent    decimal.Decimal
}

// CustomerSummary lists a customer's orders in the range and what they spent.
func (s *Service) CustomerSummary(ctx context.Context, customerID uuid.UUID, r Range) (*CustomerReport, error) {
	if r == "" {
		r = RangeAll
	}

	if !r.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRange, r)
	}

	c, err := s.customers.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("getting customer: %w", err)
	}

	orders, err := s.orders.List(ctx, order.ListFilter{CustomerID: &customerID, StartDate: r.Start(s.now())})
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	report := &CustomerReport{Customer: c, Range: r, Spent: decimal.Zero}

	for _, o := range orders {
		report.Rows = append(report.Rows, SalesRow{
			OrderID:     o.ID,
			OrderNumber: orDash(o.Number()),
			Customer:    c.Name,
			Total:       o.Total,
			Status:      o.Status,
			Paid:        o.PaymentStatus == order.PaymentPaid,
		})

		if countsAsRevenue(o) {
			report.Orders++
			report.Spent = report.Spent.Add(o.Total)
		}
	}

	return report, nil
}
