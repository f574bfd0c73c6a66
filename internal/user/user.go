package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalid            = errors.New("invalid user")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleSupervisor Role = "Supervisor"
	RoleEmployee   Role = "Employee"
)

func (r Role) Valid() bool {
	_, ok := roleAreas[r]
	return ok
}

// Area is a section of the dashboard gated by role.
type Area string

const (
	AreaDashboard Area = "dashboard"
	AreaOrders    Area = "orders"
	AreaCustomers Area = "customers"
	AreaProducts  Area = "products"
	AreaUsers     Area = "users"
	AreaReports   Area = "reports"
	AreaSettings  Area = "settings"
)

var roleAreas = map[Role][]Area{
	RoleAdmin:      {AreaDashboard, AreaOrders, AreaCustomers, AreaProducts, AreaUsers, AreaReports, AreaSettings},
	RoleSupervisor: {AreaDashboard, AreaOrders, AreaCustomers, AreaProducts, AreaUsers, AreaReports},
	RoleEmployee:   {AreaDashboard, AreaOrders, AreaCustomers, AreaProducts},
}

func CanAccess(role Role, area Area) bool {
	for _, a := range roleAreas[role] {
		if a == area {
			return true
		}
	}

	return false
}

// Areas lists the sections available to role.
func Areas(role Role) []Area {
	return append([]Area(nil), roleAreas[role]...)
}

type User struct {
	ID           uuid.UUID
	Name         string
	Username     string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
