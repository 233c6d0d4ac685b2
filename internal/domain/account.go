package domain

import "github.com/google/uuid"

// Role is an account capability.
type Role string

// Roles used by dispatch.
const (
	RoleBuyer   Role = "BUYER"
	RoleSeller  Role = "SELLER"
	RoleCourier Role = "COURIER"
)

// Account is the subset of a user record dispatch relies on.
type Account struct {
	ID       uuid.UUID
	Roles    []Role
	IsBanned bool
}

// HasRole reports whether the account carries r.
func (a Account) HasRole(r Role) bool {
	for _, have := range a.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// Order is the opaque upstream order record.
type Order struct {
	ID       uuid.UUID
	BuyerID  uuid.UUID
	StoreIDs []uuid.UUID
	Total    int64
	Currency string
}

// SoldBy reports whether every line item belongs to storeID.
func (o Order) SoldBy(storeID uuid.UUID) bool {
	if len(o.StoreIDs) == 0 {
		return false
	}
	for _, id := range o.StoreIDs {
		if id != storeID {
			return false
		}
	}
	return true
}
