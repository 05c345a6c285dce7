package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a trading account holder. Accounts are created by the signup/OAuth
// flow outside this service; the trade engine is the only writer of Balance.
type User struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"createdAt"`
}

// CanAfford reports whether the balance covers the given cost.
func (u *User) CanAfford(cost decimal.Decimal) bool {
	return u.Balance.GreaterThanOrEqual(cost)
}
