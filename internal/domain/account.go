package domain

// NoAccount is returned as the balance of a user without an account.
// It can never be a valid balance.
const NoAccount int64 = -1

// Account is a user's cash account.
type Account struct {
	UserID  int64 `db:"user_id"`
	Balance int64 `db:"balance"` // whole currency units, never negative
	Frozen  bool  `db:"frozen"`
}

// Position is a user's holding in one company.
type Position struct {
	UserID    int64 `db:"user_id"`
	CompanyID int64 `db:"company_id"`
	Amount    int64 `db:"amount"`
}
