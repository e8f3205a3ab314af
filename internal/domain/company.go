package domain

// Company is a tradable issuer with a fixed float.
//
// Invariants: 0 <= AvailableStocks <= TotalStocks and Price >= 1.
type Company struct {
	ID              int64  `db:"id"`
	Name            string `db:"name"`
	Price           int64  `db:"price"` // whole currency units
	TotalStocks     int64  `db:"total_stocks"`
	AvailableStocks int64  `db:"available_stocks"`
}

// HeldStocks returns the part of the float currently owned by users.
func (c *Company) HeldStocks() int64 {
	return c.TotalStocks - c.AvailableStocks
}

// Validate reports ErrCorruptState when a stored row breaks the
// company invariants.
func (c *Company) Validate() error {
	if c.Price < 1 || c.TotalStocks <= 0 ||
		c.AvailableStocks < 0 || c.AvailableStocks > c.TotalStocks {
		return CorruptStatef("company %d: price=%d total=%d available=%d",
			c.ID, c.Price, c.TotalStocks, c.AvailableStocks)
	}
	return nil
}

// CompanySeed describes a company to list at startup.
type CompanySeed struct {
	Name        string `yaml:"name"`
	Price       int64  `yaml:"price"`
	TotalStocks int64  `yaml:"total_stocks"`
}
