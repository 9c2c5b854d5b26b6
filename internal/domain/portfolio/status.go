package portfolio

// PortfolioStatus is the lifecycle state of a Portfolio.
type PortfolioStatus string

const (
	PortfolioProposed PortfolioStatus = "proposed"
	PortfolioActive   PortfolioStatus = "active"
	PortfolioOnHold   PortfolioStatus = "on_hold"
	PortfolioClosed   PortfolioStatus = "closed"
	PortfolioArchived PortfolioStatus = "archived"
)

// IsValid returns true if the status is one of the defined constants.
func (s PortfolioStatus) IsValid() bool {
	switch s {
	case PortfolioProposed, PortfolioActive, PortfolioOnHold, PortfolioClosed, PortfolioArchived:
		return true
	default:
		return false
	}
}

// IsReadOnly reports whether a portfolio in this status rejects changes.
func (s PortfolioStatus) IsReadOnly() bool {
	return s == PortfolioClosed || s == PortfolioArchived
}

// String implements fmt.Stringer.
func (s PortfolioStatus) String() string {
	return string(s)
}

// WorkStatus is the lifecycle state shared by programs and projects.
type WorkStatus string

const (
	StatusProposed  WorkStatus = "proposed"
	StatusActive    WorkStatus = "active"
	StatusCompleted WorkStatus = "completed"
	StatusCancelled WorkStatus = "cancelled"
)

// IsValid returns true if the status is one of the defined constants.
func (s WorkStatus) IsValid() bool {
	switch s {
	case StatusProposed, StatusActive, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsClosed reports whether the status is terminal.
func (s WorkStatus) IsClosed() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// String implements fmt.Stringer.
func (s WorkStatus) String() string {
	return string(s)
}
