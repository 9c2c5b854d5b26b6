package strategy

// Status is the lifecycle state of a StrategicInitiative.
type Status string

const (
	StatusProposed  Status = "proposed"
	StatusApproved  Status = "approved"
	StatusActive    Status = "active"
	StatusOnHold    Status = "on_hold"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// IsValid returns true if the status is one of the defined constants.
func (s Status) IsValid() bool {
	switch s {
	case StatusProposed, StatusApproved, StatusActive, StatusOnHold, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsClosed reports whether the initiative has reached a terminal status.
func (s Status) IsClosed() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}

// Role is a responsibility held on an initiative.
type Role string

const (
	RoleSponsor Role = "sponsor"
	RoleOwner   Role = "owner"
)

func (r Role) IsValid() bool  { return r == RoleSponsor || r == RoleOwner }
func (r Role) String() string { return string(r) }

// Unit is what a KPI value counts.
type Unit string

const (
	UnitNumber     Unit = "number"
	UnitPercentage Unit = "percentage"
	UnitCurrency   Unit = "currency"
)

func (u Unit) IsValid() bool {
	switch u {
	case UnitNumber, UnitPercentage, UnitCurrency:
		return true
	default:
		return false
	}
}

func (u Unit) String() string { return string(u) }

// TargetDirection says whether a KPI succeeds by rising to or falling to its
// target.
type TargetDirection string

const (
	DirectionIncrease TargetDirection = "increase"
	DirectionDecrease TargetDirection = "decrease"
)

func (d TargetDirection) IsValid() bool  { return d == DirectionIncrease || d == DirectionDecrease }
func (d TargetDirection) String() string { return string(d) }
