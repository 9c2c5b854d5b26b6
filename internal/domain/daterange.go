package domain

import "time"

// ErrInvalidRange is reported when a range would end before it starts.
var ErrInvalidRange = NewRule(ErrValidation, "InvalidRange")

// IncludeMode selects how Contains treats an open-ended inner range.
type IncludeMode int

const (
	// MembershipInclude: an open-ended range is only contained by another
	// open-ended range.
	MembershipInclude IncludeMode = iota

	// TimelineInclude: an open-ended range inherits the end of a closed
	// container, so it is contained whenever it starts inside it.
	TimelineInclude
)

// DateRange is an immutable [start, end] span of calendar dates. A range
// without an end is current: it extends indefinitely into the future.
// The zero value is not a valid range; use NewDateRange or OpenDateRange.
type DateRange struct {
	start  time.Time
	end    time.Time
	hasEnd bool
}

// NewDateRange returns the closed range [start, end]. It fails with
// ErrInvalidRange when end is before start.
func NewDateRange(start, end time.Time) (DateRange, error) {
	start, end = DateOf(start), DateOf(end)
	if end.Before(start) {
		return DateRange{}, ErrInvalidRange.Violationf(
			"The end date %s must be on or after the start date %s.", FormatDate(end), FormatDate(start))
	}
	return DateRange{start: start, end: end, hasEnd: true}, nil
}

// OpenDateRange returns the current range starting at start.
func OpenDateRange(start time.Time) DateRange {
	return DateRange{start: DateOf(start)}
}

// NewDateRangeFrom builds a range from an optional end date.
func NewDateRangeFrom(start time.Time, end *time.Time) (DateRange, error) {
	if end == nil {
		return OpenDateRange(start), nil
	}
	return NewDateRange(start, *end)
}

// MustDateRange is NewDateRange for ranges known to be valid.
func MustDateRange(start, end time.Time) DateRange {
	r, err := NewDateRange(start, end)
	if err != nil {
		panic(err)
	}
	return r
}

// Start returns the first day of the range.
func (r DateRange) Start() time.Time { return r.start }

// End returns the last day of the range and false when the range is current.
func (r DateRange) End() (time.Time, bool) { return r.end, r.hasEnd }

// IsCurrent reports whether the range has no end.
func (r DateRange) IsCurrent() bool { return !r.hasEnd }

// IsZero reports whether r was never initialized.
func (r DateRange) IsZero() bool { return r.start.IsZero() && !r.hasEnd }

// Includes reports whether the calendar date of t lies within the range.
func (r DateRange) Includes(t time.Time) bool {
	d := DateOf(t)
	if d.Before(r.start) {
		return false
	}
	return !r.hasEnd || !d.After(r.end)
}

// Contains reports whether other lies entirely within r under mode.
func (r DateRange) Contains(other DateRange, mode IncludeMode) bool {
	if other.start.Before(r.start) {
		return false
	}
	if !r.hasEnd {
		return true
	}
	if other.hasEnd {
		return !other.end.After(r.end)
	}
	if mode == TimelineInclude {
		return !other.start.After(r.end)
	}
	return false
}

// Overlaps reports whether r and other share at least one day. A missing end
// is treated as unbounded, so two current ranges always overlap.
func (r DateRange) Overlaps(other DateRange) bool {
	if other.hasEnd && r.start.After(other.end) {
		return false
	}
	if r.hasEnd && other.start.After(r.end) {
		return false
	}
	return true
}

// EndAt returns a copy of r closed at end.
func (r DateRange) EndAt(end time.Time) (DateRange, error) {
	return NewDateRange(r.start, end)
}

// Equal reports whether both ranges cover the same days.
func (r DateRange) Equal(other DateRange) bool {
	if !r.start.Equal(other.start) || r.hasEnd != other.hasEnd {
		return false
	}
	return !r.hasEnd || r.end.Equal(other.end)
}

// String renders the range as "2024-01-01..2024-03-31" or "2024-01-01..".
func (r DateRange) String() string {
	if !r.hasEnd {
		return FormatDate(r.start) + ".."
	}
	return FormatDate(r.start) + ".." + FormatDate(r.end)
}
