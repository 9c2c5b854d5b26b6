package portfolio

import (
	"regexp"
	"strconv"
	"strings"
)

var keyPattern = regexp.MustCompile(`^[A-Z0-9]{2,20}$`)

// ProjectKey is the short identifier that prefixes a project's task keys.
type ProjectKey string

// NewProjectKey trims and uppercases raw and validates the result.
func NewProjectKey(raw string) (ProjectKey, error) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if !keyPattern.MatchString(key) {
		return "", ErrInvalidKey.Violationf(
			"The key %q must be between 2 and 20 uppercase letters and numbers.", key)
	}
	return ProjectKey(key), nil
}

// TaskKey returns the key of the task numbered n.
func (k ProjectKey) TaskKey(n int) string {
	return string(k) + "-" + strconv.Itoa(n)
}

// String implements fmt.Stringer.
func (k ProjectKey) String() string {
	return string(k)
}
