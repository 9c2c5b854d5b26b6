package organization

import (
	"regexp"
	"strings"

	"github.com/orgplan/orgplan/internal/domain"
)

// ErrInvalidCode is reported for codes that are not 2-10 letters or digits.
var ErrInvalidCode = domain.NewRule(domain.ErrValidation, "InvalidCode")

var codePattern = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

// TeamCode is a short, unique, human-friendly team identifier such as "PLAT".
type TeamCode string

// NewTeamCode trims and uppercases raw and validates the result.
func NewTeamCode(raw string) (TeamCode, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if !codePattern.MatchString(code) {
		return "", ErrInvalidCode.Violationf(
			"The code %q must be between 2 and 10 uppercase letters and numbers.", code)
	}
	return TeamCode(code), nil
}

// String implements fmt.Stringer.
func (c TeamCode) String() string {
	return string(c)
}
