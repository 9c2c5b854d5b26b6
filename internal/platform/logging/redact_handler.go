package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

// SensitiveHeaders is the set of lowercase HTTP header names that carry
// credentials.
var SensitiveHeaders = map[string]bool{
	"authorization": true,
	"x-api-key":     true,
	"cookie":        true,
}

// PersonalFields are attribute names holding free text written by people
// (measurement notes) or contact data. Event data is logged key by key, so
// these are caught wherever they appear.
var PersonalFields = []string{"note", "email"}

var (
	secretFields   = []string{"password", "secret", "token"}
	secretPrefixes = []string{"secret_", "api_key"}

	// Values that leak through under innocent attribute names. JWT segments
	// need ten characters each so dotted version strings are left alone.
	secretValues = []*regexp.Regexp{
		regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9\-._~+/]+=*`),
		regexp.MustCompile(`[a-zA-Z0-9\-_]{10,}\.[a-zA-Z0-9\-_]{10,}\.[a-zA-Z0-9\-_]{10,}`),
		regexp.MustCompile(`(?i)(api[_\-]?key|apikey)\s*[:=]\s*\S+`),
	}
)

// newRedactAttr returns the masq ReplaceAttr used by every handler New
// builds.
func newRedactAttr() func([]string, slog.Attr) slog.Attr {
	var opts []masq.Option
	for name := range SensitiveHeaders {
		opts = append(opts, masq.WithFieldName(name))
	}
	for _, name := range append(PersonalFields, secretFields...) {
		opts = append(opts, masq.WithFieldName(name))
	}
	for _, prefix := range secretPrefixes {
		opts = append(opts, masq.WithFieldPrefix(prefix))
	}
	for _, re := range secretValues {
		opts = append(opts, masq.WithRegex(re))
	}
	return masq.New(opts...)
}
