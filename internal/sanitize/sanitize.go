// Package sanitize cleans user-supplied values before they are stored.
// Qollect stores plain text only, so every free-text field goes through
// bluemonday's strict policy, which drops all markup.
package sanitize

import (
	"html"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared strict policy, initializing it on first call.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Text strips every HTML element from input and trims surrounding
// whitespace. Entities the policy escapes are decoded again so that
// quotes and ampersands in test-data lines survive (`user: "a&b"`).
func Text(input string) string {
	if input == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(getPolicy().Sanitize(input)))
}

var (
	hexColorRe   = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	namedColorRe = regexp.MustCompile(`^[a-zA-Z]{3,30}$`)
)

// Color reports whether s is a hex color (#rgb, #rrggbb, #rrggbbaa) or a
// bare CSS color keyword such as "teal".
func Color(s string) bool {
	return hexColorRe.MatchString(s) || namedColorRe.MatchString(s)
}

// LogoURL reports whether s can be used as a product logo: an absolute
// http(s) URL or an inline data:image/ URL. An empty logo is allowed.
func LogoURL(s string) bool {
	if s == "" {
		return true
	}
	if strings.HasPrefix(s, "data:image/") {
		return true
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
