// Package validate holds the pure predicate functions consumed before save
// and deploy: subdomain syntax, custom-domain syntax, color formats and
// required case fields.
package validate

import (
	"regexp"
	"strings"
)

const (
	SubdomainMinLen = 3
	SubdomainMaxLen = 50
)

// reservedSubdomains may never be allocated to a case site.
var reservedSubdomains = map[string]struct{}{
	"www":     {},
	"api":     {},
	"admin":   {},
	"app":     {},
	"mail":    {},
	"ftp":     {},
	"staging": {},
	"dev":     {},
	"test":    {},
	"blog":    {},
	"help":    {},
	"support": {},
	"status":  {},
}

var (
	hostnameRe = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`)
	hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	rgbColorRe = regexp.MustCompile(`^rgba?\(\s*\d{1,3}\s*,\s*\d{1,3}\s*,\s*\d{1,3}\s*(,\s*(0|1|0?\.\d+)\s*)?\)$`)
)

var namedColors = map[string]struct{}{
	"black": {}, "white": {}, "gray": {}, "grey": {}, "red": {},
	"blue": {}, "green": {}, "yellow": {}, "orange": {}, "purple": {},
	"navy": {}, "teal": {}, "transparent": {},
}

// Subdomain reports whether value is an acceptable DNS label for a case site:
// 3-50 characters, lowercase letters, digits and hyphens, no leading,
// trailing or consecutive hyphens, and not on the reserved list.
func Subdomain(value string) bool {
	if len(value) < SubdomainMinLen || len(value) > SubdomainMaxLen {
		return false
	}
	if _, reserved := reservedSubdomains[value]; reserved {
		return false
	}
	if strings.HasPrefix(value, "-") || strings.HasSuffix(value, "-") {
		return false
	}
	if strings.Contains(value, "--") {
		return false
	}
	for _, ch := range value {
		if (ch < 'a' || ch > 'z') && (ch < '0' || ch > '9') && ch != '-' {
			return false
		}
	}
	return true
}

// ReservedSubdomain reports whether value collides with the reserved list.
func ReservedSubdomain(value string) bool {
	_, reserved := reservedSubdomains[strings.ToLower(value)]
	return reserved
}

// CustomDomain reports whether value is a bare dotted hostname. Schemes and
// paths are rejected.
func CustomDomain(value string) bool {
	if value == "" || len(value) > 253 {
		return false
	}
	if strings.Contains(value, "://") || strings.Contains(value, "/") {
		return false
	}
	return hostnameRe.MatchString(value)
}

// Color reports whether value is an accepted color format: 3- or 6-digit
// hex, rgb()/rgba(), or one of a small named allow-list.
func Color(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false
	}
	if hexColorRe.MatchString(trimmed) {
		return true
	}
	if rgbColorRe.MatchString(strings.ToLower(trimmed)) {
		return true
	}
	_, ok := namedColors[strings.ToLower(trimmed)]
	return ok
}

// CaseFields holds the case record fields a deploy depends on.
type CaseFields struct {
	FirstName    string
	LastName     string
	Subdomain    string
	CustomDomain string
	PrimaryPhoto string
}

// MissingCaseFields returns the names of required case fields that are blank.
func MissingCaseFields(fields CaseFields) []string {
	var missing []string
	if strings.TrimSpace(fields.FirstName) == "" {
		missing = append(missing, "first_name")
	}
	if strings.TrimSpace(fields.LastName) == "" {
		missing = append(missing, "last_name")
	}
	if strings.TrimSpace(fields.Subdomain) == "" {
		missing = append(missing, "subdomain")
	}
	return missing
}
