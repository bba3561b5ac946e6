package email

import "regexp"

// pattern is deliberately permissive: a local part and a dotted domain, neither
// containing whitespace or a second '@'. Deliverability is not checked.
var pattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValid reports whether s has the shape of an email address.
func IsValid(s string) bool {
	return pattern.MatchString(s)
}
