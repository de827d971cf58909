package worklist

import (
	"regexp"
	"strings"
)

// matchField applies DICOM universal matching: an empty pattern imposes
// no constraint, '*' matches any run of characters, '?' matches exactly
// one. Matching is case-insensitive, per the same convention the
// catalog package's SQL LIKE translation uses.
func matchField(pattern, value string) bool {
	if pattern == "" {
		return true
	}
	if !strings.ContainsAny(pattern, "*?") {
		return strings.EqualFold(pattern, value)
	}
	re := wildcardToRegexp(pattern)
	return re.MatchString(value)
}

func wildcardToRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("(?i)^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteByte('.')
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteByte('$')
	return regexp.MustCompile(b.String())
}
