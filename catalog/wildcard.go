package catalog

import "strings"

// HasWildcard reports whether s contains a DICOM wildcard metacharacter.
func HasWildcard(s string) bool {
	return strings.ContainsAny(s, "*?")
}

// ToLikePattern translates a DICOM universal-matching pattern into a SQL
// LIKE pattern: '*' becomes '%', '?' becomes '_', and any '%' or '_'
// already present in the input is escaped with a backslash so it matches
// literally rather than acting as a SQL wildcard.
func ToLikePattern(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '%', '_', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '*':
			b.WriteByte('%')
		case '?':
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
