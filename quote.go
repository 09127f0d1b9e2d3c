package opsctl

import "strings"

// ShellQuote minimally quotes an argument for POSIX shells. Common safe
// characters are left unquoted; everything else is single-quoted with the
// standard '\'' escape for embedded single quotes.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}

	if strings.IndexFunc(s, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		}

		switch r {
		case '-', '_', '.', '/', '@', ':', ',', '+', '=':
			return false
		}

		return true
	}) == -1 {
		return s
	}

	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}
