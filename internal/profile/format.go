package profile

import "strings"

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// FormatTaxID masks a CPF as 000.000.000-00 while it is typed.
// Input with more than 11 digits is returned unchanged.
func FormatTaxID(text string) string {
	d := digitsOnly(text)

	switch {
	case len(d) > 11:
		return text
	case len(d) > 9:
		return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
	case len(d) > 6:
		return d[:3] + "." + d[3:6] + "." + d[6:]
	case len(d) > 3:
		return d[:3] + "." + d[3:]
	default:
		return d
	}
}

// FormatPhone masks a phone number as (00) 00000-0000 while it is typed.
// Input with more than 11 digits is returned unchanged.
func FormatPhone(text string) string {
	d := digitsOnly(text)

	switch {
	case len(d) > 11:
		return text
	case len(d) > 6:
		// the dash goes after five digits when at least one more follows, otherwise after four
		split := 2 + 4
		if len(d) > 7 {
			split = 2 + 5
		}
		return "(" + d[:2] + ") " + d[2:split] + "-" + d[split:]
	case len(d) > 2:
		return "(" + d[:2] + ") " + d[2:]
	default:
		return d
	}
}
