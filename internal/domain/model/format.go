package model

import "strings"

// DigitsOnly removes every non-digit rune, e.g. "123.456.789-00" → "12345678900".
func DigitsOnly(value string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, value)
}

// FormatPhone renders a Brazilian phone number for display:
// 11 digits → "(dd) ddddd-dddd", 10 digits → "(dd) dddd-dddd".
// Anything else is returned as the bare digits.
func FormatPhone(value string) string {
	d := DigitsOnly(value)
	switch len(d) {
	case 11:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	case 10:
		return "(" + d[:2] + ") " + d[2:6] + "-" + d[6:]
	default:
		return d
	}
}

// FormatCPF renders 11 digits as "ddd.ddd.ddd-dd"; other input returns the bare digits.
func FormatCPF(value string) string {
	d := DigitsOnly(value)
	if len(d) != 11 {
		return d
	}
	return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
}
