package qualify

import "strings"

// FormatWhatsApp derives a WhatsApp-dialable number from the provider's
// phone fields. The international number is preferred since it carries the
// country code; the national number is used as-is when it is all we have.
// Returns "" when neither field yields a usable number.
func FormatWhatsApp(international, national string) string {
	if n := digitsOnly(international); n != "" {
		return "+" + n
	}
	return digitsOnly(national)
}

// digitsOnly strips spaces, dashes, parentheses and a leading plus sign.
func digitsOnly(phone string) string {
	var b strings.Builder
	for _, c := range phone {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}
