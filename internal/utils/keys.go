package utils

import "strings"

// SanitizeEmail converts an email address into a key that is safe to use as a
// database identifier. The mapping is deterministic: lower-case the address and
// replace every "." with ",". The "@" survives unchanged, so the original
// address can be recovered with RestoreEmail.
func SanitizeEmail(email string) string {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	return strings.ReplaceAll(trimmed, ".", ",")
}

// RestoreEmail reverses SanitizeEmail, turning a stored key back into the
// address it was derived from.
func RestoreEmail(key string) string {
	return strings.ReplaceAll(strings.TrimSpace(key), ",", ".")
}

// SummaryKey builds the identifier for a denormalized roster summary row from
// a student's email key and a course identifier.
func SummaryKey(emailKey, courseID string) string {
	return emailKey + "_" + courseID
}

// ParseSummaryKey splits a summary key into its email-key and course parts.
// The course identifier never contains "_", so the last separator wins.
func ParseSummaryKey(key string) (emailKey, courseID string) {
	idx := strings.LastIndex(key, "_")
	if idx < 0 {
		return key, ""
	}
	return key[:idx], key[idx+1:]
}

// NormalizeASN strips everything but digits from an Alberta Student Number so
// "1234-5678-9" and "123456789" compare equal.
func NormalizeASN(asn string) string {
	var b strings.Builder
	for _, r := range asn {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
