package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeEmailRoundTrip(t *testing.T) {
	key := SanitizeEmail("  Jane.Marie.Doe@Example.COM ")
	require.Equal(t, "jane,marie,doe@example,com", key)
	require.Equal(t, "jane.marie.doe@example.com", RestoreEmail(key))
}

func TestSanitizeEmailStable(t *testing.T) {
	require.Equal(t, SanitizeEmail("a.b@c.d"), SanitizeEmail("A.B@C.D"))
}

func TestSummaryKey(t *testing.T) {
	key := SummaryKey("jane,doe@example,com", "MATH30-1")
	require.Equal(t, "jane,doe@example,com_MATH30-1", key)

	emailKey, courseID := ParseSummaryKey(key)
	require.Equal(t, "jane,doe@example,com", emailKey)
	require.Equal(t, "MATH30-1", courseID)
}

func TestParseSummaryKeyNoSeparator(t *testing.T) {
	emailKey, courseID := ParseSummaryKey("orphan")
	require.Equal(t, "orphan", emailKey)
	require.Empty(t, courseID)
}

func TestNormalizeASN(t *testing.T) {
	require.Equal(t, "123456789", NormalizeASN("1234-5678-9"))
	require.Equal(t, "123456789", NormalizeASN("123456789"))
	require.Equal(t, "123456789", NormalizeASN(" 1234 5678 9 "))
	require.Empty(t, NormalizeASN("no digits"))
}
