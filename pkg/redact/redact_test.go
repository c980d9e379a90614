package redact

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmail(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		in, want string
	}{
		{"foobar@example.com", "fo***@example.com"},
		{"ab@ex.com", "***@ex.com"},
		{"no-at", "***"},
		{"a@b@c", "***"},
		{"юзер@пример.рф", "юз***@пример.рф"},
	}

	for _, tc := range tcs {
		require.Equal(t, tc.want, Email(tc.in), tc.in)
	}
}

func TestUsername(t *testing.T) {
	t.Parallel()

	require.Equal(t, "ad***", Username("admin"))
	require.Equal(t, "***", Username("ab"))
	require.Equal(t, "se***@corp.local", Username("security@corp.local"))
}

func TestPlaceholders(t *testing.T) {
	t.Parallel()

	require.Equal(t, "[REDACTED_TOKEN]", Token())
	require.Equal(t, "[REDACTED_PASSWORD]", Password())
}
