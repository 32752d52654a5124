package gateway

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCredentialRequiresToken(t *testing.T) {
	_, err := NewCredential("   ", "")
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestCredentialHeaders(t *testing.T) {
	cred, err := NewCredential(" ghp_example ", "")
	require.NoError(t, err)

	headers := cred.Headers()
	require.Equal(t, "token ghp_example", headers["Authorization"])
	require.Equal(t, "application/vnd.github.v3+json", headers["Accept"])
	require.Equal(t, DefaultUserAgent, headers["User-Agent"])
	require.NotContains(t, cred.String(), "ghp_example")

	headers["Authorization"] = "mutated"
	require.Equal(t, "token ghp_example", cred.Headers()["Authorization"])

	custom, err := NewCredential("abc", "ghlink/1.2.3")
	require.NoError(t, err)
	require.Equal(t, "ghlink/1.2.3", custom.Headers()["User-Agent"])
}
