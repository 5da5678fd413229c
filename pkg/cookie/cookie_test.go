package cookie

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func requestWith(c *http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(c)
	return r
}

func TestManager_Defaults(t *testing.T) {
	t.Parallel()

	m := New()
	c := m.Make("sid", "token", time.Hour)

	assert.Equal(t, "sid", c.Name)
	assert.Equal(t, "token", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 3600, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.False(t, m.Signed())
}

func TestManager_PlainRoundTrip(t *testing.T) {
	t.Parallel()

	m := New()
	v, err := m.Read(requestWith(m.Make("sid", "token", 0)), "sid")
	require.NoError(t, err)
	assert.Equal(t, "token", v)

	_, err = m.Read(httptest.NewRequest(http.MethodGet, "/", nil), "sid")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestManager_SignedRoundTrip(t *testing.T) {
	t.Parallel()

	m := New(WithSecret(secret))
	require.True(t, m.Signed())

	c := m.Make("sid", "token", time.Hour)
	assert.NotEqual(t, "token", c.Value)

	v, err := m.Read(requestWith(c), "sid")
	require.NoError(t, err)
	assert.Equal(t, "token", v)
}

func TestManager_TamperedSignature(t *testing.T) {
	t.Parallel()

	m := New(WithSecret(secret))
	c := m.Make("sid", "token", time.Hour)

	tests := map[string]string{
		"no separator":   "abc",
		"bad value":      "!!!." + strings.Split(c.Value, ".")[1],
		"bad signature":  strings.Split(c.Value, ".")[0] + ".!!!",
		"other secret":   New(WithSecret(strings.Repeat("x", 32))).Make("sid", "token", 0).Value,
		"swapped values": New(WithSecret(secret)).Make("sid", "other", 0).Value[:4] + c.Value[4:],
	}
	for name, value := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := m.Read(requestWith(&http.Cookie{Name: "sid", Value: value}), "sid")
			require.ErrorIs(t, err, ErrBadSig)
		})
	}
}

func TestManager_ShortSecretIgnored(t *testing.T) {
	t.Parallel()

	m := New(WithSecret("short"))
	assert.False(t, m.Signed())
	require.ErrorIs(t, ValidateSecret("short"), ErrBadSecret)
	require.NoError(t, ValidateSecret(""))
	require.NoError(t, ValidateSecret(secret))
}

func TestManager_Expire(t *testing.T) {
	t.Parallel()

	m := New(WithDomain("example.com"), WithPath("/app"), WithSecure(true), WithHTTPOnly(false), WithSameSite(http.SameSiteStrictMode))
	c := m.Expire("sid")

	assert.Equal(t, -1, c.MaxAge)
	assert.Empty(t, c.Value)
	assert.Equal(t, "example.com", c.Domain)
	assert.Equal(t, "/app", c.Path)
	assert.True(t, c.Secure)
	assert.False(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
}
