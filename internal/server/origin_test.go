package server

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeOrigins(t *testing.T) {
	normalized, allowAll := normalizeOrigins([]string{
		"HTTP://Example.COM:8080",
		"  ",
		"not a url",
		"*",
	})

	assert.True(t, allowAll)
	assert.Equal(t, []string{"http://example.com:8080"}, normalized)
}

func TestCheckOriginAgainstConfig(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })
	SetConfig(&Config{AllowedOrigins: []string{"http://chat.example.com"}})

	allowed := httptest.NewRequest("GET", "/ws", nil)
	allowed.Header.Set("Origin", "http://CHAT.example.com")
	assert.True(t, checkOrigin(allowed))

	denied := httptest.NewRequest("GET", "/ws", nil)
	denied.Header.Set("Origin", "http://evil.example.com")
	assert.False(t, checkOrigin(denied))

	missing := httptest.NewRequest("GET", "/ws", nil)
	assert.False(t, checkOrigin(missing))
}

func TestCheckOriginAllowAll(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })
	SetConfig(&Config{AllowedOrigins: []string{"*"}})

	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Origin", "http://anything.example.com")
	assert.True(t, checkOrigin(r))
}
