package httpserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behrlich/go-tinyweb/internal/buffer"
)

type stubQuerier struct {
	users map[string]string
}

func newStubQuerier() *stubQuerier {
	return &stubQuerier{users: map[string]string{"alice": "hunter2"}}
}

func (s *stubQuerier) UserExists(ctx context.Context, username string) (string, bool, error) {
	pw, ok := s.users[username]
	return pw, ok, nil
}

func (s *stubQuerier) CreateUser(ctx context.Context, username, password string) error {
	s.users[username] = password
	return nil
}

func TestParseSimpleGetRequest(t *testing.T) {
	buf := buffer.New(64)
	buf.AppendString("GET /index HTTP/1.1\r\nConnection: keep-alive\r\n\r\n")

	r := NewRequest()
	ok, err := r.Parse(buf, newStubQuerier())
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "GET", r.Method)
	assert.Equal(t, "/index.html", r.Path)
	assert.Equal(t, "1.1", r.Version)
	assert.True(t, r.IsKeepAlive())
}

func TestParseRootPathMapsToIndexHTML(t *testing.T) {
	buf := buffer.New(64)
	buf.AppendString("GET / HTTP/1.1\r\n\r\n")

	r := NewRequest()
	ok, err := r.Parse(buf, newStubQuerier())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/index.html", r.Path)
	assert.False(t, r.IsKeepAlive())
}

func TestParseMalformedRequestLineFails(t *testing.T) {
	buf := buffer.New(64)
	buf.AppendString("NOT A REQUEST LINE\r\n\r\n")

	r := NewRequest()
	ok, err := r.Parse(buf, newStubQuerier())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseLoginPostSuccess(t *testing.T) {
	buf := buffer.New(128)
	buf.AppendString("POST /login.html HTTP/1.1\r\nContent-Type: application/x-www-form-urlencoded\r\n\r\nusername=alice&password=hunter2")

	r := NewRequest()
	ok, err := r.Parse(buf, newStubQuerier())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/welcome.html", r.Path)
}

func TestParseLoginPostWrongPassword(t *testing.T) {
	buf := buffer.New(128)
	buf.AppendString("POST /login.html HTTP/1.1\r\nContent-Type: application/x-www-form-urlencoded\r\n\r\nusername=alice&password=wrong")

	r := NewRequest()
	ok, err := r.Parse(buf, newStubQuerier())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/error.html", r.Path)
}

func TestParseRegisterPostCreatesNewUser(t *testing.T) {
	buf := buffer.New(128)
	buf.AppendString("POST /register.html HTTP/1.1\r\nContent-Type: application/x-www-form-urlencoded\r\n\r\nusername=bob&password=secret")

	q := newStubQuerier()
	r := NewRequest()
	ok, err := r.Parse(buf, q)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/welcome.html", r.Path)
	assert.Equal(t, "secret", q.users["bob"])
}

func TestParseURLEncodedPlusBecomesSpace(t *testing.T) {
	r := NewRequest()
	r.body = "name=john+doe"
	r.parseURLEncoded()
	assert.Equal(t, "john doe", r.Post["name"])
}

func TestParseURLEncodedPercentEscapeReproducesHistoricalBug(t *testing.T) {
	// "%41" decodes to 'A' (0x41 = 65); the original's bug rewrites only the
	// two hex digit characters following '%' into ASCII decimal digits ('6',
	// '5') and leaves the '%' itself untouched, so the field ends up holding
	// the literal text "%65" instead of the single decoded byte 'A'.
	r := NewRequest()
	r.body = "name=%41"
	r.parseURLEncoded()
	assert.Equal(t, "%65", r.Post["name"])
}

func TestSanitizePathRejectsTraversal(t *testing.T) {
	assert.True(t, sanitizePath("/index.html"))
	assert.True(t, sanitizePath("/a/b/../c"))
	assert.False(t, sanitizePath("/../etc/passwd"))
	assert.False(t, sanitizePath("/a/../../b"))
}
