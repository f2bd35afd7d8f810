//go:build linux

package httpserver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func socketpair(t *testing.T) (server, client int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestConnReadProcessWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("hello world"), 0o644))

	server, client := socketpair(t)
	c := NewConn(server, dir, false, newStubQuerier())
	defer c.Close()

	req := "GET / HTTP/1.1\r\nConnection: keep-alive\r\n\r\n"
	_, err := unix.Write(client, []byte(req))
	require.NoError(t, err)

	n, err := c.Read()
	require.NoError(t, err)
	require.Greater(t, n, 0)

	ok, err := c.Process()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, c.IsKeepAlive())

	_, err = c.Write()
	require.NoError(t, err)
	assert.Equal(t, 0, c.ToWriteBytes())

	buf := make([]byte, 4096)
	nr, err := unix.Read(client, buf)
	require.NoError(t, err)
	out := string(buf[:nr])
	assert.Contains(t, out, "HTTP/1.1 200 OK")
	assert.Contains(t, out, "hello world")
}

func TestConnProcessBadRequestRespondsWith400(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "400.html"), []byte("bad"), 0o644))

	server, client := socketpair(t)
	c := NewConn(server, dir, false, newStubQuerier())
	defer c.Close()

	_, err := unix.Write(client, []byte("garbage\r\n\r\n"))
	require.NoError(t, err)

	_, err = c.Read()
	require.NoError(t, err)

	ok, err := c.Process()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 400, c.response.Code())
}
