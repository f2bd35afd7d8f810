//go:build linux

package tinyweb

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behrlich/go-tinyweb/internal/config"
)

func TestServerServesIndexOverTCP(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("it works"), 0o644))

	cfg := config.Server{
		Port:      18281,
		TrigMode:  0,
		ThreadNum: 2,
	}
	querier := NewMockQuerier()
	srv := NewServer(cfg, dir, querier, nil, nil)

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe() }()
	defer srv.Close()

	var conn net.Conn
	var err error
	for i := 0; i < 50; i++ {
		conn, err = net.Dial("tcp", "127.0.0.1:18281")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("GET / HTTP/1.1\r\nConnection: close\r\n\r\n"))
	require.NoError(t, err)

	buf := make([]byte, 4096)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	out := string(buf[:n])
	assert.Contains(t, out, "HTTP/1.1 200 OK")
	assert.Contains(t, out, "it works")
}
