package httpserver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behrlich/go-tinyweb/internal/buffer"
)

func writeFixture(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
}

func TestMakeResponseServesExistingFile(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "index.html", "<html>hi</html>")

	var resp Response
	resp.Init(dir, "/index.html", true, -1)
	buf := buffer.New(256)
	require.NoError(t, resp.MakeResponse(buf))
	defer resp.UnmapFile()

	assert.Equal(t, 200, resp.Code())
	out := string(buf.Peek())
	assert.Contains(t, out, "HTTP/1.1 200 OK")
	assert.Contains(t, out, "keep-alive")
	assert.Contains(t, out, "Content-type: text/html")
	assert.Contains(t, out, "Content-length: 15")
	assert.Equal(t, "<html>hi</html>", string(resp.File()))
}

func TestMakeResponseMissingFileIs404(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "404.html", "not found body")

	var resp Response
	resp.Init(dir, "/missing.html", false, -1)
	buf := buffer.New(256)
	require.NoError(t, resp.MakeResponse(buf))
	defer resp.UnmapFile()

	assert.Equal(t, 404, resp.Code())
	assert.Contains(t, string(buf.Peek()), "404 Not Found")
}

func TestMakeResponseTraversalIsForbidden(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "403.html", "forbidden body")

	var resp Response
	resp.Init(dir, "/../etc/passwd", false, -1)
	buf := buffer.New(256)
	require.NoError(t, resp.MakeResponse(buf))
	defer resp.UnmapFile()

	assert.Equal(t, 403, resp.Code())
}

func TestErrorContentBuildsFallbackPage(t *testing.T) {
	var resp Response
	resp.code = 400
	buf := buffer.New(128)
	resp.errorContent(buf, "Bad request body")

	out := string(buf.Peek())
	assert.Contains(t, out, "400 : Bad Request")
	assert.Contains(t, out, "Bad request body")
	assert.Contains(t, out, "TinyWebServer")
}


