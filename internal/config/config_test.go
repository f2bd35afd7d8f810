package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadParsesServerAndMySQLSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "properties.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9006
  trigMode: 3
  timeOutMs: 60000
  optLinger: true
  connPoolNum: 8
  threadNum: 4
  openLog: true
  logLevel: 2
  logQueSize: 800
mysql:
  sqlPort: 3307
  sqlUser: webuser
  sqlPwd: secret
  dbName: webserver
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9006, cfg.Server.Port)
	assert.True(t, cfg.Server.OptLinger)
	assert.Equal(t, 4, cfg.Server.ThreadNum)
	assert.Equal(t, 3307, cfg.MySQL.SQLPort)
	assert.Equal(t, "webuser", cfg.MySQL.SQLUser)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load("/nonexistent/properties.yml")
	assert.Error(t, err)
}

func TestDefaultMatchesOriginalDemoConstants(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1316, cfg.Server.Port)
	assert.Equal(t, 12, cfg.Server.ConnPoolNum)
	assert.Equal(t, 6, cfg.Server.ThreadNum)
}
