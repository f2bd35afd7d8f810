// Package config loads server configuration from YAML, promoting the
// teacher's indirect gopkg.in/yaml.v3 dependency to direct use and mirroring
// the shape of the original's YmlConfig (src/cfg/ymlconfig.hpp).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/behrlich/go-tinyweb/internal/logging"
)

// Server holds the listener and runtime tuning knobs, matching the
// original's "server:" yaml section.
type Server struct {
	Port        int  `yaml:"port"`
	TrigMode    int  `yaml:"trigMode"`
	TimeOutMs   int  `yaml:"timeOutMs"`
	OptLinger   bool `yaml:"optLinger"`
	ConnPoolNum int  `yaml:"connPoolNum"`
	ThreadNum   int  `yaml:"threadNum"`
	OpenLog     bool `yaml:"openLog"`
	LogLevel    int  `yaml:"logLevel"`
	LogQueSize  int  `yaml:"logQueSize"`
}

// MySQL holds the database connection parameters, matching the original's
// "mysql:" yaml section.
type MySQL struct {
	SQLPort int    `yaml:"sqlPort"`
	SQLUser string `yaml:"sqlUser"`
	SQLPwd  string `yaml:"sqlPwd"`
	DBName  string `yaml:"dbName"`
}

// Config is the top-level configuration document.
type Config struct {
	Server Server `yaml:"server"`
	MySQL  MySQL  `yaml:"mysql"`
}

// Default returns a Config with the same constants the original's demo
// properties.yml ships, for use when no config file is supplied.
func Default() *Config {
	return &Config{
		Server: Server{
			Port:        1316,
			TrigMode:    3,
			TimeOutMs:   60000,
			OptLinger:   false,
			ConnPoolNum: 12,
			ThreadNum:   6,
			OpenLog:     true,
			LogLevel:    1,
			LogQueSize:  1024,
		},
		MySQL: MySQL{
			SQLPort: 3306,
			SQLUser: "root",
			SQLPwd:  "",
			DBName:  "webserver",
		},
	}
}

// Load reads and parses a YAML config document from path. Errors are
// reported rather than swallowed, unlike the original's ymlInit which only
// logs the exception to stderr and continues with zero-valued fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LogLevelValue maps the yaml integer log level onto logging.LogLevel, matching
// the original's 0=debug..3=error numbering.
func (s Server) LogLevelValue() logging.LogLevel {
	switch s.LogLevel {
	case 0:
		return logging.LevelDebug
	case 1:
		return logging.LevelInfo
	case 2:
		return logging.LevelWarn
	default:
		return logging.LevelError
	}
}
