// Command tinywebd starts the HTTP server, matching the original's
// main.cpp: load config, build the server, start serving. Deliberately no
// signal-driven graceful shutdown is wired here — the original's main()
// never returns from StartServer() either, and this port keeps that same
// run-until-killed shape rather than adding operational machinery the spec
// never asked for.
package main

import (
	"flag"
	"log"
	"path/filepath"

	"github.com/behrlich/go-tinyweb/internal/config"
	"github.com/behrlich/go-tinyweb/internal/dbpool"
	"github.com/behrlich/go-tinyweb/internal/logging"

	tinyweb "github.com/behrlich/go-tinyweb"
)

func main() {
	configPath := flag.String("config", "properties.yml", "path to the YAML config file")
	srcDir := flag.String("resources", "./resources", "directory of servable files")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("using default config: %v", err)
		cfg = config.Default()
	}

	logger, err := logging.New(&logging.Config{
		Level:     cfg.Server.LogLevelValue(),
		Dir:       "./log",
		QueueSize: cfg.Server.LogQueSize,
	})
	if err != nil {
		log.Fatalf("init logging: %v", err)
	}
	defer logger.Close()

	pool, err := dbpool.Open("localhost", cfg.MySQL.SQLPort, cfg.MySQL.SQLUser, cfg.MySQL.SQLPwd, cfg.MySQL.DBName, cfg.Server.ConnPoolNum)
	if err != nil {
		log.Fatalf("init db pool: %v", err)
	}
	defer pool.Close()

	querier := &dbpool.SQLQuerier{Pool: pool}
	resources, err := filepath.Abs(*srcDir)
	if err != nil {
		log.Fatalf("resolve resources dir: %v", err)
	}

	observer := tinyweb.NewMetricsObserver(tinyweb.NewMetrics())
	srv := tinyweb.NewServer(cfg.Server, resources, querier, logger, observer)

	logger.Infof("port: %d, optLinger: %v", cfg.Server.Port, cfg.Server.OptLinger)
	logger.Infof("connPoolNum: %d, threadNum: %d", cfg.Server.ConnPoolNum, cfg.Server.ThreadNum)

	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
