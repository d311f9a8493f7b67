package main

import (
	"flag"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/tradecore/matchengine/config"
	"github.com/tradecore/matchengine/pkg/infra"
	"github.com/tradecore/matchengine/pkg/logging"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}

	logger, err := logging.Init(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() // nolint

	mgTool := infra.GetMigrateTool()
	mgTool.Migrate("file://migration/sql", cfg.OmsDB.MigrationConnURL)
}
