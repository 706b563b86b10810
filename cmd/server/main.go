package main

import (
	"github.com/finvista/evograph/internal/server"
	"github.com/finvista/evograph/internal/util"
	"github.com/finvista/evograph/pkg/logger"
	"github.com/finvista/evograph/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
