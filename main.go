package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/vetro-engine/vetro/engine"
	"github.com/vetro-engine/vetro/engine/core"
)

func main() {
	configPath := flag.String("config", "vetro.toml", "path to the configuration file")
	flag.Parse()

	config, err := engine.LoadConfig(*configPath)
	if err != nil {
		core.LogFatal("%s", err.Error())
	}

	e, err := engine.New(config)
	if err != nil {
		core.LogFatal("%s", err.Error())
	}

	if err := e.Initialize(); err != nil {
		core.LogFatal("%s", err.Error())
	}

	// Capture termination signals and fold them into a clean shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	go func() {
		<-sigCh
		e.RequestShutdown()
	}()

	if err := e.Run(); err != nil {
		core.LogError("%s", err.Error())
	}

	if err := e.Shutdown(); err != nil {
		core.LogError("%s", err.Error())
	}
}
