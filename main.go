/*
This is an example of application that will use the
engine package to draw the configured scene
*/
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/anima/engine"
	"github.com/spaghettifunk/anima/engine/config"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/testbed"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the engine configuration")
	flag.Parse()

	if err := run(*configPath); err != nil {
		core.LogError("engine stopped: %s", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	core.SetLogLevel(cfg.LogLevel())

	tb := testbed.NewTestGame()
	e, err := engine.New(cfg, tb.Game)
	if err != nil {
		return err
	}
	defer func() {
		if err := e.Shutdown(); err != nil {
			core.LogError("shutdown: %s", err)
		}
	}()

	if err := e.Initialize(); err != nil {
		return err
	}
	if err := e.Load(); err != nil {
		return err
	}

	// capture sigterm and friends so the loop can unwind and release the device
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return e.Run(ctx)
}
