package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ivlev/frames2osb/internal/config"
	"github.com/ivlev/frames2osb/internal/engine"
	"github.com/ivlev/frames2osb/internal/logger"
	"github.com/ivlev/frames2osb/internal/source"
	"github.com/ivlev/frames2osb/internal/system"
)

var log = logger.Log

func main() {
	_ = godotenv.Load() // best-effort: load .env if present

	if n, err := system.RaiseOpenFileLimit(system.OpenFileTarget); err != nil {
		log.Warn(err)
	} else {
		log.Debugf("open file limit %d", n)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(runProject)
	if err := root.ExecuteContext(ctx); err != nil {
		log.Error(err)
		stop()
		os.Exit(1)
	}
}

func runProject(ctx context.Context, cfg *config.Config) error {
	var src source.Source
	if !cfg.OnlyGenerate {
		s, err := source.NewImageSource(cfg.FramesDir)
		if err != nil {
			return err
		}
		defer s.Close()
		src = s
	}

	if err := engine.NewProject(cfg, src).Run(ctx); err != nil {
		return err
	}
	log.Infof("done: %s", cfg.Output)
	return nil
}
