package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openretail/stockcore/config"
	"github.com/openretail/stockcore/internal/adminapi"
	"github.com/openretail/stockcore/internal/app"
	"github.com/openretail/stockcore/internal/webserver"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	confFile = flag.String("c", "/etc/stockcore.yml", "config file")
	initDb   = flag.Bool("initdb", false, "drop and recreate all tables")
	showVer  = flag.Bool("v", false, "show version")
)

var gitVersion = "dev"

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println("stockcore", gitVersion)
		return
	}

	cfg := config.LoadConfig(*confFile)
	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initDb {
		application.InitDb()
		zap.S().Info("database initialized")
		return
	}

	webserver.Init(cfg)
	adminapi.Init(application)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return webserver.Listen()
	})
	g.Go(func() error {
		application.StartBackgroundJobs(ctx)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return webserver.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zap.S().Errorf("service stopped: %v", err)
		os.Exit(1)
	}
}
