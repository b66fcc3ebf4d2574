package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"flitz/config"
	"flitz/controller"
	"flitz/logging"
	"flitz/middleware"
	"flitz/tracing"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}

	if err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	shutdown, err := tracing.Init(cfg.TraceExporter)
	if err != nil {
		logging.Fatal("failed to initialize tracing", logging.Err(err))
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logging.Warn("error shutting down tracer provider", logging.Err(err))
		}
	}()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	controller.SetupRoutes(r, cfg)

	addr := net.JoinHostPort(cfg.Host, strconv.FormatUint(uint64(cfg.Port), 10))
	logging.Info("flitz starting",
		logging.String("addr", addr),
		logging.String("start_dir", cfg.StartDir),
		logging.Duration("connection_timeout", cfg.ConnectionTimeout),
	)
	if err := r.Run(addr); err != nil {
		logging.Fatal("server stopped", logging.Err(err))
	}
}
