package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/psychopy/liaison/internal/config"
	"github.com/psychopy/liaison/internal/observability"
	"github.com/psychopy/liaison/internal/registry"
	"github.com/psychopy/liaison/internal/session"
)

func main() {
	var (
		configPath     = flag.String("config", "", "path to a TOML config file")
		host           = flag.String("host", "", "listen host (overrides config)")
		port           = flag.Int("port", -1, "listen port (overrides config)")
		printConstants = flag.Bool("print-constants", false, "print the lifecycle marker constants as JSON and exit")
	)
	flag.Parse()

	if *printConstants {
		out, _ := json.Marshal(session.Constants())
		fmt.Println(string(out))
		return
	}

	if err := run(*configPath, *host, *port); err != nil {
		fmt.Fprintf(os.Stderr, "liaison: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, host string, port int) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if host != "" {
		cfg.Host = host
	}
	if port >= 0 {
		cfg.Port = port
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	observability.InitLogger("liaison")
	if err := registry.RegisterBuiltins(registry.Default()); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := session.NewService(session.ServiceConfig{Config: cfg})
	return svc.Run(ctx)
}
