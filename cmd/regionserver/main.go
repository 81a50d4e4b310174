// Command regionserver runs the region server process of spec.md §6.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"regionserver/internal/regionserver"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: regionserver start [--bind=host:port] [--config=path]")
	fmt.Fprintln(os.Stderr, "       regionserver stop   (stop via signal or daemon script instead)")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "start":
		os.Exit(runStart(os.Args[2:]))
	case "stop":
		usage()
		os.Exit(0)
	default:
		usage()
		os.Exit(0)
	}
}

func runStart(args []string) int {
	var bind, configPath string
	for _, a := range args {
		switch {
		case len(a) > len("--bind=") && a[:len("--bind=")] == "--bind=":
			bind = a[len("--bind="):]
		case len(a) > len("--config=") && a[:len("--config=")] == "--config=":
			configPath = a[len("--config="):]
		}
	}

	var cfg regionserver.Config
	var err error
	if configPath != "" {
		cfg, err = regionserver.LoadConfig(configPath)
	} else {
		cfg = regionserver.DefaultConfig()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "regionserver: load config: %v\n", err)
		return -1
	}
	if bind != "" {
		cfg.Address = bind
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "regionserver: init logger: %v\n", err)
		return -1
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		sugar.Infow("signal received, stopping")
		cancel()
	}()

	srv := regionserver.New(cfg, sugar)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		sugar.Errorw("region server exited with error", "err", err)
		return -1
	}
	return 0
}
