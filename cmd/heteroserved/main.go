// Command heteroserved is the HeteroServing process entry point: parse
// flags, load configuration, build the server, and run until the
// process receives a termination signal.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/canhld94/HeteroServing/internal/server"
)

const defaultConfigPath = "../config/config.json"

func main() {
	var (
		configPath = flag.String("f", defaultConfigPath, "path to the server configuration file")
		help       = flag.Bool("h", false, "print usage and exit")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  -f string\n\tconfiguration file (default %q)\n", defaultConfigPath)
		fmt.Fprintf(os.Stderr, "  -h\tprint this message and exit\n")
	}
	flag.Parse()

	if *help {
		flag.Usage()
		os.Exit(0)
	}

	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(log)

	srv, err := server.New(*configPath, log)
	if err != nil {
		log.Error("startup failed", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
	log.Info("heteroserved stopped")
}
