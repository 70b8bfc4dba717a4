// Command milesight exports devices, codecs and settings from a Milesight
// gateway.
//
//	milesight [-config file] [-format json|yaml] [-publish] <command> [args]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/corgan2222/milesight-gateway-api/internal/config"
	"github.com/corgan2222/milesight-gateway-api/internal/export"
	"github.com/corgan2222/milesight-gateway-api/internal/publish"
)

func main() {
	os.Exit(run())
}

// run executes the command line and returns the exit code. Deferred cleanup
// runs before the process exits.
func run() int {
	var (
		configFile string
		format     string
		publishTo  bool
	)
	flag.StringVar(&configFile, "config", "", "Configuration file path (.env, .yaml or .json); env only when empty")
	flag.StringVar(&format, "format", "", "Output format, json or yaml (overrides EXPORT_FORMAT)")
	flag.BoolVar(&publishTo, "publish", false, "Also publish results to NATS_URL")
	flag.Usage = usage
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if flag.NArg() == 0 {
		usage()
		return 2
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		log.Error().Err(err).Msg("failed to load configuration")
		return 1
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if format != "" {
		cfg.Export.Format = format
	}
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return 1
	}

	a, err := newApp(cfg, os.Stdout)
	if err != nil {
		log.Error().Err(err).Msg("failed to create client")
		return 1
	}

	if publishTo {
		if cfg.NATS.URL == "" {
			log.Error().Msg("-publish requires NATS_URL")
			return 1
		}

		nc, err := publish.Connect(cfg.NATS.URL, "milesight-export", log.Logger)
		if err != nil {
			log.Error().Err(err).Msg("failed to connect to NATS")
			return 1
		}
		defer nc.Close()

		a.sink = publish.NewSink(nc, cfg.NATS.Subject, log.Logger)
		log.Info().Str("url", cfg.NATS.URL).Str("subject", cfg.NATS.Subject).Msg("connected to NATS")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx, flag.Args()); err != nil {
		log.Error().Err(err).Str("command", flag.Arg(0)).Msg("command failed")
		return 1
	}

	return 0
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s [flags] <command> [args]\n\nCommands:\n", os.Args[0])

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-14s %s\n", name, commands[name].help)
	}

	fmt.Fprintf(out, "\nFlags:\n")
	flag.PrintDefaults()
	fmt.Fprintf(out, "\nFormats: %s, %s\n", export.FormatJSON, export.FormatYAML)
}
