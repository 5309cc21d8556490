package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/nasdf/nosqldb/config"
)

const usage = `Usage: nosqldb [flags] <command> <xml-file> [args]

Commands:
  show <file>                     print every record with its fingerprint
  export <file> [out]             re-encode the database to out or stdout
  query <file> <predicate>...     print the records matching every predicate
  car <file> <out> [key...]       write a content addressed snapshot as a CAR file
  persist <file>                  write the database to storage on the configured schedule

Predicates:
  children, no-children, name=<text>, meta=<text>, key=<text>, since=<time>, until=<time>

Flags:`

func main() {
	var (
		configFile  = flag.String("config", "", "Path to YAML config file")
		keyType     = flag.String("key-type", "", "Key type: int, string or uuid (overrides config)")
		payloadType = flag.String("payload-type", "", "Payload type: string, list or node (overrides config)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = *loaded
	}
	cfg.Merge(&config.Config{
		Store: config.Store{KeyType: *keyType, PayloadType: *payloadType},
	})
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	level, _ := cfg.Log.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{
		cfg:    &cfg,
		logger: logger,
		out:    os.Stdout,
	}
	if err := a.dispatch(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		log.Fatalf("Command %s failed: %v", flag.Arg(0), err)
	}
}
