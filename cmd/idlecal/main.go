package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/Veraticus/idlecal/pkg/calendar"
	"github.com/Veraticus/idlecal/pkg/config"
	"github.com/Veraticus/idlecal/pkg/credential"
	"github.com/Veraticus/idlecal/pkg/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath string
		storeToken string
		verbose    bool
		list       bool
		help       bool
	)

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flag.BoolVar(&list, "list", false, "Print upcoming events and exit")
	flag.StringVar(&storeToken, "store-token", "", "Import an authorized-user token file into the OS keyring and exit")
	flag.BoolVarP(&help, "help", "h", false, "Show help message")
	flag.Parse()

	if help {
		printUsage()
		return 0
	}

	if configPath != "" {
		if err := os.Setenv("IDLECAL_CONFIG", configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error setting config path: %v\n", err)
			return 1
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}
	if verbose {
		cfg.Verbose = true
	}

	log.Init(log.Options{
		Verbose:    cfg.Verbose,
		JSONFormat: cfg.LogFormat == "json",
	})
	log.Debug("configuration loaded", "path", cfg.Path(), "source", cfg.Source)

	if storeToken != "" {
		if err := importToken(storeToken); err != nil {
			fmt.Fprintf(os.Stderr, "Error storing token: %v\n", err)
			return 1
		}
		fmt.Println("Token stored in the OS keyring. Set token_store: keyring to use it.")
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := NewDependencies(ctx, cfg, calendar.TokenStore(cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, credential.ErrTokenNotFound) {
			printTokenHelp(cfg)
		}
		return 1
	}

	app := NewApplication(deps)

	if !list && !isTerminal(os.Stdin) {
		fmt.Fprintf(os.Stderr, "Error: idlecal draws its overlay on the controlling terminal; run it from an interactive terminal\n")
		return 1
	}

	if list {
		if err := app.List(ctx, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error listing events: %v\n", err)
			return 1
		}
		return 0
	}

	// Restore the terminal if anything below panics while the overlay is up.
	defer func() {
		if r := recover(); r != nil {
			_ = deps.View.Hide()
			panic(r)
		}
	}()

	if err := app.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// importToken validates a token file and saves it to the keyring.
func importToken(path string) error {
	data, err := credential.NewFileStore(path).Load()
	if err != nil {
		return err
	}
	return credential.NewKeyringStore().Save(data)
}

func printTokenHelp(cfg *config.Config) {
	fmt.Fprintf(os.Stderr, "\nidlecal needs an authorized Google Calendar token. You can fix this by:\n")
	if cfg.TokenStore == config.TokenStoreKeyring {
		fmt.Fprintf(os.Stderr, "1. Running the authorization flow once to produce token.json\n")
		fmt.Fprintf(os.Stderr, "2. Importing it with: idlecal --store-token token.json\n")
	} else {
		fmt.Fprintf(os.Stderr, "1. Running the authorization flow once to produce %s\n", cfg.ResolveTokenFile())
		fmt.Fprintf(os.Stderr, "2. Setting token_file in your config file or IDLECAL_TOKEN_FILE\n")
	}
	fmt.Fprintf(os.Stderr, "3. Or switching to an iCalendar feed with source: ics and ics_url\n")
}

func printUsage() {
	fmt.Println("idlecal - calendar overlay for idle screens")
	fmt.Println()
	fmt.Println("Usage: idlecal [OPTIONS]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  IDLECAL_CONFIG            Path to config file")
	fmt.Println("  IDLECAL_IDLE_THRESHOLD    Idle time before the overlay appears (default: 10s)")
	fmt.Println("  IDLECAL_CHECK_INTERVAL    Idle polling period (default: 2s)")
	fmt.Println("  IDLECAL_IDLE_COMMAND      Command printing idle milliseconds (overrides the platform probe)")
	fmt.Println("  IDLECAL_REFRESH           Calendar refresh schedule (default: @every 15m)")
	fmt.Println("  IDLECAL_FETCH_TIMEOUT     Calendar request timeout (default: 10s)")
	fmt.Println("  IDLECAL_SOURCE            google or ics (default: google)")
	fmt.Println("  IDLECAL_CALENDAR_ID       Google calendar ID (default: primary)")
	fmt.Println("  IDLECAL_ICS_URL           iCalendar feed URL for the ics source")
	fmt.Println("  IDLECAL_TOKEN_STORE       file or keyring (default: file)")
	fmt.Println("  IDLECAL_TOKEN_FILE        Token file (default: token.json beside the config)")
	fmt.Println("  IDLECAL_SNOOZE_OPTIONS    Snooze choices, minutes or durations (default: 5,15,30)")
	fmt.Println("  IDLECAL_VERBOSE           Enable debug logging (true/false)")
	fmt.Println("  IDLECAL_LOG_FORMAT        text or json (default: text)")
	fmt.Println()
	fmt.Println("Configuration file: ~/.config/idlecal/config.yaml")
}
