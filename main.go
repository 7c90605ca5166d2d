package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"animalitos-stats/config"
	"animalitos-stats/models"
	"animalitos-stats/utils"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitNotFound = 2
	exitParse    = 3
	exitSchema   = 4
)

const usage = `Usage:
  animalitos-stats [report] [--input results.csv] [--group-by hour] [--mode text|chart|telegram]
                   [--source csv|postgres|sqlite] [--chart-out path] [--config file]
  animalitos-stats scrape [--from YYYY-MM-DD] [--to YYYY-MM-DD] [--out results.csv]
                   [--archive postgres|sqlite] [--config file]
  animalitos-stats serve [--addr :8080] [--input results.csv] [--source csv|postgres|sqlite]
                   [--config file]
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd := "report"
	if len(args) > 0 {
		switch args[0] {
		case "report", "scrape", "serve":
			cmd, args = args[0], args[1:]
		case "help", "-h", "--help":
			fmt.Fprint(os.Stderr, usage)
			return exitOK
		}
	}

	switch cmd {
	case "scrape":
		return runScrape(args)
	case "serve":
		return runServe(args)
	default:
		return runReport(args)
	}
}

// exitCode maps an error kind to the process exit status.
func exitCode(err error) int {
	var (
		notFound *models.NotFoundError
		parse    *models.ParseError
		schema   *models.SchemaError
	)
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &notFound):
		return exitNotFound
	case errors.As(err, &parse):
		return exitParse
	case errors.As(err, &schema):
		return exitSchema
	default:
		return exitFailure
	}
}

// loadConfig reads the config file named by the --config flag. Errors are
// reported on stderr with a default logger since the configured level is not
// known yet.
func loadConfig(path string) (*config.Config, bool) {
	cfg, err := config.Load(path)
	if err != nil {
		utils.NewLogger("info").Error("[main] %v", err)
		return nil, false
	}
	return cfg, true
}

// parseFlags parses a subcommand's flags. ok is false when the command should
// stop, with code holding the exit status.
func parseFlags(fs *flag.FlagSet, args []string) (code int, ok bool) {
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK, false
		}
		return exitFailure, false
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %v\n\n%s", fs.Args(), usage)
		return exitFailure, false
	}
	return exitOK, true
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
