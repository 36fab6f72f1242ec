package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/bttglc/grillo/internal/config"
	"github.com/bttglc/grillo/internal/store"
)

// Version is set via ldflags at build time.
var Version = "0.1.0"

// Exit codes
const (
	ExitOK       = 0
	ExitUsage    = 2
	ExitInternal = 10
)

// ErrInput is returned when the interactive selection cannot be read from stdin.
var ErrInput = errors.New("reading input")

type GlobalFlags struct {
	DB           string
	ExportDir    string
	JSON         bool
	NDJSON       bool
	StdoutJSON   bool
	StdoutNDJSON bool
	ASCII        bool
	Quiet        bool
	Verbose      bool
}

// App carries everything a command needs for one invocation. The store is
// opened on first use so help and version never touch the database.
type App struct {
	Flags  GlobalFlags
	Config config.Config
	In     *bufio.Reader
	Out    io.Writer
	Err    io.Writer
	Log    *log.Logger

	store *store.Store
}

func (a *App) Store() (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	a.Log.Debug("opening task database", "path", a.Config.DBPath)
	s, err := store.Open(a.Config.DBPath, store.WithLogger(a.Log))
	if err != nil {
		return nil, err
	}
	if s.Seeded() {
		a.Log.Info("created new task database with sample tasks", "path", s.Path())
	}
	a.store = s
	return s, nil
}

func (a *App) Close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.Log.Warn("closing task database", "err", err)
	}
	a.store = nil
}

func Run(args []string) int {
	return RunIO(args, os.Stdin, os.Stdout, os.Stderr)
}

// RunIO runs one grillo command against the given streams and returns the exit code.
func RunIO(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	gf, rest, err := extractGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return ExitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "grillo:", err)
		return ExitUsage
	}
	applyFlags(&cfg, gf)

	logger, err := newLogger(stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(stderr, "grillo:", err)
		return ExitUsage
	}
	if cfg.Source != "" {
		logger.Debug("loaded config", "file", cfg.Source)
	}

	app := &App{
		Flags:  gf,
		Config: cfg,
		In:     bufio.NewReader(stdin),
		Out:    stdout,
		Err:    stderr,
		Log:    logger,
	}
	defer app.Close()

	if len(rest) == 0 {
		printHelp(stdout)
		return ExitOK
	}

	cmd := rest[0]
	cmdArgs := rest[1:]

	switch cmd {
	case "help", "--help", "-h":
		printHelp(stdout)
		return ExitOK
	case "version", "--version":
		fmt.Fprintln(stdout, "grillo", Version)
		return ExitOK
	case "add":
		return cmdAdd(app, cmdArgs)
	case "ls":
		return cmdList(app, cmdArgs)
	case "del":
		return deleteCommand.run(app, cmdArgs)
	case "done":
		return doneCommand.run(app, cmdArgs)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", cmd)
		printHelp(stderr)
		return ExitUsage
	}
}

func printHelp(w io.Writer) {
	fmt.Fprint(w, `grillo: a to-do list CLI following the GTD method

Usage:
  grillo [global flags] <command> [args]

Global flags:
  --db <path>      Task database (default: tasks.db or GRILLO_DB)
  --json           Write JSON output to <export-dir> (no stdout JSON)
  --ndjson         Write NDJSON output to <export-dir> (no stdout NDJSON)
  --stdout-json    Allow JSON to stdout
  --stdout-ndjson  Allow NDJSON to stdout
  --export-dir     Override export directory (default: exports)
  --ascii          ASCII status symbols
  --quiet
  --verbose

Commands:
  add "<description>" [--scheduled YYYY-MM-DD] [--deadline YYYY-MM-DD] [--context N] [--project N]
  ls
  del [id...]      Delete tasks (prompts when no ids are given)
  done [id...]     Mark tasks as done (prompts when no ids are given)
  version
`)
}

func extractGlobalFlags(args []string) (GlobalFlags, []string, error) {
	// Allow flags anywhere by scanning and stripping known globals.
	gf := GlobalFlags{}
	out := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			out = append(out, args[i:]...)
			break
		}
		name, value, hasValue := strings.Cut(a, "=")
		switch name {
		case "--db", "--export-dir":
			if !hasValue {
				if i+1 >= len(args) {
					return gf, nil, fmt.Errorf("%s requires a value", name)
				}
				value = args[i+1]
				i++
			}
			if name == "--db" {
				gf.DB = value
			} else {
				gf.ExportDir = value
			}
		case "--json":
			gf.JSON = true
		case "--ndjson":
			gf.NDJSON = true
		case "--stdout-json":
			gf.StdoutJSON = true
		case "--stdout-ndjson":
			gf.StdoutNDJSON = true
		case "--ascii":
			gf.ASCII = true
		case "--quiet":
			gf.Quiet = true
		case "--verbose":
			gf.Verbose = true
		default:
			out = append(out, a)
		}
	}

	if gf.JSON && gf.NDJSON {
		return gf, nil, errors.New("--json and --ndjson are mutually exclusive")
	}
	if gf.StdoutJSON && !gf.JSON {
		return gf, nil, errors.New("--stdout-json requires --json")
	}
	if gf.StdoutNDJSON && !gf.NDJSON {
		return gf, nil, errors.New("--stdout-ndjson requires --ndjson")
	}
	if gf.Quiet && gf.Verbose {
		return gf, nil, errors.New("--quiet and --verbose are mutually exclusive")
	}
	return gf, out, nil
}

func applyFlags(cfg *config.Config, gf GlobalFlags) {
	if strings.TrimSpace(gf.DB) != "" {
		cfg.DBPath = strings.TrimSpace(gf.DB)
	}
	if strings.TrimSpace(gf.ExportDir) != "" {
		cfg.ExportDir = strings.TrimSpace(gf.ExportDir)
	}
	if gf.ASCII {
		cfg.ASCII = true
	}
	switch {
	case gf.Verbose:
		cfg.LogLevel = "debug"
	case gf.Quiet:
		cfg.LogLevel = "error"
	}
}
