// Package main is the entry point for the voltage command line client.
//
// voltage browses and edits the engineering blog backed by the in-memory
// database. Local storage (session and comments) lives in the data directory,
// in memory or in Redis depending on config.json.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/imserv/voltage/internal/auth"
	"github.com/imserv/voltage/internal/blog"
	"github.com/imserv/voltage/internal/config"
	"github.com/imserv/voltage/internal/localstore"
	"github.com/imserv/voltage/internal/mockdb"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "voltage: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	version := flag.Bool("version", false, "Print version and exit")
	dataDir := flag.String("data-dir", "./data", "Data directory")
	logLevel := flag.String("log-level", "warn", "Log level (debug, info, warn, error)")
	flag.Usage = usage
	flag.Parse()

	if *version {
		printVersion()
		return nil
	}
	if flag.NArg() == 0 {
		usage()
		return errors.New("missing command")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	ll := &slog.LevelVar{}
	switch *logLevel {
	case "debug":
		ll.Set(slog.LevelDebug)
	case "info":
		ll.Set(slog.LevelInfo)
	case "warn":
		ll.Set(slog.LevelWarn)
	case "error":
		ll.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %q", *logLevel)
	}
	slog.SetDefault(newLogger(ll))

	if err := os.MkdirAll(*dataDir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	cfg, err := config.Load(*dataDir)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", config.FileName, err)
	}

	local, closeLocal, err := openLocal(ctx, cfg, *dataDir)
	if err != nil {
		return err
	}
	defer closeLocal()

	var dbOpts []mockdb.Option
	if path := cfg.SeedPath(*dataDir); path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from config.json
		if err != nil {
			return fmt.Errorf("failed to read seed: %w", err)
		}
		tables, err := mockdb.ParseSeed(data)
		if err != nil {
			return fmt.Errorf("failed to parse seed %s: %w", path, err)
		}
		dbOpts = append(dbOpts, mockdb.WithTables(tables))
		slog.InfoContext(ctx, "Loaded seed", "path", path)
	}
	db := mockdb.NewStore(local, dbOpts...)

	a := auth.New(local, db, navigator(os.Stderr), cfg.JWTSecret, auth.WithRateLimit(cfg.RateLimits.AuthRatePerMin))
	app := &app{
		cfg:   cfg,
		local: local,
		db:    db,
		auth:  a,
		blog:  blog.New(db, a, blog.WithPageSize(cfg.PageSize)),
		out:   os.Stdout,
	}
	return app.run(ctx, flag.Args())
}

func newLogger(level slog.Leveler) *slog.Logger {
	return slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			val := a.Value.Any()
			skip := false
			switch t := val.(type) {
			case string:
				skip = t == ""
			case bool:
				skip = !t
			case int64:
				skip = t == 0
			case time.Duration:
				skip = t == 0
			case nil:
				skip = true
			}
			if skip {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// openLocal opens the configured local storage backend. The returned func
// releases it.
func openLocal(ctx context.Context, cfg *config.Config, dataDir string) (localstore.Store, func(), error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return localstore.NewMemory(), func() {}, nil
	case config.BackendRedis:
		r, err := localstore.DialRedis(ctx, cfg.Storage.RedisAddr, cfg.Storage.RedisPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return r, func() { _ = r.Close() }, nil
	default:
		f, err := localstore.NewFile(filepath.Join(dataDir, "local.jsonl"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open local storage: %w", err)
		}
		return f, func() {}, nil
	}
}

// navigator reports redirects on w since there is no page to load.
func navigator(w io.Writer) auth.Navigator {
	return auth.NavigatorFunc(func(ctx context.Context, target string) {
		slog.DebugContext(ctx, "Navigate", "target", target)
		fmt.Fprintf(w, "-> %s\n", target)
	})
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "usage: voltage [flags] <command> [args]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(out, "  %-11s %s\n", c.name, c.help)
	}
	fmt.Fprintf(out, "\nFlags:\n")
	flag.PrintDefaults()
}

func printVersion() {
	version, goVersion, revision, dirty := getBuildInfo()
	fmt.Printf("voltage %s\n", version)
	fmt.Printf("  Go version: %s\n", goVersion)
	fmt.Printf("  Revision:   %s\n", revision)
	if dirty {
		fmt.Printf("  Modified:   true\n")
	}
}

func getBuildInfo() (version, goVersion, revision string, dirty bool) {
	version = "unknown"
	goVersion = "unknown"
	revision = "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	version = info.Main.Version
	if version == "" || version == "(devel)" {
		version = "dev"
	}
	goVersion = info.GoVersion
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	return
}
