package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/pricesync/pkg/config"
	"github.com/angelmondragon/pricesync/pkg/db"
	"github.com/angelmondragon/pricesync/pkg/logger"
	"github.com/angelmondragon/pricesync/pkg/migrate"
)

type dbCommand func(ctx context.Context, sqlDB *sql.DB, dialect, dir string) error

// gooseCommands need a live connection; create and validate only touch files.
var gooseCommands = map[string]dbCommand{
	"up":     passthrough("up"),
	"down":   passthrough("down"),
	"redo":   passthrough("redo"),
	"status": passthrough("status"),
	"reset":  passthrough("reset"),
}

func passthrough(command string) dbCommand {
	return func(ctx context.Context, sqlDB *sql.DB, dialect, dir string) error {
		return migrate.Run(ctx, sqlDB, dialect, dir, command)
	}
}

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: "+commandList())
	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")
	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	switch *cmd {
	case "create":
		if *name == "" {
			exitf("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			exitf("failed to create migration: %v", err)
		}
		fmt.Println("created migration:", path)
		return

	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			exitf("migration validation failed:\n%v", err)
		}
		fmt.Println("migration validation passed")
		return
	}

	run, ok := gooseCommands[*cmd]
	if *cmd == "version" {
		if *version == "" {
			exitf("missing -version for version command")
		}
		run, ok = func(ctx context.Context, sqlDB *sql.DB, dialect, dir string) error {
			return migrate.MigrateToVersion(ctx, sqlDB, dialect, dir, *version)
		}, true
	}
	if !ok {
		exitf("unknown -cmd value %q (expected %s)", *cmd, commandList())
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dialect := migrate.DialectFor(cfg.DB)
	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"cmd":     *cmd,
		"dir":     *dir,
		"dialect": dialect,
	})

	if *cmd == "up" || *cmd == "redo" {
		err = migrate.ValidateDir(*dir)
		requireResource(ctx, logg, "migrations directory", err)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)

	logg.Info(ctx, "migrate ready")
	if err := run(ctx, sqlDB, dialect, *dir); err != nil {
		logg.Error(ctx, "migration command failed", err)
		dbClient.Close()
		os.Exit(1)
	}
	logg.Info(ctx, "migration command finished")
}

func commandList() string {
	names := []string{"create", "validate", "version"}
	for name := range gooseCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
