// Command migrate manages the Inkwell database schema.
//
//	migrate up              apply pending SQL migrations (postgres)
//	migrate down <version>  revert one SQL migration (postgres)
//	migrate auto            run GORM AutoMigrate for the models
//	migrate status          show the schema mode and pending migrations
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/middleware"
)

var errUsage = errors.New("usage: migrate <up|down VERSION|auto|status>")

func main() {
	flag.Parse()
	if err := run(context.Background(), flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	middleware.InitLogger(cfg.Env, cfg.LogLevel)

	if cfg.DBDriver == "sqlite" && (args[0] == "up" || args[0] == "down") {
		return fmt.Errorf("%s: the SQL migrations target postgres; use `migrate auto` with sqlite", args[0])
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = database.Close(db) }()
	migrator := database.NewMigrator(db)

	switch args[0] {
	case "up":
		n, err := migrator.Up(ctx)
		if err != nil {
			return err
		}
		log.Printf("applied %d migration(s)", n)
	case "down":
		if len(args) < 2 {
			return errUsage
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("version %q: %w", args[1], err)
		}
		if err := migrator.Down(ctx, version); err != nil {
			return err
		}
		log.Printf("reverted migration %06d", version)
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return err
		}
		log.Println("models migrated")
	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return err
		}
		log.Printf("driver=%s mode=%s sql=%t auto=%t applied=%v",
			cfg.DBDriver, status.Mode, status.WillRunSQL, status.WillRunAutoMigrate, status.AppliedVersions)
		for _, m := range status.PendingMigrations {
			log.Printf("pending %s", m.String())
		}
	default:
		return errUsage
	}
	return nil
}
