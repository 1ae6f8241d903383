// Command migrate applies or rolls back the database schema.
//
//	migrate [--database-url DSN] up|down|status
package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/dom/notely/internal/config"
	"github.com/dom/notely/internal/migrate"
)

func main() {
	databaseURL := flag.String("database-url", "", "postgres DSN, defaults to DATABASE_URL")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: migrate [--database-url DSN] up|down|status\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	log, _ := zap.NewDevelopment()
	defer log.Sync()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	dsn := *databaseURL
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		dsn = config.Defaults().DatabaseURL
	}

	commands := map[string]func(context.Context, string) error{
		"up":     migrate.Up,
		"down":   migrate.Down,
		"status": migrate.Status,
	}
	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		flag.Usage()
		os.Exit(2)
	}

	if err := cmd(context.Background(), dsn); err != nil {
		log.Fatal("migrate failed", zap.String("command", flag.Arg(0)), zap.Error(err))
	}
	log.Info("migrate done", zap.String("command", flag.Arg(0)))
}
