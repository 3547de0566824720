package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/inboz-admin/inboz-app-sub004/internal/config"
	"github.com/inboz-admin/inboz-app-sub004/internal/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func main() {
	// Parse command line flags
	dryRun := flag.Bool("dry-run", false, "Print migration SQL without executing it")
	dir := flag.String("dir", "migrations", "Directory containing migration files")
	flag.Parse()

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	files, err := upMigrations(*dir)
	if err != nil {
		logger.Fatalw("Failed to list migration files", "error", err)
	}
	if len(files) == 0 {
		logger.Fatalw("No migration files found", "dir", *dir)
	}

	if *dryRun {
		logger.Info("Dry run mode - printing migration SQL without executing")
		for _, f := range files {
			sql, err := os.ReadFile(f)
			if err != nil {
				logger.Fatalw("Failed to read migration file", "file", f, "error", err)
			}
			fmt.Printf("-- %s\n%s\n", filepath.Base(f), sql)
		}
		return
	}

	logger.Infow("Connecting to database", "host", cfg.Postgres.Host)
	db, err := sqlx.Open("postgres", cfg.Postgres.GetDSN())
	if err != nil {
		logger.Fatalw("Failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("Running database migrations...")
	for _, f := range files {
		sql, err := os.ReadFile(f)
		if err != nil {
			logger.Fatalw("Failed to read migration file", "file", f, "error", err)
		}
		if _, err := db.ExecContext(ctx, string(sql)); err != nil {
			logger.Fatalw("Failed to apply migration", "file", f, "error", err)
		}
		logger.Infow("Applied migration", "file", filepath.Base(f))
	}

	fmt.Println("Migration process completed")
}

// upMigrations returns the *.up.sql files in dir, ordered by filename.
func upMigrations(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".up.sql") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
