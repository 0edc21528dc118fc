// Command dictload loads a newline-delimited term file into the PostgreSQL
// dictionary table used by the annotator and pipeline services.
//
// Usage:
//
//	go run ./cmd/dictload -dictionary places -file terms/places.txt [-config configs/development.yaml]
package main

import (
	"bufio"
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/annotext/annotation-platform/pkg/config"
	"github.com/annotext/annotation-platform/pkg/logger"
	"github.com/annotext/annotation-platform/pkg/postgres"
	"github.com/annotext/annotation-platform/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	dictName := flag.String("dictionary", "", "dictionary name to load terms into")
	termFile := flag.String("file", "", "path to newline-delimited term file")
	flag.Parse()

	if *dictName == "" || *termFile == "" {
		fmt.Fprintln(os.Stderr, "usage: dictload -dictionary <name> -file <path> [-config <path>]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	terms, err := readTerms(*termFile)
	if err != nil {
		slog.Error("failed to read term file", "file", *termFile, "error", err)
		os.Exit(1)
	}
	if len(terms) == 0 {
		slog.Warn("term file contains no terms", "file", *termFile)
		return
	}

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	table := cfg.Dictionary.Table
	err = resilience.Retry(ctx, "dictload-insert", resilience.RetryConfig{}, func() error {
		return db.InTx(ctx, func(tx *sql.Tx) error {
			return insertTerms(ctx, tx, table, *dictName, terms)
		})
	})
	if err != nil {
		slog.Error("failed to insert terms", "dictionary", *dictName, "error", err)
		os.Exit(1)
	}

	slog.Info("terms loaded",
		"dictionary", *dictName,
		"terms", len(terms),
		"table", table,
		"duration", time.Since(start),
	)
}

// readTerms reads one term per line, skipping blank lines.
func readTerms(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var terms []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		term := strings.TrimSpace(scanner.Text())
		if term == "" {
			continue
		}
		terms = append(terms, term)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return terms, nil
}

// insertTerms ensures the table exists and upserts the terms so reruns are
// idempotent.
func insertTerms(ctx context.Context, tx *sql.Tx, table, dictionary string, terms []string) error {
	_, err := tx.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			dictionary TEXT NOT NULL,
			term       TEXT NOT NULL,
			PRIMARY KEY (dictionary, term)
		)`, table))
	if err != nil {
		return fmt.Errorf("creating table %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (dictionary, term) VALUES ($1, $2) ON CONFLICT DO NOTHING`, table))
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, term := range terms {
		if _, err := stmt.ExecContext(ctx, dictionary, term); err != nil {
			return fmt.Errorf("inserting term %q: %w", term, err)
		}
	}
	return nil
}
