package commands

import (
	"context"
	"database/sql"

	"github.com/spf13/cobra"

	"github.com/syntaxis/syntaxis/am"
	"github.com/syntaxis/syntaxis/db"
	"github.com/syntaxis/syntaxis/errors"
	"github.com/syntaxis/syntaxis/generate"
	"github.com/syntaxis/syntaxis/lexicon"
	"github.com/syntaxis/syntaxis/logger"
)

// databasePath resolves the database location: --db flag, then config.
func databasePath(cmd *cobra.Command) (string, error) {
	if f := cmd.Flag("db"); f != nil && f.Value.String() != "" {
		return f.Value.String(), nil
	}
	cfg, err := am.Load()
	if err != nil {
		return "", errors.Wrap(err, "failed to load config")
	}
	return cfg.GetDatabasePath(), nil
}

// openDatabase opens and migrates the database selected for cmd.
func openDatabase(cmd *cobra.Command) (*sql.DB, error) {
	path, err := databasePath(cmd)
	if err != nil {
		return nil, err
	}
	conn, err := db.OpenWithMigrations(path, logger.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", path)
	}
	return conn, nil
}

// openStore returns a lexicon store, importing the built-in seeds into an
// empty database so a fresh install can generate straight away.
func openStore(ctx context.Context, conn *sql.DB) (*lexicon.Store, error) {
	store := lexicon.NewStore(conn, logger.Logger)
	stats, err := store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, s := range stats {
		total += s.Forms
	}
	if total > 0 {
		return store, nil
	}

	res, err := store.ImportBuiltin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to seed empty lexicon")
	}
	logger.Logger.Infow("Seeded empty lexicon with built-in words",
		"lexemes", res.Lexemes,
		"forms", res.Forms,
	)
	return store, nil
}

// newGenerator builds a generator from the loaded config. A non-zero seed
// overrides generation.seed.
func newGenerator(lex generate.Lexicon, seed uint64) (*generate.Generator, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if seed == 0 {
		seed = cfg.Generation.Seed
	}
	return generate.New(lex,
		generate.WithMaxAttempts(cfg.Generation.MaxAttempts),
		generate.WithSeed(seed),
		generate.WithLogger(logger.Logger),
	), nil
}
