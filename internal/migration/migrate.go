// Package migration applies the embedded schema migrations with golang-migrate.
package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	// registers the "postgres" database/sql driver
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var migrations embed.FS

// Migrator is the subset of *migrate.Migrate the runner drives
type Migrator interface {
	Up() error
	Version() (uint, bool, error)
	Close() (error, error)
}

// Engine builds a Migrator for a database URL. Tests swap it for a mock.
type Engine func(databaseURL string) (Migrator, error)

// DefaultEngine reads migrations from the embedded sql directory and applies them
// over a lib/pq connection. Closing the Migrator closes the connection.
func DefaultEngine(databaseURL string) (Migrator, error) {
	source, err := iofs.New(migrations, "sql")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare migration driver: %w", err)
	}
	return migrate.NewWithInstance("iofs", source, "postgres", driver)
}

// Runner applies migrations to one database
type Runner struct {
	databaseURL string
	engine      Engine
	logger      *zap.Logger
}

// NewRunner creates a new Runner. A nil engine uses DefaultEngine.
func NewRunner(databaseURL string, engine Engine, logger *zap.Logger) *Runner {
	if engine == nil {
		engine = DefaultEngine
	}
	return &Runner{
		databaseURL: databaseURL,
		engine:      engine,
		logger:      logger,
	}
}

// Up applies every pending migration. An up-to-date schema is not an error.
func (r *Runner) Up() (err error) {
	m, err := r.engine(r.databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() {
		serr, dberr := m.Close()
		if serr != nil {
			if err != nil {
				err = fmt.Errorf("%w; migration source error: %v", err, serr)
			} else {
				err = serr
			}
		}
		if dberr != nil {
			if err != nil {
				err = fmt.Errorf("%w; migration database error: %v", err, dberr)
			} else {
				err = dberr
			}
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			r.logger.Info("database schema is up to date")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, verr := m.Version()
	if verr != nil {
		r.logger.Warn("failed to read schema version", zap.Error(verr))
		return nil
	}
	r.logger.Info("database migrations applied",
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}
