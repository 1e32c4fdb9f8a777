// Package library keeps named example templates in SQLite so they can be
// listed and regenerated later.
package library

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/syntaxis/syntaxis/db"
	"github.com/syntaxis/syntaxis/errors"
	"github.com/syntaxis/syntaxis/logger"
	"github.com/syntaxis/syntaxis/template"
)

// Entry is a stored template.
type Entry struct {
	ID          int64             `db:"id" json:"id"`
	Template    string            `db:"template" json:"template"`
	Notation    template.Notation `db:"notation" json:"notation"`
	Description string            `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
}

// Parse parses the stored template text.
func (e *Entry) Parse() (*template.Template, error) {
	return template.Parse(e.Template)
}

// Library is the template store.
type Library struct {
	db     *sqlx.DB
	logger *zap.SugaredLogger
}

// New wraps an open, migrated database.
func New(conn *sql.DB, log *zap.SugaredLogger) *Library {
	return &Library{
		db:     sqlx.NewDb(conn, "sqlite3"),
		logger: logger.OrNop(log).With(logger.FieldComponent, "library"),
	}
}

const selectEntry = "SELECT id, template, notation, description, created_at FROM templates"

// Save validates and stores a template. Only templates that parse are
// accepted; an identical template already stored is a conflict.
func (l *Library) Save(ctx context.Context, text, description string) (*Entry, error) {
	text = strings.TrimSpace(text)
	tmpl, err := template.Parse(text)
	if err != nil {
		return nil, err
	}

	r, err := l.db.ExecContext(ctx,
		"INSERT INTO templates (template, notation, description) VALUES (?, ?, ?)",
		text, tmpl.Notation, description)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, errors.NewConflictError("template already stored: %s", text)
		}
		return nil, errors.Wrap(err, "failed to save template")
	}
	id, err := r.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read template id")
	}

	l.logger.Infow("template saved", "id", id, logger.FieldTemplate, text)
	return l.Get(ctx, id)
}

// List returns stored templates, newest first.
func (l *Library) List(ctx context.Context) ([]Entry, error) {
	var out []Entry
	if err := l.db.SelectContext(ctx, &out, selectEntry+" ORDER BY created_at DESC, id DESC"); err != nil {
		return nil, errors.Wrap(err, "failed to list templates")
	}
	return out, nil
}

// Get returns one template by id.
func (l *Library) Get(ctx context.Context, id int64) (*Entry, error) {
	var e Entry
	if err := l.db.GetContext(ctx, &e, selectEntry+" WHERE id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("template %d", id)
		}
		return nil, errors.Wrapf(err, "failed to read template %d", id)
	}
	return &e, nil
}

// Delete removes one template by id.
func (l *Library) Delete(ctx context.Context, id int64) error {
	r, err := l.db.ExecContext(ctx, "DELETE FROM templates WHERE id = ?", id)
	if err != nil {
		return errors.Wrapf(err, "failed to delete template %d", id)
	}
	n, err := r.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "failed to delete template %d", id)
	}
	if n == 0 {
		return errors.NewNotFoundError("template %d", id)
	}
	l.logger.Infow("template deleted", "id", id)
	return nil
}
