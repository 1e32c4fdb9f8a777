// Package lexicon stores inflected words in SQLite and serves them to the
// generator. Seeds in a small YAML format fill the store; a Greek article
// paradigm and a starter vocabulary are embedded in the binary.
package lexicon

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/syntaxis/syntaxis/errors"
	"github.com/syntaxis/syntaxis/generate"
	"github.com/syntaxis/syntaxis/grammar"
	"github.com/syntaxis/syntaxis/logger"
)

// columns whitelists the form columns a lookup may filter on.
var columns = map[grammar.Category]string{
	grammar.Case:   `f."case"`,
	grammar.Gender: "f.gender",
	grammar.Number: "f.number",
	grammar.Tense:  "f.tense",
	grammar.Voice:  "f.voice",
	grammar.Mood:   "f.mood",
	grammar.Person: "f.person",
	grammar.Type:   "f.type",
}

// Store is a SQLite lexicon. It implements generate.Lexicon and is safe for
// concurrent use.
type Store struct {
	db     *sqlx.DB
	logger *zap.SugaredLogger
}

var _ generate.Lexicon = (*Store)(nil)

// NewStore wraps an open, migrated database.
func NewStore(db *sql.DB, log *zap.SugaredLogger) *Store {
	return &Store{
		db:     sqlx.NewDb(db, "sqlite3"),
		logger: logger.OrNop(log).With(logger.FieldComponent, "lexicon"),
	}
}

type formRow struct {
	LexemeID int64  `db:"lexeme_id"`
	Lemma    string `db:"lemma"`
	Form     string `db:"form"`
}

// LookupWord picks a random form of pos carrying every requested feature.
// Categories not requested are not filtered on. No row yields
// generate.ErrNoMatch.
func (s *Store) LookupWord(ctx context.Context, pos string, features map[grammar.Category]string) (*generate.Word, error) {
	query, args, err := lookupQuery(pos, features)
	if err != nil {
		return nil, err
	}

	var row formRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(generate.ErrNoMatch, "%s %v", pos, args[1:])
		}
		return nil, errors.Wrapf(err, "failed to query %s forms", pos)
	}

	var translations []string
	err = s.db.SelectContext(ctx, &translations,
		"SELECT translation FROM translations WHERE lexeme_id = ? ORDER BY translation", row.LexemeID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load translations of %s", row.Lemma)
	}

	s.logger.Debugw("lexicon hit",
		logger.FieldPOS, pos,
		logger.FieldLemma, row.Lemma,
		logger.FieldForm, row.Form,
	)
	return &generate.Word{Lemma: row.Lemma, Form: row.Form, Translations: translations}, nil
}

// lookupQuery builds the form query. Filters follow catalog order so the
// statement text is stable for a given feature set.
func lookupQuery(pos string, features map[grammar.Category]string) (string, []any, error) {
	for cat := range features {
		if _, ok := columns[cat]; !ok {
			return "", nil, errors.NewInvalidRequestError("unknown category %q", cat)
		}
	}

	var b strings.Builder
	b.WriteString("SELECT l.id AS lexeme_id, l.lemma, f.form FROM forms f")
	b.WriteString(" JOIN lexemes l ON l.id = f.lexeme_id WHERE l.pos = ?")
	args := []any{pos}
	for _, cat := range grammar.Categories {
		v, ok := features[cat]
		if !ok {
			continue
		}
		b.WriteString(" AND ")
		b.WriteString(columns[cat])
		b.WriteString(" = ?")
		args = append(args, v)
	}
	b.WriteString(" ORDER BY RANDOM() LIMIT 1")
	return b.String(), args, nil
}

// ImportResult counts the rows an import added. Rows already present are
// not counted.
type ImportResult struct {
	Lexemes      int `json:"lexemes"`
	Forms        int `json:"forms"`
	Translations int `json:"translations"`
}

func (r *ImportResult) add(o ImportResult) {
	r.Lexemes += o.Lexemes
	r.Forms += o.Forms
	r.Translations += o.Translations
}

// formRecord is a forms row; NULL columns are unmarked categories.
type formRecord struct {
	LexemeID int64          `db:"lexeme_id"`
	Form     string         `db:"form"`
	Case     sql.NullString `db:"case"`
	Gender   sql.NullString `db:"gender"`
	Number   sql.NullString `db:"number"`
	Tense    sql.NullString `db:"tense"`
	Voice    sql.NullString `db:"voice"`
	Mood     sql.NullString `db:"mood"`
	Person   sql.NullString `db:"person"`
	Type     sql.NullString `db:"type"`
}

func newFormRecord(lexemeID int64, form string, features map[grammar.Category]string) formRecord {
	col := func(c grammar.Category) sql.NullString {
		v, ok := features[c]
		return sql.NullString{String: v, Valid: ok}
	}
	return formRecord{
		LexemeID: lexemeID,
		Form:     form,
		Case:     col(grammar.Case),
		Gender:   col(grammar.Gender),
		Number:   col(grammar.Number),
		Tense:    col(grammar.Tense),
		Voice:    col(grammar.Voice),
		Mood:     col(grammar.Mood),
		Person:   col(grammar.Person),
		Type:     col(grammar.Type),
	}
}

const insertForm = `INSERT OR IGNORE INTO forms
	(lexeme_id, form, "case", gender, number, tense, voice, mood, person, type)
	VALUES (:lexeme_id, :form, :case, :gender, :number, :tense, :voice, :mood, :person, :type)`

// Import writes a seed in one transaction. Parts of speech and feature names
// are canonicalised through the catalog; unknown names, wildcards and empty
// forms reject the whole seed.
func (s *Store) Import(ctx context.Context, seed *Seed) (ImportResult, error) {
	var res ImportResult

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return res, errors.Wrap(err, "failed to begin import")
	}
	defer tx.Rollback()

	for _, lx := range seed.Lexemes {
		n, err := importLexeme(ctx, tx, lx)
		if err != nil {
			return ImportResult{}, errors.Wrapf(err, "seed %q", seed.Name)
		}
		res.add(n)
	}

	if err := tx.Commit(); err != nil {
		return ImportResult{}, errors.Wrap(err, "failed to commit import")
	}
	s.logger.Infow("seed imported",
		"seed", seed.Name,
		"lexemes", res.Lexemes,
		"forms", res.Forms,
		"translations", res.Translations,
	)
	return res, nil
}

func importLexeme(ctx context.Context, tx *sqlx.Tx, lx SeedLexeme) (ImportResult, error) {
	var res ImportResult

	lemma := normalize(lx.Lemma)
	if lemma == "" {
		return res, errors.NewInvalidRequestError("lexeme without lemma")
	}
	pos, err := grammar.PartOfSpeech(lx.PartOfSpeech)
	if err != nil {
		return res, errors.Wrapf(err, "lexeme %s", lemma)
	}

	r, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO lexemes (lemma, pos) VALUES (?, ?)", lemma, pos)
	if err != nil {
		return res, errors.Wrapf(err, "failed to insert lexeme %s", lemma)
	}
	res.Lexemes += affected(r)

	var id int64
	if err := tx.GetContext(ctx, &id, "SELECT id FROM lexemes WHERE lemma = ? AND pos = ?", lemma, pos); err != nil {
		return res, errors.Wrapf(err, "failed to read lexeme %s", lemma)
	}

	for _, f := range lx.Forms {
		form := normalize(f.Form)
		if form == "" {
			return res, errors.NewInvalidRequestError("%s: empty form", lemma)
		}
		features, err := canonicalForm(lemma, f)
		if err != nil {
			return res, err
		}
		r, err := tx.NamedExecContext(ctx, insertForm, newFormRecord(id, form, features))
		if err != nil {
			return res, errors.Wrapf(err, "failed to insert form %s of %s", form, lemma)
		}
		res.Forms += affected(r)
	}

	for _, t := range lx.Translations {
		r, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO translations (lexeme_id, translation) VALUES (?, ?)", id, normalize(t))
		if err != nil {
			return res, errors.Wrapf(err, "failed to insert translation of %s", lemma)
		}
		res.Translations += affected(r)
	}
	return res, nil
}

// normalize trims s and composes accents (NFC), so a lemma typed with
// combining marks matches its precomposed spelling.
func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func affected(r sql.Result) int {
	n, err := r.RowsAffected()
	if err != nil {
		return 0
	}
	return int(n)
}

// ImportBuiltin imports every embedded seed.
func (s *Store) ImportBuiltin(ctx context.Context) (ImportResult, error) {
	var total ImportResult
	seeds, err := BuiltinSeeds()
	if err != nil {
		return total, err
	}
	for _, seed := range seeds {
		res, err := s.Import(ctx, seed)
		if err != nil {
			return total, err
		}
		total.add(res)
	}
	return total, nil
}

// PartOfSpeechStats counts the stored words of one part of speech.
type PartOfSpeechStats struct {
	PartOfSpeech string `db:"pos" json:"pos"`
	Lexemes      int    `db:"lexemes" json:"lexemes"`
	Forms        int    `db:"forms" json:"forms"`
}

// Stats reports lexeme and form counts per part of speech, by name.
func (s *Store) Stats(ctx context.Context) ([]PartOfSpeechStats, error) {
	var out []PartOfSpeechStats
	err := s.db.SelectContext(ctx, &out, `SELECT l.pos AS pos,
		COUNT(DISTINCT l.id) AS lexemes, COUNT(f.id) AS forms
		FROM lexemes l LEFT JOIN forms f ON f.lexeme_id = l.id
		GROUP BY l.pos ORDER BY l.pos`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read lexicon stats")
	}
	return out, nil
}
