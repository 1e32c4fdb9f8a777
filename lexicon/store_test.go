package lexicon

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/syntaxis/syntaxis/errors"
	"github.com/syntaxis/syntaxis/generate"
	"github.com/syntaxis/syntaxis/grammar"
	qtest "github.com/syntaxis/syntaxis/internal/testing"
)

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(qtest.CreateTestDB(t), zaptest.NewLogger(t).Sugar())
	_, err := s.ImportBuiltin(context.Background())
	require.NoError(t, err)
	return s
}

func nominal(c, g, n string) map[grammar.Category]string {
	return map[grammar.Category]string{grammar.Case: c, grammar.Gender: g, grammar.Number: n}
}

func TestLookupWord(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		pos       string
		features  map[grammar.Category]string
		wantLemma string
		wantForm  string
	}{
		{"definite article", "article", map[grammar.Category]string{
			grammar.Case: "acc", grammar.Gender: "fem", grammar.Number: "sg", grammar.Type: "definite",
		}, "ο", "την"},
		{"indefinite article", "article", map[grammar.Category]string{
			grammar.Case: "gen", grammar.Gender: "masc", grammar.Number: "sg", grammar.Type: "indefinite",
		}, "ένας", "ενός"},
		{"plural article", "article", nominal("acc", "masc", "pl"), "ο", "τους"},
		{"noun", "noun", nominal("gen", "masc", "pl"), "άνθρωπος", "ανθρώπων"},
		{"verb", "verb", map[grammar.Category]string{
			grammar.Tense: "aorist", grammar.Voice: "active", grammar.Person: "ter", grammar.Number: "sg",
		}, "", ""},
		{"strong pronoun", "pronoun", map[grammar.Category]string{
			grammar.Case: "nom", grammar.Person: "pri", grammar.Number: "pl", grammar.Type: "personal_strong",
		}, "εγώ", "εμείς"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := s.LookupWord(ctx, tt.pos, tt.features)
			require.NoError(t, err)
			if tt.wantLemma != "" {
				assert.Equal(t, tt.wantLemma, w.Lemma)
				assert.Equal(t, tt.wantForm, w.Form)
			}
			assert.NotEmpty(t, w.Translations)
		})
	}
}

func TestLookupWordVerbFormsAgree(t *testing.T) {
	s := seededStore(t)
	want := map[string]string{"βλέπω": "είδε", "γράφω": "έγραψε", "αγαπώ": "αγάπησε"}

	for i := 0; i < 20; i++ {
		w, err := s.LookupWord(context.Background(), "verb", map[grammar.Category]string{
			grammar.Tense: "aorist", grammar.Voice: "active", grammar.Person: "ter", grammar.Number: "sg",
		})
		require.NoError(t, err)
		assert.Equal(t, want[w.Lemma], w.Form)
	}
}

func TestLookupWordTranslationsSorted(t *testing.T) {
	s := seededStore(t)
	w, err := s.LookupWord(context.Background(), "noun", nominal("nom", "fem", "sg"))
	require.NoError(t, err)
	if w.Lemma == "γυναίκα" {
		assert.Equal(t, []string{"wife", "woman"}, w.Translations)
	}
}

func TestLookupWordNoMatch(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	// the article has no vocative
	_, err := s.LookupWord(ctx, "article", nominal("voc", "masc", "sg"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, generate.ErrNoMatch))

	// the indefinite article has no plural
	_, err = s.LookupWord(ctx, "article", map[grammar.Category]string{
		grammar.Case: "nom", grammar.Gender: "fem", grammar.Number: "pl", grammar.Type: "indefinite",
	})
	assert.True(t, errors.Is(err, generate.ErrNoMatch))

	_, err = s.LookupWord(ctx, "numeral", nil)
	assert.True(t, errors.Is(err, generate.ErrNoMatch))
}

func TestLookupWordRejectsUnknownCategory(t *testing.T) {
	s := seededStore(t)
	_, err := s.LookupWord(context.Background(), "noun", map[grammar.Category]string{"aspect": "perfective"})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))
	assert.False(t, errors.Is(err, generate.ErrNoMatch))
}

func TestLookupQueryIsStable(t *testing.T) {
	q, args, err := lookupQuery("verb", map[grammar.Category]string{
		grammar.Person: "ter", grammar.Tense: "present", grammar.Number: "sg", grammar.Voice: "active",
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"verb", "sg", "present", "active", "ter"}, args)
	assert.True(t, strings.HasSuffix(q, "ORDER BY RANDOM() LIMIT 1"))
	assert.Less(t, strings.Index(q, "f.number"), strings.Index(q, "f.tense"))
}

func TestImport(t *testing.T) {
	s := NewStore(qtest.CreateTestDB(t), nil)
	ctx := context.Background()

	seed := &Seed{Name: "test", Lexemes: []SeedLexeme{{
		Lemma:        "σπίτι",
		PartOfSpeech: "nou",
		Translations: []string{"house", "home"},
		Forms: []SeedForm{
			{Form: "σπίτι", Features: []string{"nominative", "neuter", "singular"}},
			{Form: "σπιτιού", Features: []string{"gen", "neut", "sg"}},
		},
	}}}

	res, err := s.Import(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Lexemes: 1, Forms: 2, Translations: 2}, res)

	w, err := s.LookupWord(ctx, "noun", nominal("nom", "neut", "sg"))
	require.NoError(t, err)
	assert.Equal(t, "σπίτι", w.Form)
	assert.Equal(t, []string{"home", "house"}, w.Translations)

	again, err := s.Import(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{}, again, "re-importing a seed adds nothing")
}

func TestImportComposesAccents(t *testing.T) {
	s := NewStore(qtest.CreateTestDB(t), nil)
	ctx := context.Background()

	const composed = "\u03b3\u03ac\u03c4\u03b1"         // γάτα
	const decomposed = "\u03b3\u03b1\u0301\u03c4\u03b1" // α followed by a combining acute
	seedOf := func(spelling string) *Seed {
		return &Seed{Name: "cats", Lexemes: []SeedLexeme{{
			Lemma:        spelling,
			PartOfSpeech: "noun",
			Forms:        []SeedForm{{Form: spelling, Features: []string{"nom", "fem", "sg"}}},
		}}}
	}

	res, err := s.Import(ctx, seedOf(decomposed))
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Lexemes: 1, Forms: 1}, res)

	res, err = s.Import(ctx, seedOf(composed))
	require.NoError(t, err)
	assert.Equal(t, ImportResult{}, res)

	w, err := s.LookupWord(ctx, "noun", nominal("nom", "fem", "sg"))
	require.NoError(t, err)
	assert.Equal(t, composed, w.Form)
	assert.Equal(t, composed, w.Lemma)
}

func TestImportRejectsInvalidSeeds(t *testing.T) {
	valid := SeedForm{Form: "σπίτι", Features: []string{"nom", "neut", "sg"}}
	tests := []struct {
		name   string
		lexeme SeedLexeme
		want   error
	}{
		{"wildcard", SeedLexeme{Lemma: "σπίτι", PartOfSpeech: "noun",
			Forms: []SeedForm{valid, {Form: "σπίτια", Features: []string{"nom", "gender", "pl"}}}}, errors.ErrInvalidRequest},
		{"unknown feature", SeedLexeme{Lemma: "σπίτι", PartOfSpeech: "noun",
			Forms: []SeedForm{{Form: "σπίτι", Features: []string{"dative"}}}}, grammar.ErrUnknownFeature},
		{"duplicate category", SeedLexeme{Lemma: "σπίτι", PartOfSpeech: "noun",
			Forms: []SeedForm{{Form: "σπίτι", Features: []string{"nom", "acc"}}}}, errors.ErrInvalidRequest},
		{"unknown pos", SeedLexeme{Lemma: "σπίτι", PartOfSpeech: "particle",
			Forms: []SeedForm{valid}}, grammar.ErrUnknownPartOfSpeech},
		{"empty form", SeedLexeme{Lemma: "σπίτι", PartOfSpeech: "noun",
			Forms: []SeedForm{valid, {Form: " "}}}, errors.ErrInvalidRequest},
		{"empty lemma", SeedLexeme{PartOfSpeech: "noun", Forms: []SeedForm{valid}}, errors.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(qtest.CreateTestDB(t), nil)
			_, err := s.Import(context.Background(), &Seed{Name: "bad", Lexemes: []SeedLexeme{tt.lexeme}})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			stats, err := s.Stats(context.Background())
			require.NoError(t, err)
			assert.Empty(t, stats, "a rejected seed must not leave rows behind")
		})
	}
}

func TestStats(t *testing.T) {
	s := seededStore(t)
	stats, err := s.Stats(context.Background())
	require.NoError(t, err)

	byPOS := map[string]PartOfSpeechStats{}
	for _, st := range stats {
		byPOS[st.PartOfSpeech] = st
	}
	assert.Equal(t, PartOfSpeechStats{PartOfSpeech: "article", Lexemes: 2, Forms: 27}, byPOS["article"])
	assert.Equal(t, PartOfSpeechStats{PartOfSpeech: "noun", Lexemes: 6, Forms: 48}, byPOS["noun"])
	assert.Equal(t, 2, byPOS["conjunction"].Lexemes)
	assert.Equal(t, "adjective", stats[0].PartOfSpeech)
}

func TestGenerateAgainstStore(t *testing.T) {
	s := seededStore(t)
	gen := generate.New(s, generate.WithSeed(7))

	for i := 0; i < 10; i++ {
		res, err := gen.Generate(context.Background(), "(article adjective noun)@{nom:gender:number} (verb)@{present:active:ter:number}")
		require.NoError(t, err)
		require.Len(t, res.Words, 4)

		g := res.Words[0].Features[grammar.Gender]
		n := res.Words[0].Features[grammar.Number]
		for _, w := range res.Words[:3] {
			assert.Equal(t, g, w.Features[grammar.Gender])
			assert.Equal(t, n, w.Features[grammar.Number])
		}
	}
}

func mockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Store{db: sqlx.NewDb(db, "sqlite3"), logger: zaptest.NewLogger(t).Sugar()}, mock
}

func TestLookupWordDatabaseErrors(t *testing.T) {
	t.Run("query fails", func(t *testing.T) {
		s, mock := mockStore(t)
		boom := errors.New("disk I/O error")
		mock.ExpectQuery("SELECT l.id AS lexeme_id").WillReturnError(boom)

		_, err := s.LookupWord(context.Background(), "noun", nominal("nom", "masc", "sg"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, boom))
		assert.False(t, errors.Is(err, generate.ErrNoMatch))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("translations fail", func(t *testing.T) {
		s, mock := mockStore(t)
		mock.ExpectQuery("SELECT l.id AS lexeme_id").
			WithArgs("noun", "nom", "masc", "sg").
			WillReturnRows(sqlmock.NewRows([]string{"lexeme_id", "lemma", "form"}).AddRow(1, "άνθρωπος", "άνθρωπος"))
		mock.ExpectQuery("SELECT translation FROM translations").
			WithArgs(1).
			WillReturnError(errors.New("database is locked"))

		_, err := s.LookupWord(context.Background(), "noun", nominal("nom", "masc", "sg"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "translations of άνθρωπος")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestImportRollsBackOnError(t *testing.T) {
	s, mock := mockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT OR IGNORE INTO lexemes").
		WithArgs("σπίτι", "noun").
		WillReturnError(errors.New("database is locked"))
	mock.ExpectRollback()

	_, err := s.Import(context.Background(), &Seed{Name: "x", Lexemes: []SeedLexeme{{
		Lemma: "σπίτι", PartOfSpeech: "noun",
	}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `seed "x"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
