// Package generate turns templates into sentences by resolving features and
// asking a Lexicon for one inflected word per token.
package generate

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/syntaxis/syntaxis/errors"
	"github.com/syntaxis/syntaxis/grammar"
	"github.com/syntaxis/syntaxis/logger"
	"github.com/syntaxis/syntaxis/resolve"
	"github.com/syntaxis/syntaxis/template"
)

// DefaultMaxAttempts bounds the NoMatch results tolerated in one call.
const DefaultMaxAttempts = 10

// ErrNoMatchingWord is wrapped by NoMatchingWordError.
var ErrNoMatchingWord = errors.New("no matching word")

// NoMatchingWordError reports the token the lexicon could not satisfy.
type NoMatchingWordError struct {
	Group        int
	PartOfSpeech string
	Features     map[grammar.Category]string
	Attempts     int
}

func (e *NoMatchingWordError) Error() string {
	return fmt.Sprintf("no %s matches %s (group %d) after %d attempt(s)",
		e.PartOfSpeech, formatFeatures(e.Features), e.Group, e.Attempts)
}

func (e *NoMatchingWordError) Unwrap() error {
	return ErrNoMatchingWord
}

// GeneratedWord is one word of a generated sentence.
type GeneratedWord struct {
	Group        int                         `json:"group"`
	PartOfSpeech string                      `json:"pos"`
	Features     map[grammar.Category]string `json:"features"`
	Lemma        string                      `json:"lemma"`
	Form         string                      `json:"form"`
	Translations []string                    `json:"translations,omitempty"`
}

// Result is a generated sentence with the warnings raised while resolving it.
type Result struct {
	ID       string             `json:"id"`
	Template *template.Template `json:"-"`
	Words    []GeneratedWord    `json:"words"`
	Warnings []resolve.Warning  `json:"warnings,omitempty"`
	Attempts int                `json:"attempts"`
}

// Sentence joins the surface forms with spaces.
func (r *Result) Sentence() string {
	forms := make([]string, len(r.Words))
	for i, w := range r.Words {
		forms[i] = w.Form
	}
	return strings.Join(forms, " ")
}

// Generator holds immutable settings and is safe for concurrent use; each
// call gets its own wildcard cache and resolution arena.
type Generator struct {
	lexicon     Lexicon
	maxAttempts int
	newPicker   func() resolve.Picker
	logger      *zap.SugaredLogger
}

// Option configures a Generator.
type Option func(*Generator)

// WithMaxAttempts sets how many NoMatch results one call tolerates.
// Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n >= 1 {
			g.maxAttempts = n
		}
	}
}

// WithSeed makes wildcard rolls reproducible: every call starts from the
// same PCG state. Zero keeps the global random source.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		if seed == 0 {
			return
		}
		g.newPicker = func() resolve.Picker {
			return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		}
	}
}

// WithPicker supplies a picker factory, called once per generation.
func WithPicker(factory func() resolve.Picker) Option {
	return func(g *Generator) {
		g.newPicker = factory
	}
}

// WithLogger sets the logger used for warnings and retries.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(g *Generator) {
		g.logger = logger.OrNop(l)
	}
}

// New returns a Generator reading words from lex.
func New(lex Lexicon, opts ...Option) *Generator {
	g := &Generator{
		lexicon:     lex,
		maxAttempts: DefaultMaxAttempts,
		newPicker:   func() resolve.Picker { return nil },
		logger:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// MaxAttempts returns the configured attempt bound.
func (g *Generator) MaxAttempts() int {
	return g.maxAttempts
}

// Generate parses s and generates one sentence from it.
func (g *Generator) Generate(ctx context.Context, s string) (*Result, error) {
	tmpl, err := template.Parse(s)
	if err != nil {
		return nil, err
	}
	return g.GenerateTemplate(ctx, tmpl)
}

// GenerateTemplate generates one sentence from an already parsed template.
//
// Tokens are looked up in template order. When the lexicon has no word for a
// token whose features came from wildcard rolls, those rolls are discarded,
// the template is resolved again, and generation resumes from the first
// token that used any discarded roll, so groups sharing a roll stay in
// agreement. Each NoMatch consumes one attempt; without wildcards to vary the
// call fails at once.
func (g *Generator) GenerateTemplate(ctx context.Context, tmpl *template.Template) (*Result, error) {
	id := uuid.NewString()
	log := logger.FromContext(ctx, g.logger).With(logger.FieldGenerationID, id)

	cache := resolve.NewWildcardCache(g.newPicker())
	res, err := resolve.Resolve(tmpl, cache)
	if err != nil {
		return nil, err
	}

	st := &retryState{remaining: g.maxAttempts, rounds: 1}
	words := make([]GeneratedWord, 0, len(res.Tokens))

	for i := 0; i < len(res.Tokens); {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "generation cancelled")
		}

		tok := res.Tokens[i]
		values := tok.Features.Values()
		word, err := g.lexicon.LookupWord(ctx, tok.PartOfSpeech, values)
		if err == nil && word == nil {
			err = ErrNoMatch
		}
		if err == nil {
			words = append(words, GeneratedWord{
				Group:        tok.Group,
				PartOfSpeech: tok.PartOfSpeech,
				Features:     values,
				Lemma:        word.Lemma,
				Form:         word.Form,
				Translations: word.Translations,
			})
			i++
			continue
		}
		if !errors.Is(err, ErrNoMatch) {
			return nil, errors.Wrapf(err, "failed to look up %s", tok.PartOfSpeech)
		}

		if !st.retry(tok) {
			return nil, &NoMatchingWordError{
				Group:        tok.Group,
				PartOfSpeech: tok.PartOfSpeech,
				Features:     values,
				Attempts:     st.failures,
			}
		}

		log.Debugw("no word for rolled features, rerolling",
			logger.FieldGroup, tok.Group,
			logger.FieldPOS, tok.PartOfSpeech,
			logger.FieldFeatures, formatFeatures(values),
			logger.FieldAttempt, st.failures,
			logger.FieldMaxAttempts, g.maxAttempts,
		)

		cache.Invalidate(tok.Wildcards...)
		res, err = resolve.Resolve(tmpl, cache)
		if err != nil {
			return nil, err
		}
		i = restartIndex(res.Tokens, tok.Wildcards, i)
		words = words[:i]
	}

	for _, w := range res.Warnings {
		log.Warnw("direct feature overrides group feature",
			logger.FieldGroup, w.Group,
			logger.FieldPOS, w.PartOfSpeech,
			logger.FieldCategory, w.Category,
			logger.FieldPrevious, w.Previous,
			logger.FieldNew, w.New,
		)
	}

	return &Result{
		ID:       id,
		Template: tmpl,
		Words:    words,
		Warnings: res.Warnings,
		Attempts: st.rounds,
	}, nil
}

// retryState tracks the attempt budget of one generation call.
type retryState struct {
	remaining int
	failures  int
	rounds    int
}

// retry records a NoMatch for tok and reports whether another round is allowed.
func (s *retryState) retry(tok resolve.ResolvedToken) bool {
	s.failures++
	s.remaining--
	if len(tok.Wildcards) == 0 || s.remaining <= 0 {
		return false
	}
	s.rounds++
	return true
}

// restartIndex returns the first token at or before upto that depends on any
// of the discarded rolls.
func restartIndex(tokens []resolve.ResolvedToken, discarded []resolve.WildcardKey, upto int) int {
	drop := make(map[resolve.WildcardKey]bool, len(discarded))
	for _, k := range discarded {
		drop[k] = true
	}
	for j := 0; j < upto; j++ {
		for _, k := range tokens[j].Wildcards {
			if drop[k] {
				return j
			}
		}
	}
	return upto
}

func formatFeatures(features map[grammar.Category]string) string {
	parts := make([]string, 0, len(features))
	for _, cat := range grammar.Categories {
		if v, ok := features[cat]; ok {
			parts = append(parts, v)
		}
	}
	return "{" + strings.Join(parts, ":") + "}"
}
