// Package server exposes parsing, generation and the template library over
// HTTP.
package server

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/syntaxis/syntaxis/am"
	"github.com/syntaxis/syntaxis/generate"
	"github.com/syntaxis/syntaxis/library"
	"github.com/syntaxis/syntaxis/logger"
)

// Server serves the syntaxis HTTP API.
type Server struct {
	lexicon   generate.Lexicon
	library   *library.Library
	generator atomic.Pointer[generate.Generator] // swapped on config reload
	limiter   atomic.Pointer[rate.Limiter]       // nil = unlimited
	origins   []string
	logger    *zap.SugaredLogger

	mu            sync.Mutex
	httpServer    *http.Server
	configWatcher *am.ConfigWatcher
	state         atomic.Int32
	ctx           context.Context
	cancel        context.CancelFunc
}

// New creates a server generating from lex. lib may be nil, in which case
// the template routes answer 503.
func New(lex generate.Lexicon, lib *library.Library, cfg *am.Config, log *zap.SugaredLogger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		lexicon: lex,
		library: lib,
		origins: cfg.GetServerAllowedOrigins(),
		logger:  logger.OrNop(log).With(logger.FieldComponent, "server"),
		ctx:     ctx,
		cancel:  cancel,
	}
	s.ApplyConfig(cfg)
	return s
}

// ApplyConfig swaps in a generator built from cfg and retunes the rate
// limiter, creating it or turning it off as requests_per_minute changes.
// In-flight requests finish with the generator they started with.
func (s *Server) ApplyConfig(cfg *am.Config) {
	gen := generate.New(s.lexicon,
		generate.WithMaxAttempts(cfg.Generation.MaxAttempts),
		generate.WithSeed(cfg.Generation.Seed),
		generate.WithLogger(s.logger),
	)
	s.generator.Store(gen)

	rpm := cfg.Server.RequestsPerMinute
	switch l := s.limiter.Load(); {
	case rpm <= 0:
		s.limiter.Store(nil)
	case l != nil:
		l.SetLimit(perMinute(rpm))
		l.SetBurst(burst(rpm))
	default:
		s.limiter.Store(rate.NewLimiter(perMinute(rpm), burst(rpm)))
	}

	s.logger.Infow("Generation settings applied",
		logger.FieldMaxAttempts, gen.MaxAttempts(),
		"seeded", cfg.Generation.Seed != 0,
	)
}

// Generator returns the generator currently in use.
func (s *Server) Generator() *generate.Generator {
	return s.generator.Load()
}

func perMinute(n int) rate.Limit {
	return rate.Limit(float64(n) / 60.0)
}

// burst lets a client spend a tenth of its minute at once.
func burst(n int) int {
	return max(1, n/10)
}
