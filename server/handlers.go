package server

import (
	"net/http"
	"strconv"

	"github.com/syntaxis/syntaxis/errors"
	"github.com/syntaxis/syntaxis/generate"
	"github.com/syntaxis/syntaxis/logger"
	"github.com/syntaxis/syntaxis/resolve"
	"github.com/syntaxis/syntaxis/template"
	"github.com/syntaxis/syntaxis/version"
)

type templateRequest struct {
	Template    string `json:"template"`
	Description string `json:"description,omitempty"`
	Resolve     bool   `json:"resolve,omitempty"`
}

type parseResponse struct {
	Canonical string                  `json:"canonical"`
	Notation  string                  `json:"notation"`
	Template  *template.Template      `json:"ast"`
	Tokens    []resolve.ResolvedToken `json:"tokens,omitempty"`
	Warnings  []resolve.Warning       `json:"warnings,omitempty"`
}

type generateResponse struct {
	RequestID string `json:"request_id"`
	Sentence  string `json:"sentence"`
	*generate.Result
}

// HandleHealth serves health check endpoint with version info
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	info := version.Get()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"version":      info.Version,
		"commit":       info.CommitHash,
		"build_time":   info.BuildTime,
		"max_attempts": s.Generator().MaxAttempts(),
	})
}

// HandleParse parses a template and returns its AST; with resolve set it
// also returns the resolved features of every token.
func (s *Server) HandleParse(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), s.logger)

	var req templateRequest
	if err := readJSON(w, r, &req); err != nil {
		writeWrappedError(w, r, log, err, "invalid parse request")
		return
	}
	tmpl, err := template.Parse(req.Template)
	if err != nil {
		writeWrappedError(w, r, log, err, "failed to parse template")
		return
	}

	resp := parseResponse{
		Canonical: tmpl.String(),
		Notation:  tmpl.Notation.String(),
		Template:  tmpl,
	}
	if req.Resolve {
		res, err := resolve.Resolve(tmpl, resolve.NewWildcardCache(nil))
		if err != nil {
			writeWrappedError(w, r, log, err, "failed to resolve template")
			return
		}
		resp.Tokens = res.Tokens
		resp.Warnings = res.Warnings
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGenerate generates one sentence from a template in the body.
func (s *Server) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), s.logger)

	var req templateRequest
	if err := readJSON(w, r, &req); err != nil {
		writeWrappedError(w, r, log, err, "invalid generate request")
		return
	}
	s.generate(w, r, req.Template, nil)
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request, text string, tmpl *template.Template) {
	log := logger.FromContext(r.Context(), s.logger)
	gen := s.Generator()

	var res *generate.Result
	var err error
	if tmpl != nil {
		res, err = gen.GenerateTemplate(r.Context(), tmpl)
	} else {
		res, err = gen.Generate(r.Context(), text)
	}
	if err != nil {
		writeWrappedError(w, r, log, err, "failed to generate sentence")
		return
	}

	log.Infow("sentence generated",
		logger.FieldGenerationID, res.ID,
		logger.FieldAttempt, res.Attempts,
		logger.FieldCount, len(res.Words),
	)
	writeJSON(w, http.StatusOK, generateResponse{
		RequestID: logger.RequestIDFromContext(r.Context()),
		Sentence:  res.Sentence(),
		Result:    res,
	})
}

// HandleTemplates lists (GET) or stores (POST) library templates.
func (s *Server) HandleTemplates(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), s.logger)

	switch r.Method {
	case http.MethodGet:
		entries, err := s.library.List(r.Context())
		if err != nil {
			writeWrappedError(w, r, log, err, "failed to list templates")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"templates": entries, "count": len(entries)})

	case http.MethodPost:
		var req templateRequest
		if err := readJSON(w, r, &req); err != nil {
			writeWrappedError(w, r, log, err, "invalid template request")
			return
		}
		entry, err := s.library.Save(r.Context(), req.Template, req.Description)
		if err != nil {
			writeWrappedError(w, r, log, err, "failed to save template")
			return
		}
		writeJSON(w, http.StatusCreated, entry)
	}
}

// HandleTemplate reads (GET) or deletes (DELETE) one library template.
func (s *Server) HandleTemplate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), s.logger)

	id, err := templateID(r)
	if err != nil {
		writeWrappedError(w, r, log, err, "invalid template id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		entry, err := s.library.Get(r.Context(), id)
		if err != nil {
			writeWrappedError(w, r, log, err, "failed to read template")
			return
		}
		writeJSON(w, http.StatusOK, entry)

	case http.MethodDelete:
		if err := s.library.Delete(r.Context(), id); err != nil {
			writeWrappedError(w, r, log, err, "failed to delete template")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleTemplateGenerate generates a sentence from a stored template.
func (s *Server) HandleTemplateGenerate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), s.logger)

	id, err := templateID(r)
	if err != nil {
		writeWrappedError(w, r, log, err, "invalid template id")
		return
	}
	entry, err := s.library.Get(r.Context(), id)
	if err != nil {
		writeWrappedError(w, r, log, err, "failed to read template")
		return
	}
	tmpl, err := entry.Parse()
	if err != nil {
		writeWrappedError(w, r, log, err, "stored template no longer parses")
		return
	}
	s.generate(w, r, entry.Template, tmpl)
}

func templateID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errors.NewInvalidRequestError("template id must be a positive integer, got %q", raw)
	}
	return id, nil
}
