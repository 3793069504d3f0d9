// Package server exposes the REST API and the embedded web UI.
package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ovitag/porterbot/internal/chat"
	"github.com/ovitag/porterbot/internal/config"
	"github.com/ovitag/porterbot/internal/executor"
	"github.com/ovitag/porterbot/internal/rewrite"
	"github.com/ovitag/porterbot/internal/schema"
)

//go:embed templates/index.html
var indexHTML string

// Server handles the REST API.
type Server struct {
	bot         *chat.Bot
	exec        *executor.Executor
	schemaCache *schema.Cache
	cfg         *config.Config
	llmName     string
	tmpl        *template.Template
	log         zerolog.Logger
}

// New creates a Server and its router.
func New(bot *chat.Bot, exec *executor.Executor, cache *schema.Cache,
	cfg *config.Config, llmName string, log zerolog.Logger) *Server {
	return &Server{
		bot:         bot,
		exec:        exec,
		schemaCache: cache,
		cfg:         cfg,
		llmName:     llmName,
		tmpl:        template.Must(template.New("index").Parse(indexHTML)),
		log:         log,
	}
}

// Router builds the chi route table.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/query", s.handleQuery)
	r.Post("/export", s.handleExportCSV)
	r.Get("/health", s.handleHealth)
	r.Get("/schema", s.handleSchema)
	r.Post("/schema/refresh", s.handleSchemaRefresh)
	r.Get("/samples", s.handleSamples)
	r.Get("/history", s.handleHistory)

	return r
}

// envelope is the uniform response wrapper: every outcome, success or
// failure, is reported through it.
type envelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Hint      string `json:"hint,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload envelope) {
	payload.Timestamp = time.Now().UTC().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func ok(w http.ResponseWriter, message string, data any) {
	respondJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

func (s *Server) fail(w http.ResponseWriter, err error, question string) {
	kind, message, hint := chat.Describe(err, question)
	respondJSON(w, statusFor(kind), envelope{
		Success: false,
		Error:   message,
		Kind:    kind,
		Hint:    hint,
	})
}

func statusFor(kind string) int {
	switch kind {
	case "invalid":
		return http.StatusBadRequest
	case "no_data":
		return http.StatusNotFound
	case "timeout":
		return http.StatusGatewayTimeout
	case "synthesis":
		return http.StatusBadGateway
	case "internal", "unknown", "connection":
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

type queryRequest struct {
	Question     string `json:"question"`
	Limit        int    `json:"limit,omitempty"`
	IncludeChart bool   `json:"include_chart,omitempty"`
}

type resultPayload struct {
	Columns  []string         `json:"columns"`
	Data     []map[string]any `json:"data"`
	RowCount int              `json:"row_count"`
}

type queryData struct {
	Summary     string            `json:"summary"`
	Results     resultPayload     `json:"results"`
	Explanation string            `json:"explanation"`
	SQL         string            `json:"sql"`
	Warnings    []rewrite.Warning `json:"warnings,omitempty"`
	ChartData   any               `json:"chart_data,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, envelope{Success: false, Error: "invalid JSON body", Kind: "invalid"})
		return
	}

	answer, err := s.bot.Ask(r.Context(), req.Question, chat.Options{
		Limit:        req.Limit,
		IncludeChart: req.IncludeChart,
	})
	if err != nil {
		s.fail(w, err, req.Question)
		return
	}

	data := queryData{
		Summary: answer.Summary,
		Results: resultPayload{
			Columns:  answer.Result.Columns,
			Data:     answer.Result.Rows,
			RowCount: answer.Result.RowCount(),
		},
		Explanation: answer.Explanation,
		SQL:         answer.SQL,
		Warnings:    answer.Warnings,
	}
	if answer.Chart != nil {
		data.ChartData = answer.Chart
	}

	ok(w, "Query processed successfully", data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "connected"
	if err := s.exec.Ping(ctx); err != nil {
		dbStatus = "disconnected"
	}

	ok(w, "API is healthy", map[string]any{
		"api_status":      "running",
		"llm_provider":    s.llmName,
		"database_status": dbStatus,
	})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	ok(w, "Schema information retrieved", map[string]any{
		"fact_table":          schema.FactTable,
		"lookup_table":        schema.LookupTable,
		"column_descriptions": schema.ColumnDescriptions(),
		"status_codes":        schema.StatusCodes,
		"tat_formula":         schema.TATFormula,
		"display_timezone":    s.cfg.DisplayTimezone,
		"tables":              s.schemaCache.Tables(),
		"last_refresh":        s.schemaCache.LastRefresh().Format(time.RFC3339),
	})
}

func (s *Server) handleSchemaRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if err := s.schemaCache.Load(ctx, s.exec.DB()); err != nil {
		s.fail(w, err, "")
		return
	}
	s.handleSchema(w, r)
}

func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	ok(w, "Sample questions retrieved", map[string]any{
		"sample_questions": schema.SampleQuestions,
		"total_count":      len(schema.SampleQuestions),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ok(w, "Recent interactions retrieved", map[string]any{
		"interactions": s.bot.History().Recent(50),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct {
		DefaultLimit int
		MaxLimit     int
		Samples      []string
	}{
		DefaultLimit: s.cfg.DefaultRowLimit,
		MaxLimit:     s.cfg.MaxRowLimit,
		Samples:      schema.SampleQuestions,
	}
	if err := s.tmpl.Execute(w, data); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}
