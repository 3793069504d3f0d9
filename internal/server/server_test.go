package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovitag/porterbot/internal/chat"
	"github.com/ovitag/porterbot/internal/config"
	"github.com/ovitag/porterbot/internal/executor"
	"github.com/ovitag/porterbot/internal/format"
	"github.com/ovitag/porterbot/internal/rewrite"
	"github.com/ovitag/porterbot/internal/schema"
	"github.com/ovitag/porterbot/internal/synth"
)

type stubProvider struct {
	sql string
	err error
}

func (s *stubProvider) GenerateSQL(ctx context.Context, req synth.Request) (synth.Candidate, error) {
	if s.err != nil {
		return synth.Candidate{}, s.err
	}
	return synth.Candidate{SQL: s.sql, Tokens: 10}, nil
}

func (s *stubProvider) Name() string { return "stub" }

type stubRunner struct {
	result *executor.Result
	err    error
}

func (s *stubRunner) Run(ctx context.Context, query string, limit int) (*executor.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func newTestServer(t *testing.T, provider synth.Provider, runner chat.Runner) *Server {
	t.Helper()

	cfg := &config.Config{
		Addr:            ":0",
		Driver:          "clickhouse",
		DefaultRowLimit: 100,
		MaxRowLimit:     500,
		DisplayTimezone: "Asia/Kolkata",
	}

	formatter, err := format.New(cfg.DisplayTimezone)
	require.NoError(t, err)

	bot := chat.New(provider, rewrite.NewPipeline(cfg.DisplayTimezone), runner, formatter,
		"test prompt", time.Second, zerolog.Nop())

	return New(bot, executor.New(nil, cfg), schema.NewCache(), cfg, "stub", zerolog.Nop())
}

func doRequest(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestHandleQuerySuccess(t *testing.T) {
	provider := &stubProvider{sql: "SELECT facility_id, round(AVG(dateDiff('second', scheduled_time, completed_time)/60.0), 2) AS avg_tat_minutes FROM fact_porter_request GROUP BY facility_id"}
	runner := &stubRunner{result: &executor.Result{
		Columns: []string{"facility_id", "avg_tat_minutes"},
		Rows: []map[string]any{
			{"facility_id": "0184", "avg_tat_minutes": 15.5},
			{"facility_id": "0206", "avg_tat_minutes": 18.2},
		},
	}}
	srv := newTestServer(t, provider, runner)

	rec, env := doRequest(t, srv, http.MethodPost, "/query",
		`{"question": "Show average turnaround time by facility", "include_chart": true}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.Timestamp)

	data, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var payload struct {
		Summary string `json:"summary"`
		Results struct {
			Columns  []string `json:"columns"`
			RowCount int      `json:"row_count"`
		} `json:"results"`
		Explanation string `json:"explanation"`
		SQL         string `json:"sql"`
		ChartData   *struct {
			Type   string    `json:"type"`
			Labels []string  `json:"labels"`
			Values []float64 `json:"values"`
		} `json:"chart_data"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))

	assert.Contains(t, payload.Summary, "average")
	assert.Equal(t, []string{"facility_id", "avg_tat_minutes"}, payload.Results.Columns)
	assert.Equal(t, 2, payload.Results.RowCount)
	assert.NotEmpty(t, payload.Explanation)
	assert.Contains(t, payload.SQL, "SELECT")

	require.NotNil(t, payload.ChartData)
	assert.Equal(t, "bar", payload.ChartData.Type)
	assert.Equal(t, []string{"0184", "0206"}, payload.ChartData.Labels)
}

func TestHandleQueryInvalidBody(t *testing.T) {
	srv := newTestServer(t, &stubProvider{}, &stubRunner{})

	rec, env := doRequest(t, srv, http.MethodPost, "/query", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "invalid", env.Kind)
}

func TestHandleQueryEmptyQuestion(t *testing.T) {
	srv := newTestServer(t, &stubProvider{}, &stubRunner{})

	rec, env := doRequest(t, srv, http.MethodPost, "/query", `{"question": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "invalid", env.Kind)
}

func TestHandleQueryNoData(t *testing.T) {
	provider := &stubProvider{sql: "SELECT * FROM fact_porter_request WHERE facility_id = '9999'"}
	runner := &stubRunner{err: &executor.ExecError{Kind: executor.KindNoData, Message: "the query matched no rows"}}
	srv := newTestServer(t, provider, runner)

	rec, env := doRequest(t, srv, http.MethodPost, "/query",
		`{"question": "Show requests for facility 9999"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "no_data", env.Kind)
	assert.NotEmpty(t, env.Hint)
}

func TestHandleQuerySynthesisFailure(t *testing.T) {
	srv := newTestServer(t, &stubProvider{err: &synth.Error{Provider: "stub", Message: "model offline"}}, &stubRunner{})

	rec, env := doRequest(t, srv, http.MethodPost, "/query", `{"question": "Count requests"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "synthesis", env.Kind)
	assert.Contains(t, env.Error, "model offline")
}

func TestHandleHealthReportsDisconnected(t *testing.T) {
	srv := newTestServer(t, &stubProvider{}, &stubRunner{})

	rec, env := doRequest(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	data, _ := json.Marshal(env.Data)
	assert.Contains(t, string(data), `"database_status":"disconnected"`)
	assert.Contains(t, string(data), `"llm_provider":"stub"`)
}

func TestHandleSchema(t *testing.T) {
	srv := newTestServer(t, &stubProvider{}, &stubRunner{})

	rec, env := doRequest(t, srv, http.MethodGet, "/schema", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	data, _ := json.Marshal(env.Data)
	assert.Contains(t, string(data), schema.FactTable)
	assert.Contains(t, string(data), schema.LookupTable)
	assert.Contains(t, string(data), "Asia/Kolkata")
}

func TestHandleSamples(t *testing.T) {
	srv := newTestServer(t, &stubProvider{}, &stubRunner{})

	rec, env := doRequest(t, srv, http.MethodGet, "/samples", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	data, _ := json.Marshal(env.Data)
	assert.Contains(t, string(data), "sample_questions")
	assert.Contains(t, string(data), schema.SampleQuestions[0])
}

func TestHandleHistory(t *testing.T) {
	provider := &stubProvider{sql: "SELECT facility_id, COUNT(*) AS request_count FROM fact_porter_request GROUP BY facility_id"}
	runner := &stubRunner{result: &executor.Result{
		Columns: []string{"facility_id", "request_count"},
		Rows:    []map[string]any{{"facility_id": "0184", "request_count": int64(3)}},
	}}
	srv := newTestServer(t, provider, runner)

	_, _ = doRequest(t, srv, http.MethodPost, "/query", `{"question": "Count requests by facility"}`)

	rec, env := doRequest(t, srv, http.MethodGet, "/history", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data, _ := json.Marshal(env.Data)
	assert.Contains(t, string(data), "Count requests by facility")
	assert.Contains(t, string(data), `"success":true`)
}

func TestHandleIndex(t *testing.T) {
	srv := newTestServer(t, &stubProvider{}, &stubRunner{})

	rec, _ := doRequest(t, srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), schema.SampleQuestions[0])
}

func TestHandleExportCSV(t *testing.T) {
	provider := &stubProvider{sql: "SELECT facility_id, COUNT(*) AS request_count FROM fact_porter_request GROUP BY facility_id"}
	runner := &stubRunner{result: &executor.Result{
		Columns: []string{"facility_id", "request_count"},
		Rows: []map[string]any{
			{"facility_id": "0184", "request_count": int64(3)},
			{"facility_id": "0206", "request_count": int64(7)},
		},
	}}
	srv := newTestServer(t, provider, runner)

	rec, _ := doRequest(t, srv, http.MethodPost, "/export", `{"question": "Count requests by facility"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	body := rec.Body.String()
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "facility_id,request_count", strings.TrimSpace(lines[0]))
	assert.Contains(t, body, "0184,3")
	assert.Contains(t, body, "0206,7")
}
