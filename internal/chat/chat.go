// Package chat orchestrates the question pipeline: synthesize SQL, run it
// through the correction passes, execute, and format. Each request is handled
// synchronously end to end; the only shared state is read-only caches and the
// bounded interaction history.
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ovitag/porterbot/internal/executor"
	"github.com/ovitag/porterbot/internal/format"
	"github.com/ovitag/porterbot/internal/rewrite"
	"github.com/ovitag/porterbot/internal/synth"
)

// maxQuestionLen bounds user input; anything longer is rejected up front.
const maxQuestionLen = 1000

// Runner executes corrected SQL. *executor.Executor is the production
// implementation; tests substitute a stub.
type Runner interface {
	Run(ctx context.Context, query string, limit int) (*executor.Result, error)
}

// Options are per-request knobs from the API or CLI.
type Options struct {
	Limit        int
	IncludeChart bool
}

// Answer is a fully processed successful response.
type Answer struct {
	Summary     string
	Explanation string
	SQL         string
	Result      *executor.Result
	Warnings    []rewrite.Warning
	Chart       *format.ChartSpec
	Tokens      int
}

// Bot wires the pipeline components together.
type Bot struct {
	provider     synth.Provider
	pipeline     *rewrite.Pipeline
	runner       Runner
	formatter    *format.Formatter
	systemPrompt string
	llmTimeout   time.Duration
	history      *History
	log          zerolog.Logger
}

// New creates a Bot. systemPrompt is built once from the static schema
// context and reused verbatim for every question.
func New(provider synth.Provider, pipeline *rewrite.Pipeline, runner Runner,
	formatter *format.Formatter, systemPrompt string, llmTimeout time.Duration,
	log zerolog.Logger) *Bot {
	return &Bot{
		provider:     provider,
		pipeline:     pipeline,
		runner:       runner,
		formatter:    formatter,
		systemPrompt: systemPrompt,
		llmTimeout:   llmTimeout,
		history:      NewHistory(200),
		log:          log,
	}
}

// History returns the recent-interaction ring.
func (b *Bot) History() *History { return b.history }

// Ask processes one question end to end. Candidate SQL always passes through
// the full correction pipeline before execution, even when no rule applies.
func (b *Bot) Ask(ctx context.Context, question string, opts Options) (*Answer, error) {
	start := time.Now()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, &executor.ExecError{Kind: executor.KindInvalid, Message: "question is required"}
	}
	if len(question) > maxQuestionLen {
		return nil, &executor.ExecError{Kind: executor.KindInvalid, Message: "question is too long"}
	}

	synthCtx, cancel := context.WithTimeout(ctx, b.llmTimeout)
	candidate, err := b.provider.GenerateSQL(synthCtx, synth.Request{
		Question:     question,
		SystemPrompt: b.systemPrompt,
	})
	cancel()
	if err != nil {
		b.record(question, "", 0, err)
		return nil, err
	}

	corrected, warnings := b.pipeline.Apply(candidate.SQL)
	if corrected != candidate.SQL {
		b.log.Debug().Str("before", candidate.SQL).Str("after", corrected).Msg("correction pipeline rewrote query")
	}

	result, err := b.runner.Run(ctx, corrected, opts.Limit)
	if err != nil {
		b.record(question, corrected, 0, err)
		return nil, err
	}

	answer := &Answer{
		Explanation: synth.Explain(question, corrected),
		SQL:         corrected,
		Warnings:    warnings,
		Tokens:      candidate.Tokens,
	}

	if opts.IncludeChart && format.ChartEligible(question, result) {
		chart, chartErr := format.BuildChart(question, result)
		if chartErr != nil {
			// Chart failures fall back to tabular-only display.
			b.log.Warn().Err(chartErr).Msg("chart generation failed")
		} else {
			answer.Chart = chart
		}
	}

	answer.Summary = format.Summarize(question, result)
	answer.Result = b.formatter.ConvertTimezones(result)

	b.record(question, corrected, result.RowCount(), nil)
	b.log.Info().
		Str("question", question).
		Str("sql", corrected).
		Int("rows", result.RowCount()).
		Dur("duration", time.Since(start)).
		Msg("question answered")

	return answer, nil
}

func (b *Bot) record(question, sql string, rows int, err error) {
	entry := Entry{
		Timestamp: time.Now().UTC(),
		Question:  question,
		SQL:       sql,
		RowCount:  rows,
		Success:   err == nil,
	}
	if err != nil {
		entry.Error = err.Error()
		b.log.Error().Err(err).Str("question", question).Str("sql", sql).Msg("question failed")
	}
	b.history.Add(entry)
}
