package chat

import (
	"errors"

	"github.com/ovitag/porterbot/internal/executor"
	"github.com/ovitag/porterbot/internal/synth"
)

// Describe maps any pipeline error to the uniform envelope fields: a
// classification, a user-safe message, and a tailored hint. Nothing escapes
// the request boundary unclassified.
func Describe(err error, question string) (kind, message, hint string) {
	var synthErr *synth.Error
	if errors.As(err, &synthErr) {
		return "synthesis", synthErr.Error(), "The SQL generator could not process this question. Try rephrasing it."
	}

	var execErr *executor.ExecError
	if errors.As(err, &execErr) {
		return execErr.Kind.String(), execErr.Message, executor.Hint(err, question)
	}

	return "internal", "an unexpected error occurred while processing your request", ""
}
