package jsonrpc

import (
	"errors"

	"github.com/futurecareers/contestide/internal/apiclient"
	"github.com/futurecareers/contestide/internal/contest"
	"github.com/futurecareers/contestide/internal/i18n"
	"golang.org/x/text/message"
)

// errorCodes maps controller and client errors to application codes. The
// first match wins.
var errorCodes = []struct {
	target error
	code   int
}{
	{contest.ErrNoContest, CodeNoContest},
	{contest.ErrUnknownTask, CodeInvalidParams},
	{contest.ErrInvalidLanguage, CodeInvalidParams},
	{contest.ErrInvalidMode, CodeInvalidParams},
	{contest.ErrInvalidHintTier, CodeInvalidParams},
	{contest.ErrEmptyAnswer, CodeInvalidParams},
	{contest.ErrLaneBusy, CodeConflict},
	{contest.ErrLanguageLocked, CodeConflict},
	{contest.ErrHintAlreadyUsed, CodeConflict},
	{contest.ErrNoThread, CodeConflict},
	{contest.ErrThreadClosed, CodeConflict},
	{contest.ErrSubmitTestsUnavailable, CodeExecutionFailed},
	{contest.ErrExecutionFailed, CodeExecutionFailed},
	{contest.ErrTimeout, CodeExecutionFailed},
	{apiclient.ErrUnauthorized, CodeUnauthorized},
	{apiclient.ErrNotFound, CodeNotFound},
}

// FromError converts an error into a JSON-RPC error. The message is the
// localized text shown to the candidate; Data carries the raw error.
func FromError(p *message.Printer, err error) *Error {
	if err == nil {
		return nil
	}
	code := CodeInternalError
	for _, m := range errorCodes {
		if errors.Is(err, m.target) {
			code = m.code
			break
		}
	}
	if code == CodeInternalError {
		var (
			verr *apiclient.ValidationError
			rerr *apiclient.RefusalError
			terr *apiclient.TransportError
		)
		switch {
		case errors.As(err, &verr), errors.As(err, &rerr):
			code = CodeRejected
		case errors.As(err, &terr):
			code = CodeUpstream
		}
	}
	return &Error{Code: code, Message: i18n.Describe(p, err), Data: err.Error()}
}
