package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotFound is returned for 404 responses.
var ErrNotFound = errors.New("not found")

// ErrUnauthorized is returned for 401 and 403 responses.
var ErrUnauthorized = errors.New("unauthorized")

// TransportError is a network failure or a response that could not be
// interpreted. Callers show a generic message instead of its details.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError is a 4xx response with a readable detail. The detail is
// safe to show verbatim.
type ValidationError struct {
	StatusCode int
	Detail     string
}

func (e *ValidationError) Error() string {
	return e.Detail
}

// RefusalReason names a domain refusal the client treats as a no-op.
type RefusalReason string

const (
	RefusalHintUsed         RefusalReason = "hint_already_used"
	RefusalAlreadySolved    RefusalReason = "already_solved"
	RefusalLanguageMismatch RefusalReason = "language_mismatch"
)

// RefusalError is a business-rule rejection from the backend.
type RefusalError struct {
	Reason RefusalReason
	Detail string
}

func (e *RefusalError) Error() string {
	return fmt.Sprintf("refused (%s): %s", e.Reason, e.Detail)
}

// IsRefusal reports whether err is a RefusalError with the given reason.
func IsRefusal(err error, reason RefusalReason) bool {
	var re *RefusalError
	return errors.As(err, &re) && re.Reason == reason
}

// refusalMarkers maps lower-cased detail fragments to refusal reasons. Every
// fragment of a marker must appear in the detail. The backend reports
// refusals in Russian; English fragments cover the dev backend. A detail
// that only names the language (for example an unselected one) stays a
// validation error.
var refusalMarkers = []struct {
	fragments []string
	reason    RefusalReason
}{
	{[]string{"уже использована"}, RefusalHintUsed},
	{[]string{"already used"}, RefusalHintUsed},
	{[]string{"уже решена"}, RefusalAlreadySolved},
	{[]string{"already solved"}, RefusalAlreadySolved},
	{[]string{"язык", "не совпадает"}, RefusalLanguageMismatch},
	{[]string{"language mismatch"}, RefusalLanguageMismatch},
}

func containsAll(s string, fragments []string) bool {
	for _, f := range fragments {
		if !strings.Contains(s, f) {
			return false
		}
	}
	return true
}

// errorBody is FastAPI's error envelope. Detail is a string for
// HTTPException and a list of {loc, msg} for request validation.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type fieldError struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// parseDetail extracts a human-readable detail. ok is false when the body
// is not a FastAPI error envelope.
func parseDetail(body []byte) (string, bool) {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		return s, s != ""
	}
	var fields []fieldError
	if err := json.Unmarshal(eb.Detail, &fields); err == nil && len(fields) > 0 {
		msgs := make([]string, 0, len(fields))
		for _, f := range fields {
			if len(f.Loc) > 0 {
				msgs = append(msgs, fmt.Sprintf("%v: %s", f.Loc[len(f.Loc)-1], f.Msg))
			} else {
				msgs = append(msgs, f.Msg)
			}
		}
		return strings.Join(msgs, "; "), true
	}
	return "", false
}

// classify turns a non-2xx response into the error taxonomy.
func classify(op string, status int, body []byte) error {
	detail, ok := parseDetail(body)

	switch status {
	case http.StatusNotFound:
		if ok {
			return fmt.Errorf("%s: %s: %w", op, detail, ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	if !ok {
		return &TransportError{Op: op, StatusCode: status, Err: errors.New(http.StatusText(status))}
	}

	if status == http.StatusBadRequest || status == http.StatusConflict {
		lower := strings.ToLower(detail)
		for _, m := range refusalMarkers {
			if containsAll(lower, m.fragments) {
				return &RefusalError{Reason: m.reason, Detail: detail}
			}
		}
	}

	if status >= 400 && status < 500 {
		return &ValidationError{StatusCode: status, Detail: detail}
	}
	return &TransportError{Op: op, StatusCode: status, Err: errors.New(detail)}
}
