package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/futurecareers/contestide/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL + "/api", Token: "tok-1", Timeout: 5 * time.Second})
}

func writeDetail(w http.ResponseWriter, status int, detail any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"detail": detail}) //nolint:errcheck
}

func TestClient_SendsBearerToken(t *testing.T) {
	var gotAuth, gotReqID, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get(requestIDHeader)
		gotPath = r.URL.Path
		w.Write([]byte(`[]`)) //nolint:errcheck
	})

	_, err := c.ContestTasks(context.Background(), "vac-1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.NotEmpty(t, gotReqID)
	assert.Equal(t, "/api/tasks/contest/vac-1", gotPath)
}

func TestClient_WithTokenDoesNotMutateOriginal(t *testing.T) {
	c := New(Options{BaseURL: "http://example.invalid/api/"})
	assert.False(t, c.Authenticated())
	c2 := c.WithToken("abc")
	assert.True(t, c2.Authenticated())
	assert.False(t, c.Authenticated())
	assert.Equal(t, "http://example.invalid/api", c.BaseURL())
}

func TestClient_LastSolutionQueryAndNull(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("vacancy_id")
		w.Write([]byte(`null`)) //nolint:errcheck
	})

	ls, err := c.LastSolution(context.Background(), "t1", "vac-9")
	require.NoError(t, err)
	assert.Nil(t, ls)
	assert.Equal(t, "vac-9", gotQuery)
}

func TestClient_CommunicationAbsentIsNotAnError(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"null body", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte(`null`)) }}, //nolint:errcheck
		{"404", func(w http.ResponseWriter, _ *http.Request) { writeDetail(w, http.StatusNotFound, "Not found") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			th, err := c.Communication(context.Background(), "t1")
			require.NoError(t, err)
			assert.Nil(t, th)
		})
	}
}

func TestClient_CreateExecutionBody(t *testing.T) {
	var got models.ExecutionRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"id":"e1","language":"go","status":"pending","created_at":"2025-01-01T00:00:00"}`)) //nolint:errcheck
	})

	exec, err := c.CreateExecution(context.Background(), models.ExecutionRequest{
		Language:  models.LanguageGo,
		Files:     map[string]string{"solution.go": "package main"},
		Timeout:   30,
		TestCases: []models.TestCase{{Input: "1", Output: "2"}},
		TaskID:    "t1",
		VacancyID: "v1",
		IsSubmit:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "e1", exec.ID)
	assert.Equal(t, models.ExecutionPending, exec.Status)
	assert.True(t, got.IsSubmit)
	assert.Equal(t, "v1", got.VacancyID)
	assert.Len(t, got.TestCases, 1)
}

func TestClient_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name  string
		h     http.HandlerFunc
		check func(t *testing.T, err error)
	}{
		{
			name: "hint already used is a refusal",
			h: func(w http.ResponseWriter, _ *http.Request) {
				writeDetail(w, http.StatusBadRequest, "Эта подсказка уже использована")
			},
			check: func(t *testing.T, err error) {
				assert.True(t, IsRefusal(err, RefusalHintUsed))
			},
		},
		{
			name: "plain 400 is a validation error",
			h: func(w http.ResponseWriter, _ *http.Request) {
				writeDetail(w, http.StatusBadRequest, "Invalid hint level")
			},
			check: func(t *testing.T, err error) {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "Invalid hint level", ve.Detail)
				assert.Equal(t, http.StatusBadRequest, ve.StatusCode)
			},
		},
		{
			name: "unselected language is a validation error",
			h: func(w http.ResponseWriter, _ *http.Request) {
				writeDetail(w, http.StatusBadRequest, "Не выбран язык программирования для контеста")
			},
			check: func(t *testing.T, err error) {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.False(t, IsRefusal(err, RefusalLanguageMismatch))
				assert.Equal(t, "Не выбран язык программирования для контеста", ve.Detail)
			},
		},
		{
			name: "language mismatch is a refusal",
			h: func(w http.ResponseWriter, _ *http.Request) {
				writeDetail(w, http.StatusBadRequest, "Язык решения не совпадает с языком контеста")
			},
			check: func(t *testing.T, err error) {
				assert.True(t, IsRefusal(err, RefusalLanguageMismatch))
			},
		},
		{
			name: "dev backend language mismatch is a refusal",
			h: func(w http.ResponseWriter, _ *http.Request) {
				writeDetail(w, http.StatusBadRequest, "Language mismatch: this contest requires Python 3")
			},
			check: func(t *testing.T, err error) {
				assert.True(t, IsRefusal(err, RefusalLanguageMismatch))
			},
		},
		{
			name: "422 field list is flattened",
			h: func(w http.ResponseWriter, _ *http.Request) {
				writeDetail(w, http.StatusUnprocessableEntity, []map[string]any{
					{"loc": []any{"body", "hint_level"}, "msg": "field required"},
				})
			},
			check: func(t *testing.T, err error) {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "hint_level: field required", ve.Detail)
			},
		},
		{
			name: "404 is not found",
			h: func(w http.ResponseWriter, _ *http.Request) {
				writeDetail(w, http.StatusNotFound, "Task not found")
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNotFound)
			},
		},
		{
			name: "401 is unauthorized",
			h: func(w http.ResponseWriter, _ *http.Request) {
				writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrUnauthorized)
			},
		},
		{
			name: "500 without body is transport",
			h: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			check: func(t *testing.T, err error) {
				var te *TransportError
				require.ErrorAs(t, err, &te)
				assert.Equal(t, http.StatusBadGateway, te.StatusCode)
			},
		},
		{
			name: "malformed 2xx body is transport",
			h: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`{not json`)) //nolint:errcheck
			},
			check: func(t *testing.T, err error) {
				var te *TransportError
				assert.ErrorAs(t, err, &te)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.h)
			_, err := c.RequestHint(context.Background(), models.HintRequest{TaskID: "t1", HintLevel: models.HintSurface})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestClient_NetworkFailureIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Options{BaseURL: url, Timeout: time.Second})
	_, err := c.SolvedTasks(context.Background(), "v1")
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 0, te.StatusCode)
}

func TestClient_CanceledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[]`)) //nolint:errcheck
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.UsedHints(ctx, "t1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
