package devbackend

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/futurecareers/contestide/internal/models"
	"github.com/gorilla/mux"
)

// APIPrefix is where the contract is mounted. Clients use <host>/api as
// their base URL.
const APIPrefix = "/api"

// Handler returns the HTTP handler serving the backend contract.
func (b *Backend) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc(APIPrefix+"/health", handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix(APIPrefix).Subrouter()
	api.Use(b.recordMiddleware, b.authMiddleware)

	api.HandleFunc("/vacancies/{id}", b.handleVacancy).Methods(http.MethodGet)
	api.HandleFunc("/vacancies/{id}/survey-questions", b.handleSurveyQuestions).Methods(http.MethodGet)

	api.HandleFunc("/tasks/contest/{id}", b.handleContestTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks/contest/{id}/completion-status", b.handleCompletionStatus).Methods(http.MethodGet)
	api.HandleFunc("/tasks/solved/{id}", b.handleSolvedTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}", b.handleTask).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}/last-solution", b.handleLastSolution).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}/tests-for-submit", b.handleTestsForSubmit).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}/communication", b.handleCommunication).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}/communication/answer", b.handleAnswer).Methods(http.MethodPost)

	api.HandleFunc("/executions", b.handleCreateExecution).Methods(http.MethodPost)
	api.HandleFunc("/executions/{id}", b.handleGetExecution).Methods(http.MethodGet)

	api.HandleFunc("/hints/request", b.handleRequestHint).Methods(http.MethodPost)
	api.HandleFunc("/hints/used/{id}", b.handleUsedHints).Methods(http.MethodGet)
	api.HandleFunc("/hints/available/{id}", b.handleAvailableHints).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	return r
}

func (b *Backend) recordMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.record(r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		if !b.authorized(strings.TrimPrefix(header, "Bearer ")) {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (b *Backend) handleVacancy(w http.ResponseWriter, r *http.Request) {
	v, err := b.vacancy(mux.Vars(r)["id"])
	respond(w, v, err)
}

func (b *Backend) handleSurveyQuestions(w http.ResponseWriter, r *http.Request) {
	qs, err := b.surveyQuestions(mux.Vars(r)["id"])
	respond(w, qs, err)
}

func (b *Backend) handleContestTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := b.contestTasks(mux.Vars(r)["id"])
	respond(w, tasks, err)
}

func (b *Backend) handleCompletionStatus(w http.ResponseWriter, r *http.Request) {
	cs, err := b.completionStatus(mux.Vars(r)["id"])
	respond(w, cs, err)
}

func (b *Backend) handleSolvedTasks(w http.ResponseWriter, r *http.Request) {
	ids, err := b.solvedTasks(mux.Vars(r)["id"])
	respond(w, ids, err)
}

func (b *Backend) handleTask(w http.ResponseWriter, r *http.Request) {
	t, err := b.getTask(mux.Vars(r)["id"])
	respond(w, t, err)
}

func (b *Backend) handleLastSolution(w http.ResponseWriter, r *http.Request) {
	ls, err := b.lastSolution(mux.Vars(r)["id"], r.URL.Query().Get("vacancy_id"))
	respond(w, ls, err)
}

func (b *Backend) handleTestsForSubmit(w http.ResponseWriter, r *http.Request) {
	st, err := b.testsForSubmit(mux.Vars(r)["id"])
	respond(w, st, err)
}

func (b *Backend) handleCommunication(w http.ResponseWriter, r *http.Request) {
	th, err := b.communication(mux.Vars(r)["id"])
	respond(w, th, err)
}

func (b *Backend) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req models.AnswerRequest
	if !decode(w, r, &req) {
		return
	}
	th, err := b.answerCommunication(mux.Vars(r)["id"], strings.TrimSpace(req.Answer))
	respond(w, th, err)
}

func (b *Backend) handleCreateExecution(w http.ResponseWriter, r *http.Request) {
	var req models.ExecutionRequest
	if !decode(w, r, &req) {
		return
	}
	e, err := b.createExecution(req)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (b *Backend) handleGetExecution(w http.ResponseWriter, r *http.Request) {
	e, err := b.getExecution(mux.Vars(r)["id"])
	respond(w, e, err)
}

func (b *Backend) handleRequestHint(w http.ResponseWriter, r *http.Request) {
	var req models.HintRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := b.requestHint(req)
	respond(w, resp, err)
}

func (b *Backend) handleUsedHints(w http.ResponseWriter, r *http.Request) {
	tiers, err := b.usedHints(mux.Vars(r)["id"])
	respond(w, tiers, err)
}

func (b *Backend) handleAvailableHints(w http.ResponseWriter, r *http.Request) {
	tiers, err := b.availableHints(mux.Vars(r)["id"])
	respond(w, tiers, err)
}

// decode reads a JSON body, answering 422 when it is malformed.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []fieldError{{Loc: []string{"body"}, Msg: err.Error(), Type: "json_invalid"}},
		})
		return false
	}
	return true
}

func respond[T any](w http.ResponseWriter, v T, err *apiError) {
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func writeAPIError(w http.ResponseWriter, err *apiError) {
	if len(err.fields) > 0 {
		writeJSON(w, err.status, map[string]any{"detail": err.fields})
		return
	}
	writeDetail(w, err.status, err.detail)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
