package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"terminfinder/internal/domain"
	"terminfinder/internal/middleware"
	"terminfinder/pkg/errors"
	"terminfinder/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	standardErr error
	matrixErr   error

	gotPublicID string
	gotName     string
	gotSel      map[int64]domain.ResponseType
	gotCells    []domain.Cell
}

func (s *stubEngine) SubmitStandard(ctx context.Context, publicID, name string, sel map[int64]domain.ResponseType) error {
	s.gotPublicID, s.gotName, s.gotSel = publicID, name, sel
	return s.standardErr
}

func (s *stubEngine) SubmitMatrix(ctx context.Context, publicID, name string, cells []domain.Cell) error {
	s.gotPublicID, s.gotName, s.gotCells = publicID, name, cells
	return s.matrixErr
}

type stubResults struct {
	polls   []domain.Poll
	view    *domain.PollView
	results *domain.PollResults
	err     error

	gotIsAdmin bool
}

func (s *stubResults) ListActivePolls(ctx context.Context) ([]domain.Poll, error) {
	return s.polls, s.err
}

func (s *stubResults) GetPollView(ctx context.Context, publicID string) (*domain.PollView, error) {
	return s.view, s.err
}

func (s *stubResults) GetResults(ctx context.Context, publicID string, isAdmin bool) (*domain.PollResults, error) {
	s.gotIsAdmin = isAdmin
	return s.results, s.err
}

func testHandlerLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "test")
	require.NoError(t, err)
	return log
}

func pollRouter(h *PollHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/polls", h.ListPolls)
	r.Get("/api/polls/{publicID}", h.GetPoll)
	r.Get("/api/polls/{publicID}/results", h.GetResults)
	r.Post("/api/polls/{publicID}/responses", h.SubmitResponses)
	r.Post("/api/polls/{publicID}/bookings", h.SubmitBookings)
	return r
}

func TestListPolls(t *testing.T) {
	results := &stubResults{polls: []domain.Poll{{PublicID: "abc", Title: "one"}}}
	h := NewPollHandler(&stubEngine{}, results, testHandlerLogger(t))

	req := httptest.NewRequest(http.MethodGet, "/api/polls", nil)
	rec := httptest.NewRecorder()
	pollRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Polls []domain.Poll `json:"polls"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Polls, 1)
	assert.Equal(t, "abc", body.Polls[0].PublicID)
}

func TestListPolls_EmptyIsArray(t *testing.T) {
	h := NewPollHandler(&stubEngine{}, &stubResults{}, testHandlerLogger(t))

	req := httptest.NewRequest(http.MethodGet, "/api/polls", nil)
	rec := httptest.NewRecorder()
	pollRouter(h).ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), `"polls":[]`)
}

func TestGetPoll(t *testing.T) {
	results := &stubResults{view: &domain.PollView{Poll: domain.Poll{PublicID: "abc"}}}
	h := NewPollHandler(&stubEngine{}, results, testHandlerLogger(t))

	req := httptest.NewRequest(http.MethodGet, "/api/polls/abc", nil)
	rec := httptest.NewRecorder()
	pollRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetPoll_NotFound(t *testing.T) {
	results := &stubResults{err: domain.ErrPollNotFound}
	h := NewPollHandler(&stubEngine{}, results, testHandlerLogger(t))

	req := httptest.NewRequest(http.MethodGet, "/api/polls/missing", nil)
	rec := httptest.NewRecorder()
	pollRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp errors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, errors.ErrorTypeNotFound, resp.Error.Type)
}

func TestGetResults_AdminFlagFromContext(t *testing.T) {
	results := &stubResults{results: &domain.PollResults{}}
	h := NewPollHandler(&stubEngine{}, results, testHandlerLogger(t))

	req := httptest.NewRequest(http.MethodGet, "/api/polls/abc/results", nil)
	ctx := context.WithValue(req.Context(), middleware.AdminContextKey, true)
	rec := httptest.NewRecorder()
	pollRouter(h).ServeHTTP(rec, req.WithContext(ctx))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, results.gotIsAdmin)
}

func TestSubmitResponses(t *testing.T) {
	engine := &stubEngine{}
	h := NewPollHandler(engine, &stubResults{}, testHandlerLogger(t))

	body := `{"name":"Alice","responses":{"12":"yes","13":"maybe"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/polls/abc/responses", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	pollRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "abc", engine.gotPublicID)
	assert.Equal(t, "Alice", engine.gotName)
	assert.Equal(t, map[int64]domain.ResponseType{
		12: domain.ResponseYes,
		13: domain.ResponseMaybe,
	}, engine.gotSel)
}

func TestSubmitResponses_BadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"name":`},
		{"non-numeric option id", `{"name":"A","responses":{"abc":"yes"}}`},
		{"invalid response value", `{"name":"A","responses":{"12":"perhaps"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPollHandler(&stubEngine{}, &stubResults{}, testHandlerLogger(t))

			req := httptest.NewRequest(http.MethodPost, "/api/polls/abc/responses", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			pollRouter(h).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSubmitResponses_EngineErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   errors.ErrorType
	}{
		{"not found", domain.ErrPollNotFound, http.StatusNotFound, errors.ErrorTypeNotFound},
		{"inactive", domain.ErrPollInactive, http.StatusConflict, errors.ErrorTypeConflict},
		{"expired", domain.ErrPollExpired, http.StatusConflict, errors.ErrorTypeConflict},
		{"changes not allowed", domain.ErrChangesNotAllowed, http.StatusConflict, errors.ErrorTypeConflict},
		{"missing name", domain.ErrMissingName, http.StatusBadRequest, errors.ErrorTypeValidation},
		{"wrong kind", domain.ErrWrongPollKind, http.StatusBadRequest, errors.ErrorTypeValidation},
		{"unknown option", domain.ErrInvalidReference, http.StatusBadRequest, errors.ErrorTypeValidation},
		{"capacity", &domain.CapacityError{OptionID: 12}, http.StatusConflict, errors.ErrorTypeConflict},
		{"busy", domain.ErrPollBusy, http.StatusServiceUnavailable, errors.ErrorTypeUnavailable},
		{"storage", &domain.StorageError{Err: context.DeadlineExceeded}, http.StatusServiceUnavailable, errors.ErrorTypeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPollHandler(&stubEngine{standardErr: tt.err}, &stubResults{}, testHandlerLogger(t))

			body := `{"name":"Alice","responses":{}}`
			req := httptest.NewRequest(http.MethodPost, "/api/polls/abc/responses", bytes.NewBufferString(body))
			rec := httptest.NewRecorder()
			pollRouter(h).ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)

			var resp errors.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantType, resp.Error.Type)
		})
	}
}

func TestSubmitResponses_CapacityDetails(t *testing.T) {
	h := NewPollHandler(&stubEngine{standardErr: &domain.CapacityError{OptionID: 42}}, &stubResults{}, testHandlerLogger(t))

	body := `{"name":"Alice","responses":{"42":"yes"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/polls/abc/responses", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	pollRouter(h).ServeHTTP(rec, req)

	var resp errors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 42, resp.Error.Details["option_id"])
}

func TestSubmitBookings_SingleChoiceForm(t *testing.T) {
	engine := &stubEngine{}
	h := NewPollHandler(engine, &stubResults{}, testHandlerLogger(t))

	body := `{"name":"Alice","selections":{"7":21}}`
	req := httptest.NewRequest(http.MethodPost, "/api/polls/abc/bookings", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	pollRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []domain.Cell{{ResourceID: 7, OptionID: 21}}, engine.gotCells)
}

func TestSubmitBookings_CellForm(t *testing.T) {
	engine := &stubEngine{}
	h := NewPollHandler(engine, &stubResults{}, testHandlerLogger(t))

	body := `{"name":"Alice","cells":[{"resource_id":7,"option_id":21},{"resource_id":7,"option_id":22}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/polls/abc/bookings", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	pollRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, engine.gotCells, 2)
}

func TestSubmitBookings_DuplicateSelection(t *testing.T) {
	engine := &stubEngine{matrixErr: &domain.DuplicateSelectionError{OptionID: 21}}
	h := NewPollHandler(engine, &stubResults{}, testHandlerLogger(t))

	body := `{"name":"Alice","cells":[{"resource_id":7,"option_id":21}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/polls/abc/bookings", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	pollRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)

	var resp errors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, errors.ErrorTypeConflict, resp.Error.Type)
	assert.EqualValues(t, 21, resp.Error.Details["option_id"])
}
