package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"fiscaltask/internal/generation"
	"fiscaltask/internal/models"
	"fiscaltask/internal/reassignment"
	"fiscaltask/internal/risk"
	"fiscaltask/internal/settings"
	"fiscaltask/internal/transport/http/mocks"
	id "fiscaltask/pkg/domain"
	dErrors "fiscaltask/pkg/domain-errors"
	"fiscaltask/pkg/requestcontext"
	"fiscaltask/pkg/testutil"
)

const validToken = "operator-token"

type stubValidator struct {
	actor id.UserID
}

func (v stubValidator) ValidateActor(token string) (id.UserID, error) {
	if token != validToken {
		return id.UserID{}, errors.New("bad token")
	}
	return v.actor, nil
}

type HandlerSuite struct {
	suite.Suite
	actor        id.UserID
	generation   *mocks.MockGenerationService
	reassignment *mocks.MockReassignmentService
	risk         *mocks.MockRiskService
	settings     *mocks.MockSettingsService
	router       http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.generation = mocks.NewMockGenerationService(ctrl)
	s.reassignment = mocks.NewMockReassignmentService(ctrl)
	s.risk = mocks.NewMockRiskService(ctrl)
	s.settings = mocks.NewMockSettingsService(ctrl)
	s.actor = id.UserID(uuid.New())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = NewRouter(RouterConfig{
		Handler:   New(s.generation, s.reassignment, s.risk, s.settings, logger),
		Validator: stubValidator{actor: s.actor},
		Gatherer:  prometheus.NewRegistry(),
		Logger:    logger,
	})
}

func (s *HandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), method, path, body), validToken)
	return testutil.DoRequest(s.router, req)
}

func (s *HandlerSuite) decode(w *httptest.ResponseRecorder) map[string]any {
	return *testutil.UnmarshalResponse[map[string]any](s.T(), w)
}

func (s *HandlerSuite) TestRequiresBearerToken() {
	s.Run("missing", func() {
		w := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/engine/risk/sweep", nil))
		testutil.AssertErrorCode(s.T(), w, http.StatusUnauthorized, string(dErrors.CodeUnauthorized))
	})

	s.Run("wrong token", func() {
		req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodPost, "/engine/risk/sweep", nil), "nope")
		testutil.AssertErrorCode(s.T(), testutil.DoRequest(s.router, req), http.StatusUnauthorized, string(dErrors.CodeUnauthorized))
	})
}

func (s *HandlerSuite) TestGenerate() {
	s.Run("success", func() {
		s.generation.EXPECT().Generate(gomock.Any(), "2025-03", (*id.TaxpayerID)(nil)).
			Return(&generation.Result{Success: true, Period: "2025-03", TasksCreated: 7, Errors: []string{}}, nil)

		w := s.do(http.MethodPost, "/engine/generate", `{"period":"2025-03"}`)
		s.Equal(http.StatusOK, w.Code)
		body := s.decode(w)
		s.Equal(true, body["success"])
		s.Equal(float64(7), body["tasks_created"])
	})

	s.Run("scoped to one taxpayer", func() {
		tid := id.TaxpayerID(uuid.New())
		s.generation.EXPECT().Generate(gomock.Any(), "2025-03", &tid).
			Return(&generation.Result{Success: true, Period: "2025-03", Errors: []string{}}, nil)

		w := s.do(http.MethodPost, "/engine/generate", `{"period":"2025-03","taxpayer_id":"`+tid.String()+`"}`)
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("partial failure is multi-status", func() {
		s.generation.EXPECT().Generate(gomock.Any(), "2025-03", gomock.Nil()).
			Return(&generation.Result{Success: false, Period: "2025-03", TasksCreated: 500, Errors: []string{"chunk 2: insert tasks: timeout"}}, nil)

		w := s.do(http.MethodPost, "/engine/generate", `{"period":"2025-03"}`)
		s.Equal(http.StatusMultiStatus, w.Code)
		s.Equal(false, s.decode(w)["success"])
	})

	s.Run("missing period", func() {
		w := s.do(http.MethodPost, "/engine/generate", `{}`)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("invalid period from engine", func() {
		s.generation.EXPECT().Generate(gomock.Any(), "2025-13", gomock.Nil()).
			Return(nil, dErrors.New(dErrors.CodeValidation, "invalid period"))

		w := s.do(http.MethodPost, "/engine/generate", `{"period":"2025-13"}`)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("store outage", func() {
		s.generation.EXPECT().Generate(gomock.Any(), "2025-03", gomock.Nil()).
			Return(nil, dErrors.Wrap(errors.New("dial tcp"), dErrors.CodeInternal, "load taxpayers"))

		w := s.do(http.MethodPost, "/engine/generate", `{"period":"2025-03"}`)
		s.Equal(http.StatusInternalServerError, w.Code)
		s.Equal("internal_error", s.decode(w)["error"])
	})
}

func (s *HandlerSuite) TestReassign() {
	collaborator := id.UserID(uuid.New())
	substitute := id.UserID(uuid.New())

	s.Run("passes the operator as actor", func() {
		s.reassignment.EXPECT().Reassign(gomock.Any(), collaborator, &substitute).
			DoAndReturn(func(ctx context.Context, _ id.UserID, _ *id.UserID) (*reassignment.Result, error) {
				s.Equal(s.actor, requestcontext.ActorID(ctx))
				return &reassignment.Result{Success: true, Reassigned: 3, Errors: []string{}, Details: []reassignment.Detail{}}, nil
			})

		w := s.do(http.MethodPost, "/engine/reassign",
			`{"collaborator_id":"`+collaborator.String()+`","substitute_id":"`+substitute.String()+`"}`)
		s.Equal(http.StatusOK, w.Code)
		s.Equal(float64(3), s.decode(w)["reassigned"])
	})

	s.Run("precondition failure is multi-status", func() {
		s.reassignment.EXPECT().Reassign(gomock.Any(), collaborator, gomock.Nil()).
			Return(&reassignment.Result{Success: false, Errors: []string{"Ana: collaborator's team has no active leader"}, Details: []reassignment.Detail{}}, nil)

		w := s.do(http.MethodPost, "/engine/reassign", `{"collaborator_id":"`+collaborator.String()+`"}`)
		s.Equal(http.StatusMultiStatus, w.Code)
	})

	s.Run("malformed collaborator id", func() {
		w := s.do(http.MethodPost, "/engine/reassign", `{"collaborator_id":"not-a-uuid"}`)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("unknown field", func() {
		w := s.do(http.MethodPost, "/engine/reassign", `{"colaborador":"x"}`)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *HandlerSuite) TestSweeps() {
	s.reassignment.EXPECT().SweepActiveAbsences(gomock.Any()).
		Return(&reassignment.SweepResult{Success: true, AbsencesProcessed: 2, TotalReassigned: 5, Errors: []string{}}, nil)
	w := s.do(http.MethodPost, "/engine/absences/sweep", "")
	s.Equal(http.StatusOK, w.Code)
	s.Equal(float64(5), s.decode(w)["total_reassigned"])

	s.risk.EXPECT().Sweep(gomock.Any()).
		Return(&risk.SweepResult{Success: true, Flagged: 1, Cleared: 2, Errors: []string{}}, nil)
	w = s.do(http.MethodPost, "/engine/risk/sweep", "")
	s.Equal(http.StatusOK, w.Code)
	body := s.decode(w)
	s.Equal(float64(1), body["flagged"])
	s.Equal(float64(2), body["cleared"])
}

func (s *HandlerSuite) TestRiskQueries() {
	entered := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	s.risk.EXPECT().ListAtRisk(gomock.Any()).Return([]risk.AtRiskTask{
		{TaskID: "t1", ClientName: "Acme", Period: "2025-02", StateEnteredAt: entered, ElapsedDays: 10},
	}, nil)
	w := s.do(http.MethodGet, "/risk/tasks", "")
	s.Equal(http.StatusOK, w.Code)
	body := s.decode(w)
	s.Equal(float64(1), body["total"])

	client := id.ClientID(uuid.New())
	s.risk.EXPECT().CountByClient(gomock.Any()).Return([]models.ClientRiskCount{
		{ClientID: client, ClientName: "Acme", Count: 4},
	}, nil)
	w = s.do(http.MethodGet, "/risk/clients", "")
	s.Equal(http.StatusOK, w.Code)
	var counts []ClientRiskCount
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &counts))
	s.Equal([]ClientRiskCount{{ClientID: client.String(), ClientName: "Acme", Count: 4}}, counts)
}

func (s *HandlerSuite) TestOverride() {
	taskID := id.TaskID(uuid.New())

	s.Run("sets flag", func() {
		s.risk.EXPECT().Override(gomock.Any(), taskID, true).Return(nil)
		w := s.do(http.MethodPut, "/risk/tasks/"+taskID.String(), `{"at_risk":true}`)
		s.Equal(http.StatusNoContent, w.Code)
	})

	s.Run("missing at_risk", func() {
		w := s.do(http.MethodPut, "/risk/tasks/"+taskID.String(), `{}`)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("unknown task", func() {
		s.risk.EXPECT().Override(gomock.Any(), taskID, false).Return(dErrors.New(dErrors.CodeNotFound, "task not found"))
		w := s.do(http.MethodPut, "/risk/tasks/"+taskID.String(), `{"at_risk":false}`)
		testutil.AssertErrorCode(s.T(), w, http.StatusNotFound, string(dErrors.CodeNotFound))
	})

	s.Run("bad task id", func() {
		w := s.do(http.MethodPut, "/risk/tasks/abc", `{"at_risk":false}`)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *HandlerSuite) TestSummary() {
	s.generation.EXPECT().Summary(gomock.Any(), "2025-03").Return(&generation.Summary{
		Period:  "2025-03",
		Total:   3,
		ByState: map[string]int{"not_started": 2, "submitted": 1},
		ByOwner: map[string]int{generation.UnassignedOwner: 3},
	}, nil)

	w := s.do(http.MethodGet, "/tasks/summary?period=2025-03", "")
	s.Equal(http.StatusOK, w.Code)
	s.Equal(float64(3), s.decode(w)["total"])

	w = s.do(http.MethodGet, "/tasks/summary", "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerSuite) TestSettings() {
	s.Run("update risk", func() {
		s.settings.EXPECT().UpdateRisk(gomock.Any(), settings.RiskConfig{ThresholdDays: 5, Enabled: true}).
			Return(settings.RiskConfig{ThresholdDays: 5, Enabled: true}, nil)
		w := s.do(http.MethodPut, "/settings/risk", `{"threshold_days":5,"enabled":true}`)
		s.Equal(http.StatusOK, w.Code)
		s.Equal(float64(5), s.decode(w)["threshold_days"])
	})

	s.Run("risk validation error", func() {
		s.settings.EXPECT().UpdateRisk(gomock.Any(), settings.RiskConfig{ThresholdDays: 0, Enabled: true}).
			Return(settings.RiskConfig{}, dErrors.New(dErrors.CodeValidation, "threshold_days must be at least 1"))
		w := s.do(http.MethodPut, "/settings/risk", `{"threshold_days":0,"enabled":true}`)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("incomplete risk body", func() {
		w := s.do(http.MethodPut, "/settings/risk", `{"enabled":true}`)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("update auto-generation", func() {
		s.settings.EXPECT().UpdateAutoGeneration(gomock.Any(), true, 3).
			Return(settings.AutoGenerationConfig{Enabled: true, RunDay: 3, LastGeneratedPeriod: "2025-02"}, nil)
		w := s.do(http.MethodPut, "/settings/auto-generation", `{"enabled":true,"run_day":3}`)
		s.Equal(http.StatusOK, w.Code)
		s.Equal("2025-02", s.decode(w)["last_generated_period"])
	})

	s.Run("read settings", func() {
		s.settings.EXPECT().Risk(gomock.Any()).Return(settings.DefaultRiskConfig(), nil)
		w := s.do(http.MethodGet, "/settings/risk", "")
		s.Equal(http.StatusOK, w.Code)
		s.Equal(float64(3), s.decode(w)["threshold_days"])

		s.settings.EXPECT().AutoGeneration(gomock.Any()).Return(settings.DefaultAutoGenerationConfig(), nil)
		w = s.do(http.MethodGet, "/settings/auto-generation", "")
		s.Equal(http.StatusOK, w.Code)
		s.Equal(false, s.decode(w)["enabled"])
	})
}

func (s *HandlerSuite) TestPublicEndpoints() {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("ok", s.decode(w)["status"])

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerSuite) TestHealthzReportsOutage() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(RouterConfig{
		Handler:   New(s.generation, s.reassignment, s.risk, s.settings, logger),
		Validator: stubValidator{actor: s.actor},
		Health:    func(context.Context) error { return errors.New("db down") },
		Logger:    logger,
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	s.Equal(http.StatusServiceUnavailable, w.Code)
}
