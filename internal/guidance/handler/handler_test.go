package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"sofie/internal/guidance/handler/mocks"
	"sofie/internal/guidance/models"
	"sofie/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/guidance-mocks.go -package=mocks Service

type GuidanceHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestGuidanceHandlerSuite(t *testing.T) {
	suite.Run(t, new(GuidanceHandlerSuite))
}

func (s *GuidanceHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *GuidanceHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *GuidanceHandlerSuite) post(body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/wellness/guidance", &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *GuidanceHandlerSuite) decode(rr *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	s.Require().NoError(json.NewDecoder(rr.Body).Decode(&body))
	return body
}

func (s *GuidanceHandlerSuite) TestOK() {
	stress := 6
	s.service.EXPECT().
		Respond(gomock.Any(), models.Request{
			UserID:  "u1",
			Query:   "I feel stressed",
			History: []models.Turn{{Role: "user", Content: "hello"}},
			Context: &models.WellnessContext{StressLevel: &stress, Goals: []string{"sleep"}},
		}).
		Return(&models.Result{
			Outcome:         models.OutcomeOK,
			Text:            "Breathe slowly.",
			ConsentVerified: true,
			ContextUsed:     true,
			Evidence:        []models.EvidenceRef{},
			Timestamp:       testutil.FixedNow,
		})

	rr := s.post(map[string]any{
		"user_id": " u1 ",
		"query":   "I feel stressed ",
		"history": []map[string]string{{"role": "user", "content": "hello"}},
		"context": map[string]any{"stress_level": 6, "goals": []string{" sleep ", " "}},
	})

	s.Equal(http.StatusOK, rr.Code)
	body := s.decode(rr)
	s.Equal("ok", body["outcome"])
	s.Equal("Breathe slowly.", body["guidance"])
	s.Equal(true, body["consent_verified"])
	s.Equal(true, body["context_used"])
}

func (s *GuidanceHandlerSuite) TestConsentDenied() {
	s.service.EXPECT().Respond(gomock.Any(), gomock.Any()).Return(&models.Result{
		Outcome:   models.OutcomeConsentDenied,
		Message:   "grant consent first",
		Evidence:  []models.EvidenceRef{},
		Timestamp: testutil.FixedNow,
	})

	rr := s.post(map[string]any{"user_id": "u1", "query": "help"})

	s.Equal(http.StatusForbidden, rr.Code)
	body := s.decode(rr)
	s.Equal("missing_consent", body["error"])
	s.Equal("grant consent first", body["error_description"])
	s.Equal("consent_denied", body["outcome"])
	s.Equal(false, body["consent_verified"])
}

func (s *GuidanceHandlerSuite) TestGenerationFailed() {
	s.service.EXPECT().Respond(gomock.Any(), gomock.Any()).Return(&models.Result{
		Outcome:         models.OutcomeGenerationFailed,
		Message:         "try again soon",
		ConsentVerified: true,
		Evidence:        []models.EvidenceRef{},
		Timestamp:       testutil.FixedNow,
	})

	rr := s.post(map[string]any{"user_id": "u1", "query": "help"})

	s.Equal(http.StatusInternalServerError, rr.Code)
	body := s.decode(rr)
	s.Equal("generation_unavailable", body["error"])
	s.Equal("try again soon", body["message"])
	s.Equal("generation_failed", body["outcome"])
}

func (s *GuidanceHandlerSuite) TestValidation() {
	s.Run("missing query", func() {
		rr := s.post(map[string]any{"user_id": "u1", "query": "   "})
		s.Equal(http.StatusBadRequest, rr.Code)
		s.Equal("validation_error", s.decode(rr)["error"])
	})

	s.Run("missing user id", func() {
		rr := s.post(map[string]any{"query": "help"})
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("stress level out of range", func() {
		rr := s.post(map[string]any{
			"user_id": "u1",
			"query":   "help",
			"context": map[string]any{"stress_level": 11},
		})
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("history turn without role", func() {
		rr := s.post(map[string]any{
			"user_id": "u1",
			"query":   "help",
			"history": []map[string]string{{"content": "hi"}},
		})
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("malformed body", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/wellness/guidance", bytes.NewBufferString("{"))
		rr := httptest.NewRecorder()
		s.router.ServeHTTP(rr, req)
		s.Equal(http.StatusBadRequest, rr.Code)
		s.Equal("bad_request", s.decode(rr)["error"])
	})
}
