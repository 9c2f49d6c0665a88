package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"sofie/internal/consent/handler/mocks"
	"sofie/internal/consent/models"
	dErrors "sofie/pkg/domain-errors"
	"sofie/pkg/platform/httputil"
)

//go:generate mockgen -source=handler.go -destination=mocks/consent-mocks.go -package=mocks Service

type ConsentHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestConsentHandlerSuite(t *testing.T) {
	suite.Run(t, new(ConsentHandlerSuite))
}

func (s *ConsentHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *ConsentHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ConsentHandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *ConsentHandlerSuite) decodeError(rr *httptest.ResponseRecorder) httputil.ErrorResponse {
	var body httputil.ErrorResponse
	s.Require().NoError(json.NewDecoder(rr.Body).Decode(&body))
	return body
}

func (s *ConsentHandlerSuite) TestGrant() {
	s.Run("normalizes input and returns the record", func() {
		now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
		record, err := models.NewGrant("u1", models.TypeWellnessGuidance, "coaching", now, 24*time.Hour)
		s.Require().NoError(err)
		s.service.EXPECT().
			Grant(gomock.Any(), "u1", models.TypeWellnessGuidance, "coaching").
			Return(record, nil)

		rr := s.do(http.MethodPost, "/api/v1/consent/grant", map[string]string{
			"user_id":      " u1 ",
			"consent_type": "Wellness_Guidance",
			"purpose":      "coaching",
		})

		s.Equal(http.StatusOK, rr.Code)
		var body RecordResponse
		s.Require().NoError(json.NewDecoder(rr.Body).Decode(&body))
		s.Equal(models.StatusGranted, body.Status)
		s.Equal(now.Add(24*time.Hour), *body.ExpiresAt)
	})

	s.Run("malformed json returns 400", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/consent/grant", bytes.NewBufferString("{"))
		rr := httptest.NewRecorder()
		s.router.ServeHTTP(rr, req)
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("missing user id returns 400", func() {
		rr := s.do(http.MethodPost, "/api/v1/consent/grant", map[string]string{"consent_type": "wellness_guidance"})
		s.Equal(http.StatusBadRequest, rr.Code)
		s.Equal("validation_error", s.decodeError(rr).Error)
	})

	s.Run("unknown consent type returns 400", func() {
		rr := s.do(http.MethodPost, "/api/v1/consent/grant", map[string]string{"user_id": "u1", "consent_type": "mind_reading"})
		s.Equal(http.StatusBadRequest, rr.Code)
		s.Equal("bad_request", s.decodeError(rr).Error)
	})

	s.Run("store failure returns 500", func() {
		s.service.EXPECT().Grant(gomock.Any(), "u1", models.TypeAIInference, "").
			Return(nil, dErrors.New(dErrors.CodeInternal, "failed to save consent"))

		rr := s.do(http.MethodPost, "/api/v1/consent/grant", map[string]string{"user_id": "u1", "consent_type": "ai_inference"})
		s.Equal(http.StatusInternalServerError, rr.Code)
	})
}

func (s *ConsentHandlerSuite) TestCheckAndRevoke() {
	s.Run("check returns denied record for unknown user", func() {
		s.service.EXPECT().Check(gomock.Any(), "ghost", models.TypeWellnessGuidance).
			Return(models.Denied("ghost", models.TypeWellnessGuidance), nil)

		rr := s.do(http.MethodGet, "/api/v1/consent/check/ghost/wellness_guidance", nil)
		s.Equal(http.StatusOK, rr.Code)
		var body RecordResponse
		s.Require().NoError(json.NewDecoder(rr.Body).Decode(&body))
		s.Equal(models.StatusDenied, body.Status)
		s.Nil(body.GrantedAt)
	})

	s.Run("revoke passes the parsed key", func() {
		now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
		record, _ := models.NewGrant("u1", models.TypePersonalization, "", now, time.Hour)
		record.Revoke(now.Add(time.Minute))
		s.service.EXPECT().Revoke(gomock.Any(), "u1", models.TypePersonalization).Return(record, nil)

		rr := s.do(http.MethodDelete, "/api/v1/consent/revoke/u1/personalization", nil)
		s.Equal(http.StatusOK, rr.Code)
		var body RecordResponse
		s.Require().NoError(json.NewDecoder(rr.Body).Decode(&body))
		s.Equal(models.StatusRevoked, body.Status)
		s.NotNil(body.RevokedAt)
	})

	s.Run("invalid consent type in path returns 400 without calling the service", func() {
		rr := s.do(http.MethodGet, "/api/v1/consent/check/u1/nope", nil)
		s.Equal(http.StatusBadRequest, rr.Code)
	})
}

func (s *ConsentHandlerSuite) TestList() {
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	a, _ := models.NewGrant("u1", models.TypeAIInference, "", now, time.Hour)
	b, _ := models.NewGrant("u1", models.TypeWellnessGuidance, "", now, time.Hour)
	s.service.EXPECT().List(gomock.Any(), "u1").Return([]*models.Record{a, b}, nil)

	rr := s.do(http.MethodGet, "/api/v1/consent/u1", nil)
	s.Equal(http.StatusOK, rr.Code)
	var body ListResponse
	s.Require().NoError(json.NewDecoder(rr.Body).Decode(&body))
	s.Equal("u1", body.UserID)
	s.Len(body.Consents, 2)
}
