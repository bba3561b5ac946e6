package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"pocketly/internal/i18n"
	"pocketly/internal/platform/metrics"
	"pocketly/internal/preferences"
	"pocketly/internal/waitlist/handler/mocks"
	"pocketly/internal/waitlist/models"
	"pocketly/internal/waitlist/service"
	"pocketly/internal/waitlist/store"
	dErrors "pocketly/pkg/domain-errors"
	"pocketly/pkg/testutil"
)

const path = "/api/waitlist"

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  *chi.Mux
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.router = newRouter(s.service)
}

func newRouter(svc Service) *chi.Mux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	New(svc, logger, metrics.New(prometheus.NewRegistry())).Register(r)
	return r
}

type subscribedBody struct {
	Message string              `json:"message"`
	Data    []models.Subscriber `json:"data"`
}

type developmentBody struct {
	Message string                 `json:"message"`
	Data    models.DevelopmentData `json:"data"`
	Mode    models.Mode            `json:"mode"`
}

func (s *HandlerSuite) TestStored() {
	row := models.Subscriber{ID: uuid.New(), Email: "user@example.com", CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	s.service.EXPECT().Subscribe(gomock.Any(), "user@example.com").
		Return(&models.SubscribeResult{Mode: models.ModeStored, Email: row.Email, Subscriber: &row}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path,
		map[string]string{"email": "user@example.com"}))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	body := testutil.DecodeJSON[subscribedBody](s.T(), rr)
	s.Equal("email registered successfully", body.Message)
	s.Require().Len(body.Data, 1)
	s.Equal(row, body.Data[0])
	s.Equal("application/json", rr.Header().Get("Content-Type"))
	s.NotEmpty(rr.Header().Get("X-Request-ID"))
}

func (s *HandlerSuite) TestDevelopmentMode() {
	s.service.EXPECT().Subscribe(gomock.Any(), "user@example.com").
		Return(&models.SubscribeResult{Mode: models.ModeDevelopment, Email: "user@example.com"}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path,
		map[string]string{"email": "user@example.com"}))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	body := testutil.DecodeJSON[developmentBody](s.T(), rr)
	s.Equal(models.ModeDevelopment, body.Mode)
	s.Equal("user@example.com", body.Data.Email)
	s.Contains(body.Message, "development mode")
}

func (s *HandlerSuite) TestMalformedBodyNeverReachesService() {
	for _, raw := range []string{"", "{", "not json", `{"email": "user@example.com"`, `{"email":}`} {
		rr := testutil.DoRequest(s.router, testutil.NewRawRequest(s.T(), http.MethodPost, path, raw))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "invalid request format")
	}
}

func (s *HandlerSuite) TestInvalidEmailNeverReachesService() {
	bodies := []string{
		`{}`,
		`{"email": null}`,
		`{"email": 42}`,
		`{"email": ["user@example.com"]}`,
		`{"email": ""}`,
		`{"email": "not-an-email"}`,
		`{"email": "user@example"}`,
		`{"email": "us er@example.com"}`,
		`null`,
		`[]`,
		`"user@example.com"`,
	}
	for _, raw := range bodies {
		rr := testutil.DoRequest(s.router, testutil.NewRawRequest(s.T(), http.MethodPost, path, raw))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "please enter a valid email")
	}
}

func (s *HandlerSuite) TestDuplicate() {
	s.service.EXPECT().Subscribe(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeConflict, "this email is already registered"))

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path,
		map[string]string{"email": "user@example.com"}))
	resp := testutil.AssertError(s.T(), rr, http.StatusConflict, "this email is already registered")
	s.Empty(resp.Details)
}

func (s *HandlerSuite) TestMisconfiguredNamesScript() {
	s.service.EXPECT().Subscribe(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeMisconfigured, "policy missing").WithDetails(service.RemediationScript))

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path,
		map[string]string{"email": "user@example.com"}))
	testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
	resp := testutil.DecodeError(s.T(), rr)
	s.Contains(resp.Error, "scripts/newsletter-subscribers-rls.sql")
	s.Contains(resp.Details, "scripts/newsletter-subscribers-rls.sql")
}

func (s *HandlerSuite) TestStoreFailureCarriesDetails() {
	s.service.EXPECT().Subscribe(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeStoreFailure, "failed").WithDetails("too many connections"))

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path,
		map[string]string{"email": "user@example.com"}))
	resp := testutil.AssertError(s.T(), rr, http.StatusInternalServerError, "an error occurred, please try again")
	s.Equal("too many connections", resp.Details)
}

func (s *HandlerSuite) TestStoreFailureWithoutMessage() {
	s.service.EXPECT().Subscribe(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeStoreFailure, "failed"))

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path,
		map[string]string{"email": "user@example.com"}))
	resp := testutil.AssertError(s.T(), rr, http.StatusInternalServerError, "an error occurred, please try again")
	s.Equal("unknown error", resp.Details)
}

func (s *HandlerSuite) TestUnexpectedError() {
	s.service.EXPECT().Subscribe(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path,
		map[string]string{"email": "user@example.com"}))
	resp := testutil.AssertError(s.T(), rr, http.StatusInternalServerError, "server error")
	s.Equal("boom", resp.Details)
}

func (s *HandlerSuite) TestPanicBecomesServerError() {
	s.service.EXPECT().Subscribe(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string) (*models.SubscribeResult, error) {
			panic("nil store client")
		})

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path,
		map[string]string{"email": "user@example.com"}))
	resp := testutil.AssertError(s.T(), rr, http.StatusInternalServerError, "server error")
	s.Equal("nil store client", resp.Details)
}

func (s *HandlerSuite) TestFrenchMessages() {
	s.service.EXPECT().Subscribe(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeConflict, "dupe"))

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]string{"email": "user@example.com"})
	req.Header.Set("Accept-Language", "fr-CA,fr;q=0.9")
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertError(s.T(), rr, http.StatusConflict, "Cet email est déjà enregistré")

	req = testutil.NewRawRequest(s.T(), http.MethodPost, path, "{")
	req.AddCookie(&http.Cookie{Name: preferences.LanguageCookie, Value: "fr"})
	rr = testutil.DoRequest(s.router, req)
	testutil.AssertError(s.T(), rr, http.StatusBadRequest, i18n.T(i18n.French, i18n.InvalidRequestFormat))
}

func (s *HandlerSuite) TestOnlyPostIsRouted() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, path, nil))
	testutil.AssertStatus(s.T(), rr, http.StatusMethodNotAllowed)
}

func TestSubscribeTwiceAgainstLiveStore(t *testing.T) {
	svc := service.New(store.Configured{Store: store.NewInMemory()},
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	router := newRouter(svc)
	body := map[string]string{"email": "user@example.com"}

	testutil.Given(t, "a fresh address", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, path, body))
		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp map[string]json.RawMessage
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if _, ok := resp["mode"]; ok {
			t.Fatal("stored response must not carry a mode marker")
		}
	})

	testutil.When(t, "the same address is submitted again", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, path, body))
		testutil.AssertError(t, rr, http.StatusConflict, "this email is already registered")
	})
}

func TestUnconfiguredStoreAcceptsEverythingValid(t *testing.T) {
	router := newRouter(service.New(store.Unconfigured{Reason: "no credentials"}))

	for _, address := range []string{"a@b.c", "user+tag@example.co.uk", "x@y.z"} {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, path,
			map[string]string{"email": address}))
		testutil.AssertStatus(t, rr, http.StatusOK)
		body := testutil.DecodeJSON[developmentBody](t, rr)
		if body.Mode != models.ModeDevelopment || body.Data.Email != address {
			t.Fatalf("unexpected body for %s: %+v", address, body)
		}
	}
}
