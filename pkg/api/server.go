package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/shopaiassist/containerapp/pkg/auth"
	"github.com/shopaiassist/containerapp/pkg/httputil"
	"github.com/shopaiassist/containerapp/pkg/observability"
	"github.com/shopaiassist/containerapp/pkg/session"
)

// Pages users are redirected to after the login callback.
const (
	HomePage          = "/"
	NotAuthorizedPage = "/no-access.html"
)

// defaultDoNotSellURL is the CCPA data subject access request form used
// when no override is configured.
const defaultDoNotSellURL = "https://privacyportal-cdn.onetrust.com/dsarwebform/dbf5ae8a-0a6a-4f4b-b527-7f94d0de6bbc/5dc91c0f-f1b7-4b6e-9d42-76043adaf72d.html"

// LoginService runs the login flow. Implemented by auth.Service.
type LoginService interface {
	LoginUser(ctx context.Context, signOnToken string) (*auth.LoggedInUser, error)
}

// EmailService builds and verifies secure notification URLs and proxies
// skill completion emails. Implemented by email.Service.
type EmailService interface {
	SecureURL(skillID, flowID, userGuid, emailAddress string) string
	VerifySecureHash(skillID, flowID, userGuid, secureHash string) bool
	SendSkillCompleteEmail(ctx context.Context, userGuid, emailAddress, skillID, flowID string, skillData map[string]string) (string, error)
}

// Server is the HTTP API surface: the OnePass login callback, the user
// session endpoints, the email proxy, and external redirects.
type Server struct {
	router       *mux.Router
	authSvc      LoginService
	sessions     *session.Manager
	email        EmailService
	doNotSellURL string
	logger       *observability.Logger
	metrics      *observability.Metrics
}

// NewServer creates the API server. email may be nil, in which case the
// email endpoints are not served; metrics may be nil.
func NewServer(authSvc LoginService, sessions *session.Manager, email EmailService, doNotSellURL string, logger *observability.Logger, metrics *observability.Metrics) *Server {
	if doNotSellURL == "" {
		doNotSellURL = defaultDoNotSellURL
	}
	s := &Server{
		router:       mux.NewRouter(),
		authSvc:      authSvc,
		sessions:     sessions,
		email:        email,
		doNotSellURL: doNotSellURL,
		logger:       logger.WithField("component", "api"),
		metrics:      metrics,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	middlewares := []mux.MiddlewareFunc{
		httputil.RequestIDMiddleware,
		s.contextLoggerMiddleware,
		httputil.LoggingMiddleware(s.logger),
		httputil.RecoveryMiddleware(s.logger),
		// Every /api response is user scoped; none of it may be cached.
		httputil.NoStoreMiddleware,
	}
	if s.metrics != nil {
		middlewares = append(middlewares, s.metrics.HTTPMiddleware)
	}
	api.Use(middlewares...)

	api.HandleFunc("/auth/onepass", s.handleOnePassCallback).Methods(http.MethodGet)
	api.HandleFunc("/user/me", s.handleMe).Methods(http.MethodGet)
	api.HandleFunc("/user/timeouts", s.handleTimeouts).Methods(http.MethodGet)
	api.HandleFunc("/user/logout", s.handleLogout).Methods(http.MethodPost)
	api.HandleFunc("/redirect/ccpa-dsar", s.handleDoNotSell).Methods(http.MethodGet)

	if s.email != nil {
		api.HandleFunc("/email/secure-url", s.handleSecureURL).Methods(http.MethodGet)
		api.HandleFunc("/email/skill-notification", s.handleSkillNotification).Methods(http.MethodPost)
	}
}

// contextLoggerMiddleware seeds the request context with the server logger
// so handlers and the login flow can log via observability.FromContext,
// picking up the request ID and user ID as they are added.
func (s *Server) contextLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.WithLogger(r.Context(), s.logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Handler returns the server's root handler, wrapped for tracing.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "containerapp")
}
