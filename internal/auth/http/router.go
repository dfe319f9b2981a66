package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hms-dta/agencyauth/internal/auth/service"
	"github.com/hms-dta/agencyauth/internal/auth/store"
	"github.com/hms-dta/agencyauth/pkg/httpx"
	"github.com/hms-dta/agencyauth/pkg/jwtx"
	"github.com/hms-dta/agencyauth/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	issuer       string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store             store.Store
	DeviceFlowService *service.DeviceFlowService
	TokenService      *service.TokenService
	UserService       *service.UserService
	DomainService     *service.DomainService

	// MetricsHandler serves GET /metrics when set.
	MetricsHandler http.Handler
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	issuer, buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		issuer:       issuer,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// UseCORS appends a CORS middleware to the global chain.
func (r *Router) UseCORS(cfg httpx.CORSConfig) {
	r.middlewares = append(r.middlewares, httpx.CORSMiddleware(cfg))
}

func (r *Router) ApplyRoutes() {
	r.registerDeviceFlow()
	r.registerOAuth2()
	r.registerAuth()
	r.registerDomains()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerDeviceFlow() {
	// POST /device/authorize - moderate rate limit by IP (starts a flow)
	authorizeHandler := &DeviceAuthorizeHandler{DeviceFlowService: r.DeviceFlowService}
	r.Mux.Handle("POST /v1/device/authorize",
		httpx.Chain(authorizeHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// GET /device/verify - lenient rate limit (read-only user code lookup)
	verifyHandler := &DeviceVerifyHandler{DeviceFlowService: r.DeviceFlowService}
	r.Mux.Handle("GET /v1/device/verify",
		httpx.Chain(verifyHandler,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// POST /device/approve, /device/deny - moderate rate limit by IP
	// (interactive decision endpoints, driven by the approval page)
	decisionHandler := &DeviceDecisionHandler{DeviceFlowService: r.DeviceFlowService}
	r.Mux.Handle("POST /v1/device/approve",
		httpx.Chain(http.HandlerFunc(decisionHandler.HandleApprove),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/device/deny",
		httpx.Chain(http.HandlerFunc(decisionHandler.HandleDeny),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerOAuth2() {
	// POST /token - lenient rate limit by IP. Device clients poll this
	// endpoint at the suggested interval, so the limit has to leave headroom
	// above slow_down enforcement.
	tokenHandler := &TokenHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /v1/oauth2/token",
		httpx.Chain(tokenHandler,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// POST /revoke - moderate rate limit
	revokeHandler := &RevokeHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /v1/oauth2/revoke",
		httpx.Chain(revokeHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAuth() {
	// POST /auth/login - strict rate limit by IP (authentication attempts)
	loginHandler := &LoginHandler{UserService: r.UserService}
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerDomains() {
	h := &DomainsHandler{DomainService: r.DomainService}

	// GET /domains - lenient rate limit by user
	securedList := httpx.Chain(http.HandlerFunc(h.HandleList),
		httpx.AuthnMiddleware(r.verifier), // verify JWT (iss/exp)
		httpx.RateLimitByUser(httpx.LenientLimit),
	)

	// POST /domains/authorize - moderate rate limit by user (mutates the
	// caller's stored token record)
	securedAuthorize := httpx.Chain(http.HandlerFunc(h.HandleAuthorize),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	r.Mux.Handle("GET /v1/domains", securedList)
	r.Mux.Handle("POST /v1/domains/authorize", securedAuthorize)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may
	// poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	if r.MetricsHandler != nil {
		r.Mux.Handle("GET /metrics", r.MetricsHandler)
	}
}
