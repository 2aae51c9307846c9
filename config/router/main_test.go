package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/carbiooai/carbioo-api/internal/log"
	"github.com/carbiooai/carbioo-api/pkg/ratelimit"
)

func mountTestController(rs *RouterService) {
	ctrl := NewRESTController("TestController", "/", func(rs *RouterService, c *RESTController) {
		rs.AddGetHandler(c, nil, "ip", func(ctx *RequestContext) *ServiceResult {
			return OKResult(ctx.ClientIP(), "ok")
		})

		rs.AddPostHandler(c, nil, "echo", func(ctx *RequestContext) *ServiceResult {
			var payload map[string]any
			if err := ctx.ShouldBindJSON(&payload); err != nil {
				return BadRequestResult("bad", nil)
			}
			return OKResult(payload, "ok")
		})
	})

	rs.MountController(ctrl)
}

func newTestRouterService(t *testing.T, configure ...func(*RouterConfig)) *RouterService {
	t.Helper()

	cfg := &RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
	}
	for _, apply := range configure {
		apply(cfg)
	}

	return CreateRouterService(log.NewDiscardLogger(), nil, cfg)
}

func TestTrustedProxies_DisabledByDefault(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	req.Header.Set("X-Forwarded-For", "1.1.1.1")

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Code    int    `json:"code"`
		Data    string `json:"data"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if resp.Data != "10.0.0.2" {
		t.Fatalf("expected ClientIP to use RemoteAddr when trusted proxies disabled; got %q", resp.Data)
	}
}

func TestTrustedProxies_StarTrustsForwardedFor(t *testing.T) {
	rs := newTestRouterService(t, func(cfg *RouterConfig) {
		cfg.TrustedProxies = []string{" ", "*"}
	})
	mountTestController(rs)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	req.Header.Set("X-Forwarded-For", "1.1.1.1")

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Code    int    `json:"code"`
		Data    string `json:"data"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if resp.Data != "1.1.1.1" {
		t.Fatalf("expected ClientIP to use X-Forwarded-For when trusted proxies enabled; got %q", resp.Data)
	}
}

func TestMaxBodySize_Returns413(t *testing.T) {
	rs := newTestRouterService(t, func(cfg *RouterConfig) {
		cfg.MaxBodyBytes = 10
	})
	mountTestController(rs)

	body := bytes.Repeat([]byte{'a'}, 50)
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", w.Code, w.Body.String())
	}
}

func TestJSONResult_WritesBareBody(t *testing.T) {
	rs := newTestRouterService(t)
	rs.MountController(NewRESTController("BareController", "/", func(rs *RouterService, c *RESTController) {
		rs.AddGetHandler(c, nil, "bare", func(ctx *RequestContext) *ServiceResult {
			return JSONResult(http.StatusCreated, map[string]any{"message": "saved"})
		})
	}))

	req := httptest.NewRequest(http.MethodGet, "/bare", nil)
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) != 1 || resp["message"] != "saved" {
		t.Fatalf("expected bare body without envelope; got %v", resp)
	}
}

func TestRedirectResult_SetsLocation(t *testing.T) {
	rs := newTestRouterService(t)
	rs.MountController(NewRESTController("RedirectController", "/", func(rs *RouterService, c *RESTController) {
		rs.AddGetHandler(c, nil, "go", func(ctx *RequestContext) *ServiceResult {
			return RedirectResult("https://example.com/?verification=success")
		})
	}))

	req := httptest.NewRequest(http.MethodGet, "/go", nil)
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if got := w.Header().Get("Location"); got != "https://example.com/?verification=success" {
		t.Fatalf("unexpected Location %q", got)
	}
}

func TestMetricsRegisterer_AvailableWhenDisabled(t *testing.T) {
	rs := newTestRouterService(t, func(cfg *RouterConfig) {
		cfg.DisableMetrics = true
	})
	if rs.MetricsRegisterer() == nil {
		t.Fatal("expected a registerer even with metrics disabled")
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected /metrics to be unmounted, got %d", w.Code)
	}
}

func TestCORS_AllowsConfiguredOriginOnly(t *testing.T) {
	rs := newTestRouterService(t, func(cfg *RouterConfig) {
		cfg.AllowedOrigins = []string{"https://carbiooai.com/", " https://www.carbiooai.com"}
	})
	mountTestController(rs)

	req := httptest.NewRequest(http.MethodOptions, "/echo", nil)
	req.Header.Set("Origin", "https://carbiooai.com")
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected preflight 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://carbiooai.com" {
		t.Fatalf("unexpected allow origin %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no CORS headers for unknown origin, got %q", got)
	}
	if got := w.Header().Get("Vary"); got != "Origin" {
		t.Fatalf("expected Vary: Origin, got %q", got)
	}
}

func TestHSTS_OnlyOverHTTPSWhenEnabled(t *testing.T) {
	rs := newTestRouterService(t, func(cfg *RouterConfig) {
		cfg.HSTS = HSTSConfig{Enabled: true, MaxAge: time.Hour, IncludeSubdomains: true}
	})
	mountTestController(rs)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)
	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("expected no HSTS over plain HTTP, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("X-Forwarded-Proto", "HTTPS")
	w = httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)
	if got := w.Header().Get("Strict-Transport-Security"); got != "max-age=3600; includeSubDomains" {
		t.Fatalf("unexpected HSTS header %q", got)
	}
}

func TestCorrelationID_KeepsSaneCallerValue(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set(correlationHeader, "req-42")
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)
	if got := w.Header().Get(correlationHeader); got != "req-42" {
		t.Fatalf("expected caller id to be echoed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set(correlationHeader, strings.Repeat("x", maxCorrelationIDLength+1))
	w = httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)
	if got := w.Header().Get(correlationHeader); got == "" || len(got) > maxCorrelationIDLength {
		t.Fatalf("expected a freshly minted id, got %q", got)
	}
}

func TestRateLimit_HandlerOverrideBeatsController(t *testing.T) {
	rs := newTestRouterService(t)
	handlerLimiter := ratelimit.NewFixedWindowRateLimiter(1, time.Hour)
	controllerLimiter := ratelimit.NewFixedWindowRateLimiter(2, time.Hour)

	rs.MountController(NewRESTController("LimitedController", "/limited", func(rs *RouterService, c *RESTController) {
		c.RateLimitWith(rs, controllerLimiter)
		rs.AddGetHandler(c, handlerLimiter, "strict", func(ctx *RequestContext) *ServiceResult {
			return OKResult(nil, "ok")
		})
		rs.AddGetHandler(c, nil, "loose", func(ctx *RequestContext) *ServiceResult {
			return OKResult(nil, "ok")
		})
	}))

	hit := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		rs.GetEngine().ServeHTTP(w, req)
		return w
	}

	if w := hit("/limited/strict"); w.Code != http.StatusOK {
		t.Fatalf("expected first strict hit to pass, got %d", w.Code)
	}
	w := hit("/limited/strict")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected handler budget of 1, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "3600" || w.Header().Get("X-RateLimit-Limit") != "1" {
		t.Fatalf("unexpected rate limit headers %v", w.Header())
	}

	for i := 0; i < 2; i++ {
		if w := hit("/limited/loose"); w.Code != http.StatusOK {
			t.Fatalf("expected controller budget of 2, hit %d got %d", i+1, w.Code)
		}
	}
	if w := hit("/limited/loose"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected controller budget to be spent, got %d", w.Code)
	}
}

func TestUnknownRoute_UsesEnvelope(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs)

	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["message"] != "Route not found" {
		t.Fatalf("unexpected body %v", resp)
	}
}

func TestDecodeJSON_SkipsBindingValidation(t *testing.T) {
	type payload struct {
		Email string `json:"email" binding:"required,email"`
	}

	rs := newTestRouterService(t)
	rs.MountController(NewRESTController("DecodeController", "/", func(rs *RouterService, c *RESTController) {
		rs.AddPostHandler(c, nil, "decode", func(ctx *RequestContext) *ServiceResult {
			var p payload
			if err := DecodeJSON(ctx, &p); err != nil {
				return BadRequestResult("bad", nil)
			}
			return JSONResult(http.StatusOK, p)
		})
	}))

	req := httptest.NewRequest(http.MethodPost, "/decode", strings.NewReader(`{"email":"  Jo@X.com "}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected raw payload to decode, got %d: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/decode", nil)
	w = httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected empty body to be rejected, got %d", w.Code)
	}
}
