package api

import (
	"encoding/json"
	"strings"
	"time"

	models "ManifoldPulse/internal/domain/models"
	domrepo "ManifoldPulse/internal/domain/repository"
	icache "ManifoldPulse/internal/service/cache"
	"ManifoldPulse/internal/service/metrics"
	"ManifoldPulse/internal/service/ratelimit"
	"ManifoldPulse/internal/services/manifold"
	"ManifoldPulse/internal/usecase"
	xhttp "ManifoldPulse/pkg/http"
	xlogger "ManifoldPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ManifoldHandler serves the manifold analysis API over Echo.
type ManifoldHandler struct {
	logger  *xlogger.Logger
	uc      *usecase.ManifoldUseCase
	watcher *usecase.AlertWatcher
	cache   icache.BytesCache
	rl      *ratelimit.Limiter

	analysisTTL   time.Duration
	multiscaleTTL time.Duration
	pulseTTL      time.Duration
}

func NewManifoldHandler(logger *xlogger.Logger, uc *usecase.ManifoldUseCase) *ManifoldHandler {
	metrics.Register()
	return &ManifoldHandler{
		logger:        logger,
		uc:            uc,
		rl:            ratelimit.New(),
		analysisTTL:   30 * time.Second,
		multiscaleTTL: 60 * time.Second,
		pulseTTL:      10 * time.Second,
	}
}

// SetCache injects a response cache.
func (h *ManifoldHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetWatcher injects the alert watcher for the alerts endpoint.
func (h *ManifoldHandler) SetWatcher(w *usecase.AlertWatcher) { h.watcher = w }

// SetCacheTTLs overrides the per-endpoint response cache TTLs.
func (h *ManifoldHandler) SetCacheTTLs(analysis, multiscale, pulse time.Duration) {
	if analysis > 0 {
		h.analysisTTL = analysis
	}
	if multiscale > 0 {
		h.multiscaleTTL = multiscale
	}
	if pulse > 0 {
		h.pulseTTL = pulse
	}
}

func (h *ManifoldHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/analyze/:symbol", h.Analyze)
	g.GET("/multiscale/:symbol", h.Multiscale)
	g.GET("/interpret/:symbol", h.Interpret)
	g.GET("/attractors/:symbol", h.Attractors)
	g.GET("/singularities/:symbol", h.Singularities)
	g.GET("/pulse/:symbol", h.Pulse)
	g.GET("/alerts/:symbol", h.Alerts)
}

func (h *ManifoldHandler) observe(endpoint string, start time.Time) {
	metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func (h *ManifoldHandler) fail(c echo.Context, endpoint string, err error) error {
	metrics.APIErrors.WithLabelValues(endpoint).Inc()
	h.logger.Error(endpoint+" usecase error", xlogger.Error(err))
	if manifold.IsInsufficientData(err) || manifold.IsInvalidConfiguration(err) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()).WithError(err))
	}
	return xhttp.AppErrorResponse(c, err)
}

// cached serves a response from cache when present; compute must return
// a JSON-serializable value.
func (h *ManifoldHandler) cached(c echo.Context, key string, ttl time.Duration, compute func() (interface{}, error)) error {
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(key); err != nil {
			h.logger.Warn("cache get error", xlogger.String("key", key), xlogger.Error(err))
		} else if ok {
			return c.JSONBlob(200, b)
		}
	}
	v, err := compute()
	if err != nil {
		return err
	}
	if h.cache != nil {
		// cache the full envelope so hits and misses serve identical bytes
		envelope := xhttp.APIResponse{Status: 200, Message: "OK", Data: v}
		if b, err := json.Marshal(envelope); err == nil {
			if err := h.cache.SetBytes(key, b, ttl); err != nil {
				h.logger.Warn("cache set error", xlogger.String("key", key), xlogger.Error(err))
			}
		}
	}
	return xhttp.SuccessResponse(c, v)
}

func (h *ManifoldHandler) allow(c echo.Context, endpoint string, capacity, refill float64) bool {
	return h.rl.Allow(c.RealIP()+":"+endpoint, capacity, refill)
}

func (h *ManifoldHandler) Analyze(c echo.Context) error {
	start := time.Now()
	endpoint := "analyze"
	defer h.observe(endpoint, start)

	symbol := c.Param("symbol")
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, endpoint, 5, 2) {
		return xhttp.TooManyRequestsResponse(c)
	}

	key := "analyze:" + symbol + ":" + req.Interval + ":" + req.Timescale + ":" + itoa(req.Limit) + ":" + btoa(req.Interpret)
	err := h.cached(c, key, h.analysisTTL, func() (interface{}, error) {
		res, err := h.uc.Analyze(c.Request().Context(), usecase.AnalyzeParams{
			Symbol:    symbol,
			Interval:  domrepo.NormalizeInterval(req.Interval),
			Limit:     req.Limit,
			Timescale: domrepo.Timescale(req.Timescale),
			Interpret: req.Interpret,
		})
		if err != nil {
			return nil, err
		}
		body := map[string]interface{}{
			"metrics": res.Metrics.ToPayload(symbol),
		}
		if res.Interpretation != nil {
			body["interpretation"] = res.Interpretation.ToPayload(symbol)
		}
		return body, nil
	})
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	return nil
}

func (h *ManifoldHandler) Multiscale(c echo.Context) error {
	start := time.Now()
	endpoint := "multiscale"
	defer h.observe(endpoint, start)

	symbol := c.Param("symbol")
	req := &models.MultiscaleRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, endpoint, 3, 1) {
		return xhttp.TooManyRequestsResponse(c)
	}

	var scales []domrepo.Timescale
	if req.Scales != "" {
		for _, s := range strings.Split(req.Scales, ",") {
			ts := domrepo.Timescale(strings.TrimSpace(s))
			if !domrepo.IsValidTimescale(ts) {
				return xhttp.BadRequestResponse(c, map[string]string{"error": "unknown timescale: " + string(ts)})
			}
			scales = append(scales, ts)
		}
	}

	key := "multiscale:" + symbol + ":" + req.Interval + ":" + itoa(req.Limit) + ":" + req.Scales
	err := h.cached(c, key, h.multiscaleTTL, func() (interface{}, error) {
		res, err := h.uc.Multiscale(c.Request().Context(), usecase.MultiscaleParams{
			Symbol:   symbol,
			Interval: domrepo.NormalizeInterval(req.Interval),
			Limit:    req.Limit,
			Scales:   scales,
		})
		if err != nil {
			return nil, err
		}
		body := map[string]interface{}{
			"symbol": symbol,
			"scales": map[string]*models.MetricsPayload{},
		}
		scalesOut := body["scales"].(map[string]*models.MetricsPayload)
		for scale, m := range res.Scales {
			scalesOut[string(scale)] = m.ToPayload("")
		}
		if len(res.Errors) > 0 {
			errsOut := map[string]string{}
			for scale, serr := range res.Errors {
				errsOut[string(scale)] = serr.Error()
			}
			body["errors"] = errsOut
		}
		return body, nil
	})
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	return nil
}

func (h *ManifoldHandler) Interpret(c echo.Context) error {
	start := time.Now()
	endpoint := "interpret"
	defer h.observe(endpoint, start)

	symbol := c.Param("symbol")
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, endpoint, 5, 2) {
		return xhttp.TooManyRequestsResponse(c)
	}

	key := "interpret:" + symbol + ":" + req.Interval + ":" + req.Timescale + ":" + itoa(req.Limit)
	err := h.cached(c, key, h.analysisTTL, func() (interface{}, error) {
		in, _, err := h.uc.Interpret(c.Request().Context(), usecase.AnalyzeParams{
			Symbol:    symbol,
			Interval:  domrepo.NormalizeInterval(req.Interval),
			Limit:     req.Limit,
			Timescale: domrepo.Timescale(req.Timescale),
		})
		if err != nil {
			return nil, err
		}
		return in.ToPayload(symbol), nil
	})
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	return nil
}

func (h *ManifoldHandler) Attractors(c echo.Context) error {
	start := time.Now()
	endpoint := "attractors"
	defer h.observe(endpoint, start)

	symbol := c.Param("symbol")
	req := &models.AttractorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, endpoint, 5, 2) {
		return xhttp.TooManyRequestsResponse(c)
	}

	key := "attractors:" + symbol + ":" + req.Interval + ":" + itoa(req.Limit) + ":" + itoa(req.Top)
	err := h.cached(c, key, h.analysisTTL, func() (interface{}, error) {
		return h.uc.Attractors(c.Request().Context(), usecase.AttractorsParams{
			Symbol:   symbol,
			Interval: domrepo.NormalizeInterval(req.Interval),
			Limit:    req.Limit,
			Top:      req.Top,
		})
	})
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	return nil
}

func (h *ManifoldHandler) Singularities(c echo.Context) error {
	start := time.Now()
	endpoint := "singularities"
	defer h.observe(endpoint, start)

	symbol := c.Param("symbol")
	req := &models.SingularitiesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, endpoint, 5, 2) {
		return xhttp.TooManyRequestsResponse(c)
	}

	res, err := h.uc.Singularities(c.Request().Context(), usecase.SingularitiesParams{
		Symbol:      symbol,
		Interval:    domrepo.NormalizeInterval(req.Interval),
		Limit:       req.Limit,
		Sensitivity: req.Sensitivity,
	})
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ManifoldHandler) Pulse(c echo.Context) error {
	start := time.Now()
	endpoint := "pulse"
	defer h.observe(endpoint, start)

	symbol := c.Param("symbol")
	req := &models.PulseRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, endpoint, 10, 5) {
		return xhttp.TooManyRequestsResponse(c)
	}

	key := "pulse:" + symbol + ":" + req.Interval + ":" + itoa(req.Limit)
	err := h.cached(c, key, h.pulseTTL, func() (interface{}, error) {
		return h.uc.Pulse(c.Request().Context(), usecase.PulseParams{
			Symbol:   symbol,
			Interval: domrepo.NormalizeInterval(req.Interval),
			Limit:    req.Limit,
		})
	})
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	return nil
}

func (h *ManifoldHandler) Alerts(c echo.Context) error {
	start := time.Now()
	endpoint := "alerts"
	defer h.observe(endpoint, start)

	if h.watcher == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("alerting disabled"))
	}
	symbol := c.Param("symbol")
	limit := 50
	if s := c.QueryParam("limit"); s != "" {
		if v, err := parseIntParam(s); err == nil && v > 0 {
			limit = v
		}
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol": symbol,
		"alerts": h.watcher.RecentAlerts(symbol, limit),
	})
}
