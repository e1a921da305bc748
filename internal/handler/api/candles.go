package api

import (
	"time"

	domrepo "ManifoldPulse/internal/domain/repository"
	"ManifoldPulse/internal/service/metrics"
	"ManifoldPulse/internal/usecase"
	xhttp "ManifoldPulse/pkg/http"
	xutil "ManifoldPulse/pkg/util"

	"github.com/labstack/echo/v4"
)

// CandlesHandler serves raw candle history.
type CandlesHandler struct {
	uc *usecase.CandlesUseCase
}

func NewCandlesHandler(uc *usecase.CandlesUseCase) *CandlesHandler {
	metrics.Register()
	return &CandlesHandler{uc: uc}
}

func (h *CandlesHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/candles/:symbol", h.Candles)
}

func (h *CandlesHandler) Candles(c echo.Context) error {
	start := time.Now()
	endpoint := "candles"
	defer metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	symbol := c.Param("symbol")
	iv := domrepo.NormalizeInterval(c.QueryParam("interval"))
	now := time.Now().UTC()
	from := xhttp.ParseTimeDefault(c.QueryParam("from"), now.Add(-24*time.Hour))
	to := xhttp.ParseTimeDefault(c.QueryParam("to"), now)
	from, to = xutil.AlignFromTo(from, to, string(iv))
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 10000)

	res, err := h.uc.GetCandles(c.Request().Context(), usecase.GetCandlesParams{
		Symbol:   symbol,
		From:     from,
		To:       to,
		Interval: iv,
		Limit:    limit,
	})
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		return xhttp.BadRequestResponse(c, map[string]string{"error": err.Error()})
	}
	return xhttp.SuccessResponse(c, res)
}
