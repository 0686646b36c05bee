// Package httpapi exposes the allocation service to the upstream billing
// workflow over HTTP. The wire format is plain JSON over the domain types;
// no bit-exactness contract, only field-level fidelity.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mathiasdan123/billalloc/internal/model"
	"github.com/mathiasdan123/billalloc/internal/normalize"
	"github.com/mathiasdan123/billalloc/internal/rates"
	"github.com/mathiasdan123/billalloc/internal/recommend"
)

// Server wires the recommendation service and rate repository into echo.
type Server struct {
	echo *echo.Echo
	svc  *recommend.Service
	repo rates.Repository
	log  zerolog.Logger
}

// New builds the server and registers routes.
func New(svc *recommend.Service, repo rates.Repository, log zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, svc: svc, repo: repo, log: log}

	e.GET("/healthz", s.health)
	e.POST("/v1/recommendations", s.createRecommendation)
	e.GET("/v1/payers/:payer/rates", s.listRates)
	e.PUT("/v1/payers/:payer/rates/:code", s.putRate)

	e.Use(s.requestLogger)
	return s
}

// Start blocks serving on addr until Shutdown.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		s.log.Info().
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Int("status", c.Response().Status).
			Dur("duration", time.Since(start)).
			Msg("request")
		return err
	}
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) createRecommendation(c echo.Context) error {
	var in recommend.Input
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "malformed request body"})
	}
	if in.Session.DurationMinutes <= 0 {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "duration_minutes must be positive"})
	}
	if in.Session.Payer == "" {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "payer is required"})
	}

	rec, err := s.svc.Recommend(c.Request().Context(), in)
	if err != nil {
		if errors.Is(err, recommend.ErrEmptyCatalog) {
			// Surfaced so the workflow can block claim submission.
			return c.JSON(http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
		}
		s.log.Error().Err(err).Msg("recommendation failed")
		return c.JSON(http.StatusInternalServerError, errorBody{Error: "allocation failed"})
	}
	return c.JSON(http.StatusOK, rec)
}

type ratesResponse struct {
	Summary model.RateSummary  `json:"summary"`
	Rates   []model.RankedRate `json:"rates"`
}

func (s *Server) listRates(c echo.Context) error {
	payer := normalize.Payer(c.Param("payer"))
	ranked, err := s.repo.RankedRatesFor(c.Request().Context(), payer)
	if err != nil {
		s.log.Error().Err(err).Str("payer", payer).Msg("ranked rates failed")
		return c.JSON(http.StatusServiceUnavailable, errorBody{Error: "rate repository unavailable"})
	}
	if ranked == nil {
		ranked = []model.RankedRate{}
	}
	return c.JSON(http.StatusOK, ratesResponse{
		Summary: rates.Summarize(payer, ranked),
		Rates:   ranked,
	})
}

type putRateRequest struct {
	InNetworkCents    *int64 `json:"in_network_cents"`
	OutNetworkCents   *int64 `json:"out_network_cents"`
	CoinsuranceBPS    *int32 `json:"coinsurance_bps"`
	CopayCents        *int64 `json:"copay_cents"`
	DeductibleApplies bool   `json:"deductible_applies"`
}

func (s *Server) putRate(c echo.Context) error {
	var body putRateRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "malformed request body"})
	}

	code := normalize.Code(c.Param("code"))
	if code == "" {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid code"})
	}

	rate := model.PayerRate{
		Payer:             normalize.Payer(c.Param("payer")),
		PayerDisplay:      c.Param("payer"),
		Code:              code,
		InNetworkCents:    body.InNetworkCents,
		OutNetworkCents:   body.OutNetworkCents,
		CoinsuranceBPS:    body.CoinsuranceBPS,
		CopayCents:        body.CopayCents,
		DeductibleApplies: body.DeductibleApplies,
	}
	if err := s.repo.UpsertRate(c.Request().Context(), rate); err != nil {
		s.log.Error().Err(err).Str("payer", rate.Payer).Str("code", code).Msg("upsert rate failed")
		return c.JSON(http.StatusServiceUnavailable, errorBody{Error: "rate repository unavailable"})
	}
	return c.JSON(http.StatusOK, rate)
}
