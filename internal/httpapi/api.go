// Package httpapi exposes the station over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dcrubro/ftc-driver-hub/internal/auth"
	"github.com/dcrubro/ftc-driver-hub/internal/capture"
	"github.com/dcrubro/ftc-driver-hub/internal/engine"
	"github.com/dcrubro/ftc-driver-hub/internal/recorder"
	"github.com/dcrubro/ftc-driver-hub/internal/station"
)

// Station is the controller surface the API drives.
type Station interface {
	Status() station.Status
	Telemetry() []station.TelemetryValue
	OpModes() []station.OpMode
	SendCommand(name, data string) error
	InitOpMode(name string) error
	StartOpMode(name string) error
	StopOpMode() error
	RequestOpModes() error
	RestartRobot() error
	SetMatchNumber(n int) error
	BeginHandshake() (bool, error)
	CompleteHandshake() (bool, error)
}

// History looks up recorded events.
type History interface {
	History(ctx context.Context, q recorder.Query) ([]recorder.Event, error)
}

// Options wires the optional parts of the API. Routes whose backing part
// is nil answer 503.
type Options struct {
	Station  Station
	Capture  *capture.Ring
	Feed     http.Handler
	History  History
	Gatherer prometheus.Gatherer
	// Token, when set, is required as a bearer token on every route except
	// /metrics.
	Token  string
	Logger *zap.Logger
}

type API struct {
	opts   Options
	logger *zap.Logger
}

func New(opts Options) *API {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{opts: opts, logger: logger.Named("http")}
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(a.logRequests)

	r.Group(func(r chi.Router) {
		if a.opts.Token != "" {
			r.Use(a.requireAuth)
		}
		r.Get("/status", a.handleStatus)
		r.Get("/telemetry", a.handleTelemetry)
		r.Get("/opmodes", a.handleOpModes)
		r.Post("/opmodes/refresh", a.handleRefreshOpModes)
		r.Get("/capture", a.handleCapture)
		r.Get("/history", a.handleHistory)
		r.Post("/commands", a.handleCommand)
		r.Post("/opmode/{action}", a.handleOpMode)
		r.Post("/handshake/{action}", a.handleHandshake)
		r.Post("/robot/restart", a.handleRestart)
		r.Post("/match", a.handleMatch)

		if a.opts.Feed != nil {
			r.Get("/ws", a.opts.Feed.ServeHTTP)
		}
	})

	gatherer := a.opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}

func (a *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}

func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.Equal(a.opts.Token, auth.BearerToken(r)) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "AUTH_REQUIRED")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type apiResponse struct {
	Data any `json:"data"`
}

type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, apiError{Error: message, Code: code})
}

func (a *API) requireStation(w http.ResponseWriter) bool {
	if a.opts.Station == nil {
		writeError(w, http.StatusServiceUnavailable, "station unavailable", "SERVICE_UNAVAILABLE")
		return false
	}
	return true
}

// writeSendResult maps a station send error to a response.
func (a *API) writeSendResult(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, apiResponse{Data: map[string]string{"status": "sent"}})
	case errors.Is(err, engine.ErrNotRunning), errors.Is(err, station.ErrNotAttached):
		writeError(w, http.StatusConflict, err.Error(), "NOT_CONNECTED")
	case errors.Is(err, station.ErrNoOpMode), errors.Is(err, station.ErrBadMatchNumber):
		writeError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	default:
		a.logger.Warn("send failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error(), "SEND_FAILED")
	}
}

func parseIntParam(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return defaultVal
	}
	return v
}
