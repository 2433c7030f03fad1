package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dcrubro/ftc-driver-hub/internal/recorder"
)

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !a.requireStation(w) {
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Data: a.opts.Station.Status()})
}

func (a *API) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	if !a.requireStation(w) {
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Data: a.opts.Station.Telemetry()})
}

func (a *API) handleOpModes(w http.ResponseWriter, r *http.Request) {
	if !a.requireStation(w) {
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Data: a.opts.Station.OpModes()})
}

func (a *API) handleRefreshOpModes(w http.ResponseWriter, r *http.Request) {
	if !a.requireStation(w) {
		return
	}
	a.writeSendResult(w, a.opts.Station.RequestOpModes())
}

type commandRequest struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

func (a *API) handleCommand(w http.ResponseWriter, r *http.Request) {
	if !a.requireStation(w) {
		return
	}
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", "BAD_REQUEST")
		return
	}
	a.writeSendResult(w, a.opts.Station.SendCommand(req.Name, req.Data))
}

type opModeRequest struct {
	Name string `json:"name"`
}

func (a *API) handleOpMode(w http.ResponseWriter, r *http.Request) {
	if !a.requireStation(w) {
		return
	}
	var req opModeRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
	}

	var err error
	switch chi.URLParam(r, "action") {
	case "init":
		err = a.opts.Station.InitOpMode(req.Name)
	case "start":
		err = a.opts.Station.StartOpMode(req.Name)
	case "stop":
		err = a.opts.Station.StopOpMode()
	default:
		writeError(w, http.StatusNotFound, "unknown op mode action", "NOT_FOUND")
		return
	}
	a.writeSendResult(w, err)
}

func (a *API) handleHandshake(w http.ResponseWriter, r *http.Request) {
	if !a.requireStation(w) {
		return
	}
	var (
		changed bool
		err     error
	)
	switch chi.URLParam(r, "action") {
	case "begin":
		changed, err = a.opts.Station.BeginHandshake()
	case "complete":
		changed, err = a.opts.Station.CompleteHandshake()
	default:
		writeError(w, http.StatusNotFound, "unknown handshake action", "NOT_FOUND")
		return
	}
	if err != nil {
		a.writeSendResult(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Data: map[string]any{
		"changed":   changed,
		"handshake": a.opts.Station.Status().Handshake,
	}})
}

func (a *API) handleRestart(w http.ResponseWriter, r *http.Request) {
	if !a.requireStation(w) {
		return
	}
	a.writeSendResult(w, a.opts.Station.RestartRobot())
}

type matchRequest struct {
	Number int `json:"number"`
}

func (a *API) handleMatch(w http.ResponseWriter, r *http.Request) {
	if !a.requireStation(w) {
		return
	}
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}
	a.writeSendResult(w, a.opts.Station.SetMatchNumber(req.Number))
}

type frameJSON struct {
	ID    uint64    `json:"id"`
	At    time.Time `json:"at"`
	Dir   string    `json:"dir"`
	Type  string    `json:"type,omitempty"`
	Seq   *int16    `json:"seq,omitempty"`
	Hex   string    `json:"hex"`
	Error string    `json:"error,omitempty"`
}

// handleCapture returns captured frames newer than ?since=<id>, or the
// last ?limit=<n> frames.
func (a *API) handleCapture(w http.ResponseWriter, r *http.Request) {
	if a.opts.Capture == nil {
		writeError(w, http.StatusServiceUnavailable, "capture disabled", "SERVICE_UNAVAILABLE")
		return
	}
	q := r.URL.Query()
	frames := a.opts.Capture.Last(parseIntParam(q.Get("limit"), 50))
	if since := q.Get("since"); since != "" {
		id, err := strconv.ParseUint(since, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since", "BAD_REQUEST")
			return
		}
		frames = a.opts.Capture.Since(id)
	}

	out := make([]frameJSON, 0, len(frames))
	for _, f := range frames {
		fj := frameJSON{ID: f.ID, At: f.At, Dir: f.Dir.String(), Hex: f.Hex()}
		env, _, err := f.Decode()
		if err != nil {
			fj.Error = err.Error()
		} else {
			fj.Type = env.Type.String()
			if env.HasSeq {
				seq := env.Seq
				fj.Seq = &seq
			}
		}
		out = append(out, fj)
	}
	writeJSON(w, http.StatusOK, apiResponse{Data: out})
}

func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	if a.opts.History == nil {
		writeError(w, http.StatusServiceUnavailable, "recorder disabled", "SERVICE_UNAVAILABLE")
		return
	}
	q := r.URL.Query()
	events, err := a.opts.History.History(r.Context(), recorder.Query{
		SessionID: q.Get("session"),
		Kind:      q.Get("kind"),
		Limit:     parseIntParam(q.Get("limit"), 100),
	})
	if err != nil {
		a.logger.Error("history query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "history query failed", "INTERNAL")
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Data: events})
}
