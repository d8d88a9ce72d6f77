package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dbehnke/ir-nexus/pkg/database"
	"github.com/dbehnke/ir-nexus/pkg/encoder"
	"github.com/dbehnke/ir-nexus/pkg/logger"
	"github.com/dbehnke/ir-nexus/pkg/metrics"
	"github.com/dbehnke/ir-nexus/pkg/protocol"
	"github.com/dbehnke/ir-nexus/pkg/remote"
)

// maxBody caps request bodies; every request fits in a few hundred bytes
const maxBody = 4096

// Remote is the part of remote.Manager the API drives
type Remote interface {
	SendMessage(ctx context.Context, msg remote.Message) (remote.Request, error)
	Encode(cmd encoder.Command) ([]encoder.Symbol, error)
	ResetToggle(p protocol.Protocol) error
	Toggle(p protocol.Protocol) (bool, error)
}

// History is the read side of the transmission history
type History interface {
	GetRecentPaginated(page, perPage int) ([]database.Transmission, int64, error)
	GetByProtocol(name string, limit int) ([]database.Transmission, error)
}

// API handles REST API endpoints
type API struct {
	logger    *logger.Logger
	remote    Remote
	history   History
	collector *metrics.Collector
	started   time.Time

	onToggleReset func(protocol.Protocol)
}

// NewAPI creates a new API instance. history and collector may be nil.
func NewAPI(log *logger.Logger, rc Remote, history History, collector *metrics.Collector) *API {
	if log == nil {
		log = logger.Discard()
	}
	return &API{
		logger:    log,
		remote:    rc,
		history:   history,
		collector: collector,
		started:   time.Now(),
	}
}

// protocolView is the JSON form of a registry entry joined with its timing
type protocolView struct {
	protocol.Info
	DutyCycle   uint8 `json:"duty_cycle"`
	FramePeriod int64 `json:"frame_period_us"`
	MinFrames   int   `json:"min_frames"`
	MinSymbols  int   `json:"min_symbols"`
}

func viewOf(p protocol.Protocol) (protocolView, bool) {
	info, ok := protocol.Lookup(p)
	if !ok {
		return protocolView{}, false
	}
	tm, ok := protocol.TimingFor(p)
	if !ok {
		return protocolView{}, false
	}
	n, _ := encoder.MinSymbols(p)
	return protocolView{
		Info:        info,
		DutyCycle:   tm.DutyCycle,
		FramePeriod: int64(tm.FramePeriod),
		MinFrames:   tm.MinFrames,
		MinSymbols:  n,
	}, true
}

// HandleStatus handles the /api/status endpoint
func (a *API) HandleStatus(w http.ResponseWriter, r *http.Request) {
	info := GetVersionInfo()
	response := map[string]interface{}{
		"status":     "running",
		"service":    "ir-nexus",
		"version":    info.Version,
		"commit":     info.Commit,
		"build_time": info.BuildTime,
		"uptime":     int64(time.Since(a.started).Seconds()),
		"history":    a.history != nil,
	}
	if a.collector != nil {
		response["frames_sent"] = a.collector.GetTotalFrames()
		response["encode_errors"] = a.collector.GetEncodeErrors()
		response["transmit_errors"] = a.collector.GetTransmitErrors()
	}
	a.writeJSON(w, http.StatusOK, response)
}

// HandleProtocols handles the /api/protocols endpoint
func (a *API) HandleProtocols(w http.ResponseWriter, r *http.Request) {
	all := protocol.All()
	views := make([]protocolView, 0, len(all))
	for _, p := range all {
		if v, ok := viewOf(p); ok {
			views = append(views, v)
		}
	}
	a.writeJSON(w, http.StatusOK, views)
}

// HandleProtocol handles /api/protocols/{name}
func (a *API) HandleProtocol(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	p, ok := protocol.ParseName(name)
	if !ok {
		a.writeError(w, &protocol.UnknownNameError{Name: name})
		return
	}
	v, ok := viewOf(p)
	if !ok {
		a.writeError(w, protocol.ErrUnsupportedProtocol)
		return
	}
	resp := map[string]interface{}{"protocol": v}
	if toggle, err := a.remote.Toggle(p); err == nil {
		resp["toggle"] = toggle
	}
	a.writeJSON(w, http.StatusOK, resp)
}

// EncodeResponse is returned by /api/encode
type EncodeResponse struct {
	Protocol  protocol.Protocol `json:"protocol"`
	CarrierHz uint32            `json:"carrier_hz"`
	Count     int               `json:"count"`
	AirtimeUS int64             `json:"airtime_us"`
	Symbols   []encoder.Symbol  `json:"symbols"`
}

// HandleEncode handles POST /api/encode. Nothing is transmitted.
func (a *API) HandleEncode(w http.ResponseWriter, r *http.Request) {
	var cmd encoder.Command
	if !a.decode(w, r, &cmd) {
		return
	}
	symbols, err := a.remote.Encode(cmd)
	if err != nil {
		a.writeError(w, err)
		return
	}
	info, _ := protocol.Lookup(cmd.Protocol)
	a.writeJSON(w, http.StatusOK, EncodeResponse{
		Protocol:  cmd.Protocol,
		CarrierHz: info.DefaultCarrierHz,
		Count:     len(symbols),
		AirtimeUS: encoder.Duration(symbols).Microseconds(),
		Symbols:   symbols,
	})
}

// HandleTransmit handles POST /api/transmit. The response is written once
// every frame of the press has gone out.
func (a *API) HandleTransmit(w http.ResponseWriter, r *http.Request) {
	var msg remote.Message
	if !a.decode(w, r, &msg) {
		return
	}
	if a.collector != nil {
		a.collector.RequestReceived("http")
	}
	req, err := a.remote.SendMessage(r.Context(), msg)
	if err != nil {
		a.logger.Warn("Transmit request failed",
			logger.String("protocol", req.Protocol.String()),
			logger.Error(err))
		a.writeError(w, err)
		return
	}
	resp := map[string]interface{}{
		"status":   "sent",
		"protocol": req.Protocol,
	}
	if msg.ID != "" {
		resp["id"] = msg.ID
	}
	if toggle, err := a.remote.Toggle(req.Protocol); err == nil {
		resp["toggle"] = toggle
	}
	a.writeJSON(w, http.StatusOK, resp)
}

// HandleToggleReset handles POST /api/toggle/reset
func (a *API) HandleToggleReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Protocol protocol.Protocol `json:"protocol"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	if err := a.remote.ResetToggle(req.Protocol); err != nil {
		a.writeError(w, err)
		return
	}
	if a.onToggleReset != nil {
		a.onToggleReset(req.Protocol)
	}
	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"protocol": req.Protocol,
		"toggle":   false,
	})
}

// HandleHistory handles /api/history?page=&per_page=&protocol=
func (a *API) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		a.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "history disabled"})
		return
	}

	q := r.URL.Query()
	page := queryInt(q.Get("page"), 1, 1, 1<<20)
	perPage := queryInt(q.Get("per_page"), 50, 1, 500)

	if name := q.Get("protocol"); name != "" {
		p, ok := protocol.ParseName(name)
		if !ok {
			a.writeError(w, &protocol.UnknownNameError{Name: name})
			return
		}
		rows, err := a.history.GetByProtocol(p.String(), perPage)
		if err != nil {
			a.writeError(w, err)
			return
		}
		a.writeJSON(w, http.StatusOK, map[string]interface{}{
			"transmissions": rows,
			"total":         len(rows),
			"page":          1,
			"per_page":      perPage,
		})
		return
	}

	rows, total, err := a.history.GetRecentPaginated(page, perPage)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"transmissions": rows,
		"total":         total,
		"page":          page,
		"per_page":      perPage,
	})
}

func queryInt(s string, def, lo, hi int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return min(max(n, lo), hi)
}

// decode reads a JSON body into v, answering 400 itself on failure
func (a *API) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		a.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// statusFor maps core errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, protocol.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, protocol.ErrInvalidArgument),
		errors.Is(err, protocol.ErrUnsupportedProtocol),
		errors.Is(err, protocol.ErrBufferTooSmall):
		return http.StatusBadRequest
	case errors.Is(err, protocol.ErrNotInitialized):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	a.writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Warn("Failed to encode response", logger.Error(err))
	}
}
