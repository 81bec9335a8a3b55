package query

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/NVIDIA/fleet-telemetry/pkg/defaults"
	"github.com/NVIDIA/fleet-telemetry/pkg/errors"
	"github.com/NVIDIA/fleet-telemetry/pkg/handler"
	"github.com/NVIDIA/fleet-telemetry/pkg/header"
	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
	"github.com/NVIDIA/fleet-telemetry/pkg/persistency"
	"github.com/NVIDIA/fleet-telemetry/pkg/serializer"
	"github.com/NVIDIA/fleet-telemetry/pkg/server"
)

// Query parameters.
const (
	ParamSession = "session"
	ParamFamily  = "family"
	ParamType    = "type"
	ParamSince   = "since"
	ParamLimit   = "limit"
)

// Handlers returns the HTTP routes of the service keyed by mux pattern.
func (s *Service) Handlers() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"GET /v1/devices":                          s.handleDevices,
		"GET /v1/devices/{id}/statistics":          s.handleStatistics,
		"POST /v1/devices/{id}/statistics/reset":   s.handleReset,
		"GET /v1/devices/{id}/metrics":             s.handleMetrics,
		"GET /v1/devices/{id}/engines/statistics":  s.handleEngineStatistics,
		"GET /v1/devices/{id}/engines/utilization": s.handleEngineUtilization,
		"GET /v1/devices/{id}/fabric/statistics":   s.handleFabricStatistics,
		"GET /v1/devices/{id}/fabric/throughput":   s.handleFabricThroughput,
		"GET /v1/devices/{id}/fabric/links":        s.handleFabricLinks,
		"GET /v1/devices/{id}/history":             s.handleHistory,
	}
}

// ResetResult lists the windows opened by a reset.
type ResetResult struct {
	DeviceID string                       `json:"deviceId" yaml:"deviceId"`
	Session  uint64                       `json:"session" yaml:"session"`
	Windows  map[handler.Family]time.Time `json:"windows" yaml:"windows"`
}

func (s *Service) handleDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.Devices()
	rep := Report[DeviceInfo]{
		Header:  s.newReport(header.KindInventory, ""),
		Records: make([]DeviceInfo, 0, len(devices)),
	}
	for _, d := range devices {
		rep.Records = append(rep.Records, Describe(d))
	}
	serializer.RespondJSON(w, http.StatusOK, rep)
}

func (s *Service) handleStatistics(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	session, ok := sessionParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := queryContext(r)
	defer cancel()

	var win Window
	records, err := ReadAll(func(out []DeviceStats) (int, error) {
		n, got, err := s.MetricsStatistics(ctx, id, session, out)
		win = got
		return n, err
	})
	if err != nil {
		server.WriteErrorFromErr(w, r, err, nil)
		return
	}
	serializer.RespondJSON(w, http.StatusOK, Report[DeviceStats]{
		Header:   s.newReport(header.KindStatisticsReport, id),
		DeviceID: id,
		Session:  &session,
		Window:   &win,
		Records:  records,
	})
}

func (s *Service) handleReset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	session, ok := sessionParam(w, r)
	if !ok {
		return
	}

	families := handler.Families
	if v := r.URL.Query().Get(ParamFamily); v != "" {
		f, ok := handler.ParseFamily(v)
		if !ok {
			server.WriteError(w, r, http.StatusBadRequest, errors.ErrCodeInvalidRequest,
				fmt.Sprintf("unknown family %q", v), false,
				map[string]any{"supported": handler.Families})
			return
		}
		families = []handler.Family{f}
	}

	res := ResetResult{DeviceID: id, Session: session, Windows: make(map[handler.Family]time.Time, len(families))}
	for _, f := range families {
		begin, err := s.ResetWindow(r.Context(), id, session, f)
		if err != nil {
			server.WriteErrorFromErr(w, r, err, nil)
			return
		}
		res.Windows[f] = begin
	}
	serializer.RespondJSON(w, http.StatusOK, res)
}

func (s *Service) handleMetrics(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx, cancel := queryContext(r)
	defer cancel()

	records, err := ReadAll(func(out []DeviceMetrics) (int, error) {
		return s.LatestMetrics(ctx, id, out)
	})
	if err != nil {
		server.WriteErrorFromErr(w, r, err, nil)
		return
	}
	serializer.RespondJSON(w, http.StatusOK, Report[DeviceMetrics]{
		Header:   s.newReport(header.KindMetricsReport, id),
		DeviceID: id,
		Records:  records,
	})
}

func (s *Service) handleEngineStatistics(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	session, ok := sessionParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := queryContext(r)
	defer cancel()

	var win Window
	records, err := ReadAll(func(out []EngineStats) (int, error) {
		n, got, err := s.EngineStatistics(ctx, id, session, out)
		win = got
		return n, err
	})
	if err != nil {
		server.WriteErrorFromErr(w, r, err, nil)
		return
	}
	serializer.RespondJSON(w, http.StatusOK, Report[EngineStats]{
		Header:   s.newReport(header.KindEngineReport, id),
		DeviceID: id,
		Session:  &session,
		Window:   &win,
		Records:  records,
	})
}

func (s *Service) handleEngineUtilization(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx, cancel := queryContext(r)
	defer cancel()

	records, err := ReadAll(func(out []EngineUtilization) (int, error) {
		return s.EngineUtilizations(ctx, id, out)
	})
	if err != nil {
		server.WriteErrorFromErr(w, r, err, nil)
		return
	}
	serializer.RespondJSON(w, http.StatusOK, Report[EngineUtilization]{
		Header:   s.newReport(header.KindEngineReport, id),
		DeviceID: id,
		Records:  records,
	})
}

func (s *Service) handleFabricStatistics(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	session, ok := sessionParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := queryContext(r)
	defer cancel()

	var win Window
	records, err := ReadAll(func(out []FabricStats) (int, error) {
		n, got, err := s.FabricThroughputStatistics(ctx, id, session, out)
		win = got
		return n, err
	})
	if err != nil {
		server.WriteErrorFromErr(w, r, err, nil)
		return
	}
	serializer.RespondJSON(w, http.StatusOK, Report[FabricStats]{
		Header:   s.newReport(header.KindFabricReport, id),
		DeviceID: id,
		Session:  &session,
		Window:   &win,
		Records:  records,
	})
}

func (s *Service) handleFabricThroughput(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx, cancel := queryContext(r)
	defer cancel()

	records, err := ReadAll(func(out []FabricThroughput) (int, error) {
		return s.FabricThroughput(ctx, id, out)
	})
	if err != nil {
		server.WriteErrorFromErr(w, r, err, nil)
		return
	}
	serializer.RespondJSON(w, http.StatusOK, Report[FabricThroughput]{
		Header:   s.newReport(header.KindFabricReport, id),
		DeviceID: id,
		Records:  records,
	})
}

func (s *Service) handleFabricLinks(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx, cancel := queryContext(r)
	defer cancel()

	records, err := ReadAll(func(out []FabricLink) (int, error) {
		return s.FabricLinkInfo(ctx, id, out)
	})
	if err != nil {
		server.WriteErrorFromErr(w, r, err, nil)
		return
	}
	serializer.RespondJSON(w, http.StatusOK, Report[FabricLink]{
		Header:   s.newReport(header.KindFabricReport, id),
		DeviceID: id,
		Records:  records,
	})
}

func (s *Service) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	q := r.URL.Query()

	t, ok := measurement.ParseType(q.Get(ParamType))
	if !ok {
		server.WriteError(w, r, http.StatusBadRequest, errors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid %s parameter %q", ParamType, q.Get(ParamType)), false, nil)
		return
	}

	since, err := parseSince(q.Get(ParamSince), s.now())
	if err != nil {
		server.WriteError(w, r, http.StatusBadRequest, errors.ErrCodeInvalidRequest,
			err.Error(), false, map[string]any{ParamSince: q.Get(ParamSince)})
		return
	}

	limit := 0
	if v := q.Get(ParamLimit); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			server.WriteError(w, r, http.StatusBadRequest, errors.ErrCodeInvalidRequest,
				fmt.Sprintf("invalid %s parameter %q", ParamLimit, v), false, nil)
			return
		}
	}

	ctx, cancel := queryContext(r)
	defer cancel()

	records, err := s.History(ctx, id, t, since, limit)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, nil)
		return
	}

	h := s.newReport(header.KindHistory, id)
	h.Metadata["type"] = string(t)
	serializer.RespondJSON(w, http.StatusOK, Report[persistency.Record]{
		Header:   h,
		DeviceID: id,
		Records:  records,
	})
}

// sessionParam reads the session id; absent means session 0. On a
// malformed value it writes a 400 and returns false.
func sessionParam(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	v := r.URL.Query().Get(ParamSession)
	if v == "" {
		return 0, true
	}
	session, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		server.WriteError(w, r, http.StatusBadRequest, errors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid %s parameter %q", ParamSession, v), false, nil)
		return 0, false
	}
	return session, true
}

// parseSince accepts an RFC3339 time or a duration relative to now.
// Empty means everything.
func parseSince(v string, now time.Time) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if d, err := time.ParseDuration(v); err == nil {
		if d < 0 {
			d = -d
		}
		return now.Add(-d), nil
	}
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s parameter %q: want RFC3339 time or duration", ParamSince, v)
	}
	return ts, nil
}

func queryContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), defaults.QueryHandlerTimeout)
}
