package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
)

// Headers carrying the caller identity. The chat gateway sets them after it
// has authenticated the user; the admin listener must not be exposed publicly.
const (
	HeaderUser       = "X-Admin-User"
	HeaderGuildAdmin = "X-Guild-Admin"
	HeaderGuildOwner = "X-Guild-Owner"
)

type apiError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type envelope struct {
	Error  *apiError `json:"error,omitempty"`
	Data   any       `json:"data,omitempty"`
	Report *Report   `json:"report,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, kind, message string, report *Report) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: &apiError{Kind: kind, Message: message}, Report: report})
}

func writeOK(w http.ResponseWriter, data any, report *Report) {
	w.Header().Set("content-type", "application/json")
	_ = json.NewEncoder(w).Encode(envelope{Data: data, Report: report})
}

// CallerFromRequest reads the caller identity headers.
func CallerFromRequest(r *http.Request) Caller {
	admin, _ := strconv.ParseBool(r.Header.Get(HeaderGuildAdmin))
	owner, _ := strconv.ParseBool(r.Header.Get(HeaderGuildOwner))
	return Caller{UserID: r.Header.Get(HeaderUser), GuildAdmin: admin, GuildOwner: owner}
}

func (s *Service) fail(w http.ResponseWriter, err error, report Report) {
	if errors.Is(err, ErrDenied) {
		writeErr(w, http.StatusForbidden, "DENIED", err.Error(), &report)
		return
	}
	s.log.Error("admin request failed", "error", err)
	writeErr(w, http.StatusInternalServerError, "INTERNAL", "an error occurred while managing cache", nil)
}

/*
Routes registers the admin endpoints on mux:

	GET  /cache/stats
	GET  /cache/info
	POST /cache/clear?category=team_logos   (no category: everything)
	POST /cache/cleanup
*/
func (s *Service) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /cache/stats", s.handleStats)
	mux.HandleFunc("GET /cache/info", s.handleInfo)
	mux.HandleFunc("POST /cache/clear", s.handleClear)
	mux.HandleFunc("POST /cache/cleanup", s.handleCleanup)
}

func (s *Service) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.Stats(CallerFromRequest(r))
	if err != nil {
		s.fail(w, err, s.perms.DeniedReport())
		return
	}
	report := StatsReport(st, s.sweepStats())
	writeOK(w, st, &report)
}

func (s *Service) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.Info(CallerFromRequest(r))
	if err != nil {
		s.fail(w, err, s.perms.DeniedReport())
		return
	}
	report := InfoReport(info)
	writeOK(w, info, &report)
}

func (s *Service) handleClear(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	n, err := s.Clear(CallerFromRequest(r), category)
	if err != nil {
		s.fail(w, err, s.perms.DeniedReport())
		return
	}
	report := ClearReport(n, category)
	writeOK(w, map[string]any{"category": category, "removed": n}, &report)
}

func (s *Service) handleCleanup(w http.ResponseWriter, r *http.Request) {
	n, err := s.Cleanup(CallerFromRequest(r))
	if err != nil {
		s.fail(w, err, s.perms.DeniedReport())
		return
	}
	report := CleanupReport(n)
	writeOK(w, map[string]any{"removed": n}, &report)
}
