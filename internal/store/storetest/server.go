// Package storetest provides an in-memory PostgREST-style store used by tests
// across the repository. It implements the small query surface the cookbook
// clients rely on: id/original_id equality filters, the id=gt.0 bulk filter,
// order and limit parameters, and representation echoes on writes.
package storetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Server wraps an httptest.Server over a single mutable table.
type Server struct {
	URL string

	apiKey string
	table  string

	httpServer *httptest.Server

	mu              sync.Mutex
	rows            []map[string]any
	nextID          int64
	insertCalls     int
	failInsertCalls map[int]struct{}
	rejectBulkWipe  bool
	forcedStatus    int
	requestCount    int
}

// New starts a fake store for the given table protected by apiKey.
func New(table, apiKey string) *Server {
	server := &Server{
		apiKey:          apiKey,
		table:           table,
		nextID:          1,
		failInsertCalls: map[int]struct{}{},
	}
	server.httpServer = httptest.NewServer(http.HandlerFunc(server.handle))
	server.URL = server.httpServer.URL
	return server
}

// Close shuts the underlying HTTP server down.
func (s *Server) Close() {
	s.httpServer.Close()
}

// Seed inserts rows directly, assigning ids in order.
func (s *Server) Seed(rows ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		copied := cloneRow(row)
		if _, ok := copied["id"]; !ok {
			copied["id"] = s.nextID
		}
		s.nextID++
		s.rows = append(s.rows, copied)
	}
}

// Count reports the number of stored rows.
func (s *Server) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// Rows returns a copy of all stored rows.
func (s *Server) Rows() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, cloneRow(row))
	}
	return out
}

// RequestCount reports how many requests reached the server.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestCount
}

// FailInsertCall makes the nth insert call (1-based) respond with status 500.
func (s *Server) FailInsertCall(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failInsertCalls[n] = struct{}{}
}

// RejectBulkWipe makes id=gt.0 deletes fail so callers exercise their
// per-record fallback.
func (s *Server) RejectBulkWipe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectBulkWipe = true
}

// ForceStatus makes every subsequent request answer with the given status.
// Pass 0 to restore normal behavior.
func (s *Server) ForceStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forcedStatus = code
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requestCount++

	if s.forcedStatus != 0 {
		http.Error(w, fmt.Sprintf(`{"message":"forced status %d"}`, s.forcedStatus), s.forcedStatus)
		return
	}
	if r.Header.Get("apikey") != s.apiKey || r.Header.Get("Authorization") != "Bearer "+s.apiKey {
		http.Error(w, `{"message":"invalid api key"}`, http.StatusUnauthorized)
		return
	}
	if r.URL.Path != "/rest/v1/"+s.table {
		http.Error(w, `{"message":"relation not found"}`, http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleList(w, r)
	case http.MethodPost:
		s.handleInsert(w, r)
	case http.MethodPatch:
		s.handleUpdate(w, r)
	case http.MethodDelete:
		s.handleDelete(w, r)
	default:
		http.Error(w, `{"message":"method not allowed"}`, http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	matched := s.filterRows(r)

	if order := r.URL.Query().Get("order"); order != "" {
		parts := strings.SplitN(order, ".", 2)
		column := parts[0]
		descending := len(parts) == 2 && parts[1] == "desc"
		sort.SliceStable(matched, func(i, j int) bool {
			less := lessValue(matched[i][column], matched[j][column])
			if descending {
				return !less
			}
			return less
		})
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n < len(matched) {
			matched = matched[:n]
		}
	}

	writeJSON(w, http.StatusOK, matched)
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	s.insertCalls++
	if _, fail := s.failInsertCalls[s.insertCalls]; fail {
		http.Error(w, `{"message":"injected insert failure"}`, http.StatusInternalServerError)
		return
	}

	var records []map[string]any
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&records); err != nil {
		// Single-object insert bodies are also accepted.
		http.Error(w, `{"message":"invalid body"}`, http.StatusBadRequest)
		return
	}

	inserted := make([]map[string]any, 0, len(records))
	for _, record := range records {
		copied := cloneRow(record)
		copied["id"] = s.nextID
		s.nextID++
		s.rows = append(s.rows, copied)
		inserted = append(inserted, cloneRow(copied))
	}
	writeJSON(w, http.StatusCreated, inserted)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, `{"message":"invalid body"}`, http.StatusBadRequest)
		return
	}

	updated := make([]map[string]any, 0, 1)
	for _, row := range s.rows {
		if !s.rowMatches(row, r) {
			continue
		}
		for key, value := range patch {
			if key == "id" {
				continue
			}
			row[key] = value
		}
		updated = append(updated, cloneRow(row))
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if s.rejectBulkWipe && r.URL.Query().Get("id") == "gt.0" {
		http.Error(w, `{"message":"bulk delete rejected"}`, http.StatusBadRequest)
		return
	}

	remaining := s.rows[:0]
	deleted := make([]map[string]any, 0)
	for _, row := range s.rows {
		if s.rowMatches(row, r) {
			deleted = append(deleted, cloneRow(row))
			continue
		}
		remaining = append(remaining, row)
	}
	s.rows = remaining
	writeJSON(w, http.StatusOK, deleted)
}

func (s *Server) filterRows(r *http.Request) []map[string]any {
	matched := make([]map[string]any, 0, len(s.rows))
	for _, row := range s.rows {
		if s.rowMatches(row, r) {
			matched = append(matched, cloneRow(row))
		}
	}
	return matched
}

func (s *Server) rowMatches(row map[string]any, r *http.Request) bool {
	for _, column := range []string{"id", "original_id"} {
		filter := r.URL.Query().Get(column)
		if filter == "" {
			continue
		}
		value := numericValue(row[column])
		switch {
		case strings.HasPrefix(filter, "eq."):
			want, err := strconv.ParseInt(strings.TrimPrefix(filter, "eq."), 10, 64)
			if err != nil || value != want {
				return false
			}
		case strings.HasPrefix(filter, "gt."):
			want, err := strconv.ParseInt(strings.TrimPrefix(filter, "gt."), 10, 64)
			if err != nil || value <= want {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func numericValue(v any) int64 {
	switch value := v.(type) {
	case int64:
		return value
	case int:
		return int64(value)
	case float64:
		return int64(value)
	case json.Number:
		parsed, _ := value.Int64()
		return parsed
	default:
		return 0
	}
}

func lessValue(a, b any) bool {
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return as < bs
	}
	return numericValue(a) < numericValue(b)
}

func cloneRow(row map[string]any) map[string]any {
	copied := make(map[string]any, len(row))
	for key, value := range row {
		copied[key] = value
	}
	return copied
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
