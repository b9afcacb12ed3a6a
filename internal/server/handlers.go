package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/orm"
)

// reserved query parameters; every other parameter filters by column.
var reserved = map[string]bool{"limit": true, "offset": true, "columns": true}

// listResponse is the body of GET /api/{table}.
type listResponse struct {
	Data   []*orm.Model `json:"data"`
	Total  int64        `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) resource(w http.ResponseWriter, r *http.Request) (*orm.Model, bool) {
	table := chi.URLParam(r, "table")
	proto, ok := s.resources[table]
	if !ok {
		s.fail(w, r, http.StatusNotFound, fmt.Errorf("unknown resource %q", table))
		return nil, false
	}
	return proto, true
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	proto, ok := s.resource(w, r)
	if !ok {
		return
	}

	params := r.URL.Query()
	limit, err := intParam(params.Get("limit"))
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	offset, err := intParam(params.Get("offset"))
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	if s.cfg.MaxLimit > 0 && (limit <= 0 || limit > s.cfg.MaxLimit) {
		limit = s.cfg.MaxLimit
	}

	q := proto.Query()
	for key, values := range params {
		if reserved[key] {
			continue
		}
		for _, v := range values {
			q = q.Where(key, v)
		}
	}

	total, err := q.Count(r.Context())
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}

	var columns []string
	if c := params.Get("columns"); c != "" {
		columns = strings.Split(c, ",")
	}
	models, err := q.Limit(limit).Offset(offset).Get(r.Context(), columns...)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Data: models, Total: total, Limit: limit, Offset: max(0, offset)})
}

func (s *Server) show(w http.ResponseWriter, r *http.Request) {
	proto, ok := s.resource(w, r)
	if !ok {
		return
	}
	m, ok := s.find(w, r, proto)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	proto, ok := s.resource(w, r)
	if !ok {
		return
	}
	attrs, err := decodeAttributes(r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}

	m, err := proto.Make(attrs)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	if _, err := m.Save(r.Context()); err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	proto, ok := s.resource(w, r)
	if !ok {
		return
	}
	attrs, err := decodeAttributes(r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	m, ok := s.find(w, r, proto)
	if !ok {
		return
	}

	if err := m.Fill(attrs); err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	if err := m.Update(r.Context()); err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	proto, ok := s.resource(w, r)
	if !ok {
		return
	}
	m, ok := s.find(w, r, proto)
	if !ok {
		return
	}
	if err := m.Delete(r.Context()); err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// find loads the model named by the {id} parameter, answering 404 when absent.
func (s *Server) find(w http.ResponseWriter, r *http.Request, proto *orm.Model) (*orm.Model, bool) {
	id := chi.URLParam(r, "id")
	m, err := proto.Find(r.Context(), id)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return nil, false
	}
	if m == nil {
		s.fail(w, r, http.StatusNotFound, fmt.Errorf("%s %s not found", proto.Table(), id))
		return nil, false
	}
	return m, true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err, "request_id", RequestID(r.Context()))
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: RequestID(r.Context())})
}

// statusFor maps model errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		schemaErr      *core.SchemaError
		validationErr  *core.ValidationError
		logicErr       *core.LogicError
		persistenceErr *core.PersistenceError
	)
	switch {
	case errors.As(err, &schemaErr):
		return http.StatusBadRequest
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &logicErr), errors.As(err, &persistenceErr):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}

// decodeAttributes reads a JSON object, keeping integers as int64.
func decodeAttributes(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	for k, v := range raw {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if i, err := n.Int64(); err == nil {
			raw[k] = i
		} else if f, err := n.Float64(); err == nil {
			raw[k] = f
		}
	}
	return raw, nil
}
