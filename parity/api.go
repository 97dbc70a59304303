package parity

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type runRequest struct {
	Left  *Target `json:"left,omitempty"`
	Right *Target `json:"right,omitempty"`
	Pair  string  `json:"pair,omitempty"`
}

// Handler exposes the checker over HTTP:
//
//	GET  /health
//	GET  /api/features
//	GET  /api/runs?limit=N
//	GET  /api/runs/{id}
//	POST /api/runs          {"left":{...},"right":{...}} | {"pair":"name"} | {}
//
// POST runs synchronously and answers with the finished run.
func (c *Checker) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Get("/api/features", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, c.Features())
	})

	r.Route("/api/runs", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			list, err := c.Runs(r.Context(), queryInt(r, "limit", 50))
			if err != nil {
				writeError(w, statusOf(err), err)
				return
			}
			writeJSON(w, 200, list)
		})

		r.Get("/{runID}", func(w http.ResponseWriter, r *http.Request) {
			run, err := c.GetRun(r.Context(), chi.URLParam(r, "runID"))
			if err != nil {
				writeError(w, statusOf(err), err)
				return
			}
			writeJSON(w, 200, run)
		})

		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var req runRequest
			if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
				writeError(w, 400, err)
				return
			}
			left, right, err := c.resolveTargets(r, req)
			if err != nil {
				writeError(w, 400, err)
				return
			}
			run, err := c.Run(r.Context(), left, right)
			if errors.Is(err, ErrInvalidTarget) {
				writeError(w, 400, err)
				return
			}
			if err != nil {
				writeError(w, 502, err)
				return
			}
			writeJSON(w, 201, run)
		})
	})

	return r
}

func (c *Checker) resolveTargets(r *http.Request, req runRequest) (left, right Target, err error) {
	switch {
	case req.Left != nil || req.Right != nil:
		if req.Left == nil || req.Right == nil {
			return left, right, errors.New("both left and right are required")
		}
		return *req.Left, *req.Right, nil
	case req.Pair != "":
		st := c.store()
		if st == nil {
			return left, right, ErrNoHistory
		}
		return LoadTargets(r.Context(), st, req.Pair)
	default:
		return c.Targets()
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrRunNotFound):
		return 404
	case errors.Is(err, ErrNoHistory):
		return 501
	}
	return 500
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
