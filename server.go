package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// saveRequest is the body of POST /circuits. CircuitData holds an exported
// circuit document as a JSON string.
type saveRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CircuitData string `json:"circuitData"`
	FileID      string `json:"file_id"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	FileID  string `json:"file_id,omitempty"`
}

// server exposes the simulator and the circuit library over HTTP.
type server struct {
	sim    Simulator
	store  *Store
	logger *log.Logger
}

// newRouter wires the HTTP routes. store may be nil, in which case the
// library routes are not mounted.
func newRouter(sim Simulator, store *Store, logger *log.Logger) http.Handler {
	s := &server{sim: sim, store: store, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Post("/simulate", s.handleSimulate)
	if store != nil {
		r.Route("/circuits", func(r chi.Router) {
			r.Get("/", s.handleList)
			r.Post("/", s.handleSave)
			r.Get("/{id}", s.handleDownload)
			r.Delete("/{id}", s.handleDelete)
		})
	}
	return r
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request", "method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "took", time.Since(start).Round(time.Millisecond))
	})
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "status", status, "err", err)
	}
}

func (s *server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, SimulateResponse{Status: StatusError, Message: err.Error()})
		return
	}

	resp, err := s.sim.Simulate(r.Context(), req)
	if err != nil {
		s.logger.Error("simulate", "err", err)
		s.writeJSON(w, http.StatusOK, SimulateResponse{Status: StatusError, Message: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, statusResponse{Status: StatusError, Message: "Invalid JSON."})
		return
	}

	c, err := ImportCircuit([]byte(req.CircuitData))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, statusResponse{Status: StatusError, Message: err.Error()})
		return
	}
	c.SetTitle(req.Title)
	c.SetDescription(req.Description)

	id, err := s.store.Save(r.Context(), req.FileID, c)
	switch {
	case errors.Is(err, ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, statusResponse{Status: StatusError, Message: "File not found."})
	case err != nil:
		s.logger.Error("save circuit", "err", err)
		s.writeJSON(w, http.StatusInternalServerError, statusResponse{Status: StatusError, Message: err.Error()})
	case req.FileID != "":
		s.writeJSON(w, http.StatusOK, statusResponse{Status: "success", Message: "File updated successfully.", FileID: id})
	default:
		s.writeJSON(w, http.StatusOK, statusResponse{Status: "success", Message: "File saved successfully.", FileID: id})
	}
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("list circuits", "err", err)
		s.writeJSON(w, http.StatusInternalServerError, statusResponse{Status: StatusError, Message: err.Error()})
		return
	}
	if list == nil {
		list = []SavedCircuit{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *server) handleDownload(w http.ResponseWriter, r *http.Request) {
	sc, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		s.writeJSON(w, http.StatusNotFound, statusResponse{Status: StatusError, Message: "File not found."})
		return
	}
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, statusResponse{Status: StatusError, Message: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sc.Title+".json"))
	w.Write(sc.Data)
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	err := s.store.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		s.writeJSON(w, http.StatusNotFound, statusResponse{Status: StatusError, Message: "File not found."})
		return
	}
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, statusResponse{Status: StatusError, Message: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
