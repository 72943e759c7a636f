// Package devserver implements an in-memory fake of the model-manager
// backend for development and end-to-end testing.
package devserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"modelman/internal/gateway"
	"modelman/pkg/logger"
)

// Server holds the fixture data and serves the REST surface modelman
// consumes.
type Server struct {
	mu      sync.RWMutex
	folders []gateway.Folder
	models  map[string][]gateway.Model
	details map[string]*gateway.ModelDetail
}

// New creates a server pre-populated with a small fixture catalog.
func New() *Server {
	s := &Server{
		models:  make(map[string][]gateway.Model),
		details: make(map[string]*gateway.ModelDetail),
	}
	s.seed()
	return s
}

func (s *Server) seed() {
	now := time.Now().UTC()
	s.folders = []gateway.Folder{
		{ID: "checkpoints", Name: "Checkpoints", Path: "/models/checkpoints", ModelCount: 2},
		{ID: "loras", Name: "LoRAs", Path: "/models/loras", ModelCount: 1},
	}
	s.models["checkpoints"] = []gateway.Model{
		{ID: "ckpt-1", FolderID: "checkpoints", Name: "dreamshaper-v8", Type: "checkpoint", SizeBytes: 2 << 30, Tags: []string{"general"}, UpdatedAt: now},
		{ID: "ckpt-2", FolderID: "checkpoints", Name: "realistic-vision-v5", Type: "checkpoint", SizeBytes: 4 << 30, Tags: []string{"photo"}, UpdatedAt: now},
	}
	s.models["loras"] = []gateway.Model{
		{ID: "lora-1", FolderID: "loras", Name: "detail-tweaker", Type: "lora", SizeBytes: 140 << 20, UpdatedAt: now},
	}
	for _, models := range s.models {
		for _, m := range models {
			detail := &gateway.ModelDetail{Model: m, Version: "1.0", Source: "fixture"}
			s.details[m.ID] = detail
		}
	}
}

// Handler returns the HTTP handler serving the backend API.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix(gateway.BasePath).Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/folders", s.handleFolders).Methods(http.MethodGet)
	api.HandleFunc("/folders/{id}/models", s.handleModels).Methods(http.MethodGet)
	api.HandleFunc("/models/{id}", s.handleModel).Methods(http.MethodGet)
	api.HandleFunc("/models/{id}/metadata", s.handleUpdateMetadata).Methods(http.MethodPut)
	api.HandleFunc("/search", s.handleSearch).Methods(http.MethodGet)
	return r
}

// ListenAndServe serves the handler on addr until the process exits.
func (s *Server) ListenAndServe(addr string) error {
	log := logger.With("devserver")
	log.Info().Str("addr", addr).Msg("Dev server listening")
	return http.ListenAndServe(addr, s.Handler())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleFolders(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	writeJSON(w, http.StatusOK, map[string]any{"folders": s.folders})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.RLock()
	defer s.mu.RUnlock()
	models, ok := s.models[id]
	if !ok {
		writeError(w, http.StatusNotFound, "FOLDER_NOT_FOUND", "folder not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": models})
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.RLock()
	defer s.mu.RUnlock()
	detail, ok := s.details[id]
	if !ok {
		writeError(w, http.StatusNotFound, "MODEL_NOT_FOUND", "model not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	folder := r.URL.Query().Get("folder")

	s.mu.RLock()
	defer s.mu.RUnlock()
	var matches []gateway.Model
	for folderID, models := range s.models {
		if folder != "" && folder != folderID {
			continue
		}
		for _, m := range models {
			if query == "" || containsFold(m.Name, query) {
				matches = append(matches, m)
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": matches})
}

func (s *Server) handleUpdateMetadata(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var patch gateway.MetadataPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid metadata patch")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	detail, ok := s.details[id]
	if !ok {
		writeError(w, http.StatusNotFound, "MODEL_NOT_FOUND", "model not found: "+id)
		return
	}

	if patch.DisplayName != nil {
		detail.Metadata.DisplayName = *patch.DisplayName
		detail.Name = *patch.DisplayName
	}
	if patch.Description != nil {
		detail.Metadata.Description = *patch.Description
	}
	if patch.Tags != nil {
		detail.Metadata.Tags = *patch.Tags
		detail.Tags = *patch.Tags
	}
	if patch.Rating != nil {
		detail.Metadata.Rating = *patch.Rating
	}
	if patch.Notes != nil {
		detail.Metadata.Notes = *patch.Notes
	}
	detail.UpdatedAt = time.Now().UTC()

	// Reflect the patch into the folder listing as well.
	models := s.models[detail.FolderID]
	for i := range models {
		if models[i].ID == id {
			models[i] = detail.Model
		}
	}

	writeJSON(w, http.StatusOK, detail)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
