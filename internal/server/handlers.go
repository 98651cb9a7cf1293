package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/rag"
	"github.com/hyperjump/kotae/internal/storage"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type ingestRequest struct {
	DocumentID int64  `json:"document_id"`
	FilePath   string `json:"file_path"`
	FileType   string `json:"file_type"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	collectionID, ok := s.pathID(w, r, "collectionID")
	if !ok {
		return
	}
	var body ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req := models.IngestRequest{
		DocumentID:   body.DocumentID,
		CollectionID: collectionID,
		FilePath:     body.FilePath,
		FileType:     body.FileType,
	}
	jobID, err := s.rag.Ingest(req)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("ingest request accepted",
		zap.String("job_id", jobID), zap.Int64("collection_id", collectionID), zap.Int64("document_id", body.DocumentID))
	s.respondJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID, "status": "accepted"})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	collectionID, ok := s.pathID(w, r, "collectionID")
	if !ok {
		return
	}
	documentID, ok := s.pathID(w, r, "documentID")
	if !ok {
		return
	}
	if err := s.rag.RemoveFromIndex(r.Context(), collectionID, documentID); err != nil {
		s.logger.Error("removal failed", zap.Int64("collection_id", collectionID),
			zap.Int64("document_id", documentID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	collectionID, ok := s.pathID(w, r, "collectionID")
	if !ok {
		return
	}
	var req models.AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := s.rag.Answer(r.Context(), collectionID, req.Question)
	if errors.Is(err, rag.ErrGeneration) {
		// The chat client shows the answer text, so failures are worded as answers.
		result = &models.QueryResult{Answer: rag.MsgGenerationFailed, Sources: []models.Source{}}
	} else if err != nil {
		s.logger.Error("answer failed", zap.Int64("collection_id", collectionID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	collectionID, ok := s.pathID(w, r, "collectionID")
	if !ok {
		return
	}
	status, err := s.rag.Status(r.Context(), collectionID)
	if err != nil {
		s.logger.Error("status failed", zap.Int64("collection_id", collectionID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	collectionID, ok := s.pathID(w, r, "collectionID")
	if !ok {
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	limit, err := queryInt(r, "limit", defaultListLimit)
	if err != nil || limit <= 0 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	limit = min(limit, maxListLimit)
	docs, err := s.storage.ListDocuments(r.Context(), collectionID, offset, limit)
	if err != nil {
		s.logger.Error("list documents failed", zap.Int64("collection_id", collectionID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"documents": docs, "offset": offset, "limit": limit})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	collectionID, ok := s.pathID(w, r, "collectionID")
	if !ok {
		return
	}
	documentID, ok := s.pathID(w, r, "documentID")
	if !ok {
		return
	}
	doc, err := s.storage.GetDocument(r.Context(), collectionID, documentID)
	if errors.Is(err, storage.ErrDocumentNotFound) {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pathID parses a positive integer URL parameter, answering 400 when it is not one.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s %q", name, raw))
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
