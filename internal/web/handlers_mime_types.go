package web

import (
	"net/http"

	"github.com/JonMunkholm/mimereg/internal/core"
	"github.com/JonMunkholm/mimereg/internal/logging"
)

// mimeTypeRequest is the editable part of a mime type.
type mimeTypeRequest struct {
	Type        string `json:"type"`
	SubType     string `json:"subType"`
	Description string `json:"description"`
}

func (req mimeTypeRequest) toMimeType(id int) core.MimeType {
	return core.MimeType{
		ID:          id,
		Type:        req.Type,
		SubType:     req.SubType,
		Description: req.Description,
	}
}

// handleListMimeTypes returns a filtered page of mime types.
func (s *Server) handleListMimeTypes(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePaging(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	opts := core.ListOptions{
		Search: r.URL.Query().Get("search"),
		Limit:  limit,
		Offset: offset,
	}

	items, err := s.registry.ListMimeTypes(r.Context(), opts)
	if err != nil {
		respondError(w, r, err)
		return
	}
	total, err := s.registry.CountMimeTypes(r.Context(), opts)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if items == nil {
		items = []core.MimeType{}
	}
	writeJSON(w, r, http.StatusOK, listResponse[core.MimeType]{Items: items, Total: total})
}

// handleGetMimeType returns one mime type with its extensions.
func (s *Server) handleGetMimeType(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	detail, err := s.registry.GetMimeType(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, detail)
}

// handleMimeTypeExtensions returns the extensions owned by one mime type.
func (s *Server) handleMimeTypeExtensions(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	detail, err := s.registry.GetMimeType(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	exts := detail.Extensions
	if exts == nil {
		exts = []core.FileExtension{}
	}
	writeJSON(w, r, http.StatusOK, exts)
}

func (s *Server) handleAddMimeType(w http.ResponseWriter, r *http.Request) {
	var req mimeTypeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	m, err := s.registry.AddMimeType(r.Context(), actorOf(r), req.toMimeType(0))
	if err != nil {
		respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("mime type added", "id", m.ID, "mime_type", m.String())
	writeJSON(w, r, http.StatusCreated, m)
}

func (s *Server) handleUpdateMimeType(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req mimeTypeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	m, err := s.registry.UpdateMimeType(r.Context(), actorOf(r), req.toMimeType(id))
	if err != nil {
		respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("mime type updated", "id", m.ID, "mime_type", m.String())
	writeJSON(w, r, http.StatusOK, m)
}

func (s *Server) handleDeleteMimeType(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.registry.DeleteMimeType(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("mime type deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}
