package web

import (
	"net/http"

	"github.com/JonMunkholm/mimereg/internal/core"
	"github.com/JonMunkholm/mimereg/internal/logging"
)

type addFileExtensionRequest struct {
	MimeTypeID int    `json:"mimeTypeId"`
	Extension  string `json:"extension"`
}

type updateFileExtensionRequest struct {
	Extension string `json:"extension"`
}

// extensionKey reads the (mimeTypeId, id) identity from the path.
func extensionKey(r *http.Request) (core.FileExtensionKey, error) {
	owner, err := pathInt(r, "mimeTypeId")
	if err != nil {
		return core.FileExtensionKey{}, err
	}
	id, err := pathInt(r, "id")
	if err != nil {
		return core.FileExtensionKey{}, err
	}
	return core.FileExtensionKey{ID: id, MimeTypeID: owner}, nil
}

// handleListFileExtensions returns a filtered page of file extensions.
func (s *Server) handleListFileExtensions(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePaging(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	owner, err := parseIntParam(r, "mimeTypeId", 0, 1)
	if err != nil {
		respondError(w, r, err)
		return
	}
	opts := core.ExtensionListOptions{
		MimeTypeID: owner,
		Search:     r.URL.Query().Get("search"),
		Limit:      limit,
		Offset:     offset,
	}

	items, err := s.registry.ListFileExtensions(r.Context(), opts)
	if err != nil {
		respondError(w, r, err)
		return
	}
	total, err := s.registry.CountFileExtensions(r.Context(), opts)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if items == nil {
		items = []core.FileExtension{}
	}
	writeJSON(w, r, http.StatusOK, listResponse[core.FileExtension]{Items: items, Total: total})
}

func (s *Server) handleGetFileExtension(w http.ResponseWriter, r *http.Request) {
	key, err := extensionKey(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	f, err := s.registry.GetFileExtension(r.Context(), key)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, f)
}

func (s *Server) handleAddFileExtension(w http.ResponseWriter, r *http.Request) {
	var req addFileExtensionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	f, err := s.registry.AddFileExtension(r.Context(), actorOf(r), core.FileExtension{
		MimeTypeID: req.MimeTypeID,
		Extension:  req.Extension,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("file extension added",
		"id", f.ID, "mime_type_id", f.MimeTypeID, "extension", f.Extension)
	writeJSON(w, r, http.StatusCreated, f)
}

// handleUpdateFileExtension changes the extension value; the owner is
// part of the identity and cannot move.
func (s *Server) handleUpdateFileExtension(w http.ResponseWriter, r *http.Request) {
	key, err := extensionKey(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req updateFileExtensionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	f, err := s.registry.UpdateFileExtension(r.Context(), actorOf(r), core.FileExtension{
		ID:         key.ID,
		MimeTypeID: key.MimeTypeID,
		Extension:  req.Extension,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("file extension updated",
		"id", f.ID, "mime_type_id", f.MimeTypeID, "extension", f.Extension)
	writeJSON(w, r, http.StatusOK, f)
}

func (s *Server) handleDeleteFileExtension(w http.ResponseWriter, r *http.Request) {
	key, err := extensionKey(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.registry.DeleteFileExtension(r.Context(), key); err != nil {
		respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("file extension deleted", "id", key.ID, "mime_type_id", key.MimeTypeID)
	w.WriteHeader(http.StatusNoContent)
}
