package web

import (
	"net/http"

	"github.com/JonMunkholm/mimereg/internal/core"
)

// handleLookup resolves ?extension= to the mime types that own it.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	s.lookup(w, r, r.URL.Query().Get("extension"))
}

// handleLookupBody resolves an extension sent as a bare JSON string, e.g. "jpg".
func (s *Server) handleLookupBody(w http.ResponseWriter, r *http.Request) {
	var ext string
	if err := decodeJSON(w, r, &ext); err != nil {
		respondError(w, r, err)
		return
	}
	s.lookup(w, r, ext)
}

// lookup writes the matching types as "type/subType" strings.
// An unknown extension yields an empty array.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request, ext string) {
	found, err := s.registry.FindByExtension(r.Context(), ext)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, mimeTypeNames(found))
}

func mimeTypeNames(types []core.MimeType) []string {
	names := make([]string, 0, len(types))
	for _, m := range types {
		names = append(names, m.String())
	}
	return names
}
