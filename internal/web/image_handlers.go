package web

import (
	"errors"
	"net/http"

	"github.com/betna-immo/betna/internal/imagehost"
)

const maxImageUpload = 10 << 20

// apiUploadImage stores the multipart "image" field and returns its public URL.
func (s *Server) apiUploadImage(w http.ResponseWriter, r *http.Request) {
	if s.deps.Images == nil {
		writeError(w, r, imagehost.ErrNotConfigured)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageUpload)
	if err := r.ParseMultipartForm(maxImageUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apiError(w, "image too large (max 10MB)", http.StatusRequestEntityTooLarge)
			return
		}
		apiError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		apiError(w, "image field is required", http.StatusBadRequest)
		return
	}
	defer file.Close() //nolint:errcheck // read-only upload

	url, err := s.deps.Images.Upload(r.Context(), header.Filename, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]string{"url": url}, http.StatusCreated)
}
