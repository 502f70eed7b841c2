package server

import (
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/shelfsync/go-shelf-sync/bulk"
	"github.com/shelfsync/go-shelf-sync/internal/errors"
)

// maxImageUploadBytes bounds the in-memory part of a multipart upload.
const maxImageUploadBytes = 32 << 20

// UpdateDescriptionsHandler replaces the description of every product on the
// shelf with the submitted form value.
func (s *Server) UpdateDescriptionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shelfID, err := shelfIDFromPath(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid shelf id")
			return
		}

		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form data")
			return
		}
		description := r.FormValue("description")
		if description == "" {
			writeError(w, http.StatusBadRequest, "description is required")
			return
		}

		result, err := s.updater.UpdateDescriptions(r.Context(), requestToken(r), shelfID, description)
		if err != nil {
			writeBulkFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// UpdateImagesHandler replaces the image of every product on the shelf with
// the uploaded multipart file.
func (s *Server) UpdateImagesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shelfID, err := shelfIDFromPath(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid shelf id")
			return
		}

		if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "No image file provided")
			return
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			writeError(w, http.StatusBadRequest, "No image file provided")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			log.Error().Err(err).Msg("failed to read uploaded image")
			writeError(w, http.StatusBadRequest, "failed to read image file")
			return
		}

		img := bulk.Image{
			Data:        data,
			ContentType: header.Header.Get("Content-Type"),
			Filename:    header.Filename,
		}
		result, err := s.updater.UpdateImages(r.Context(), requestToken(r), shelfID, img)
		if err != nil {
			writeBulkFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// writeBulkFailure reports a batch that could not start at all. Per-product
// failures never land here; they are aggregated in the result.
func writeBulkFailure(w http.ResponseWriter, err error) {
	var upstreamErr *errors.UpstreamError
	if errors.As(err, &upstreamErr) {
		writeError(w, upstreamErr.Status, "Failed to get shelf products")
		return
	}
	writeError(w, http.StatusBadGateway, err.Error())
}
