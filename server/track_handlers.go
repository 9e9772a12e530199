package server

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"SpectraFM/library"
	"SpectraFM/logger"
	"SpectraFM/model"

	"github.com/gorilla/mux"
)

// MaxUploadSize bounds one multipart upload.
const MaxUploadSize = 200 << 20

// ListTracksHandler returns the library, filtered by ?q= when present.
func (s *Server) ListTracksHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.lib.Filter(r.URL.Query().Get("q")))
}

// AddTrackHandler accepts either a multipart upload (field "file") or a JSON track, such
// as a search result, to add by reference.
func (s *Server) AddTrackHandler(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		s.uploadTrack(w, r)
		return
	}

	var track model.Track
	if err := decodeJSON(r, &track); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if track.Source.URL == "" && track.Source.VideoID == "" {
		writeError(w, http.StatusBadRequest, "Track source is required")
		return
	}
	if track.Source.Kind == "" {
		track.Source.Kind = model.SourceRemote
	}

	added, err := s.lib.AddRemote(r.Context(), track)
	if err != nil {
		logger.Error("Failed to add track", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to add track")
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) uploadTrack(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse upload form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing audio file")
		return
	}
	defer file.Close()

	title := r.FormValue("title")
	if title == "" {
		title = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}
	duration, _ := strconv.ParseFloat(r.FormValue("duration"), 64)
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	track, err := s.lib.Upload(r.Context(), library.Upload{
		Title:       title,
		Artist:      r.FormValue("artist"),
		Duration:    duration,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		logger.Error("Upload failed", logger.String("file", header.Filename), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Upload failed")
		return
	}
	writeJSON(w, http.StatusCreated, track)
}

func (s *Server) DeleteTrackHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.lib.Remove(r.Context(), id); err != nil {
		if errors.Is(err, library.ErrTrackNotFound) {
			writeError(w, http.StatusNotFound, "Track not found")
			return
		}
		logger.Error("Failed to delete track", logger.String("trackId", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete track")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
