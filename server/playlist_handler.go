package server

import (
	"errors"
	"net/http"

	"SpectraFM/library"
	"SpectraFM/logger"

	"github.com/gorilla/mux"
)

type createPlaylistRequest struct {
	Name string `json:"name"`
}

type addPlaylistTrackRequest struct {
	TrackID string `json:"trackId"`
}

func (s *Server) ListPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.playlists.List())
}

func (s *Server) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req createPlaylistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Playlist name is required")
		return
	}
	pl, err := s.playlists.Create(r.Context(), req.Name)
	if err != nil {
		logger.Error("Failed to create playlist", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to create playlist")
		return
	}
	writeJSON(w, http.StatusCreated, pl)
}

func (s *Server) GetPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	pl, ok := s.playlists.Get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "Playlist not found")
		return
	}
	writeJSON(w, http.StatusOK, pl)
}

func (s *Server) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.playlists.Delete(r.Context(), id); err != nil {
		if errors.Is(err, library.ErrPlaylistNotFound) {
			writeError(w, http.StatusNotFound, "Playlist not found")
			return
		}
		logger.Error("Failed to delete playlist", logger.String("playlistId", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete playlist")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddPlaylistTrackHandler copies a library track into a playlist. Re-adding a track is
// reported with added=false and status 200.
func (s *Server) AddPlaylistTrackHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req addPlaylistTrackRequest
	if err := decodeJSON(r, &req); err != nil || req.TrackID == "" {
		writeError(w, http.StatusBadRequest, "trackId is required")
		return
	}
	track, ok := s.lib.Get(req.TrackID)
	if !ok {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}

	added, err := s.playlists.AddTrack(r.Context(), id, track)
	if err != nil {
		if errors.Is(err, library.ErrPlaylistNotFound) {
			writeError(w, http.StatusNotFound, "Playlist not found")
			return
		}
		logger.Error("Failed to add track to playlist", logger.String("playlistId", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to add track")
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]bool{"added": added})
}

func (s *Server) RemovePlaylistTrackHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.playlists.RemoveTrack(r.Context(), vars["id"], vars["track_id"]); err != nil {
		if errors.Is(err, library.ErrTrackNotFound) {
			writeError(w, http.StatusNotFound, "Track not in playlist")
			return
		}
		logger.Error("Failed to remove track from playlist", logger.String("playlistId", vars["id"]), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to remove track")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
