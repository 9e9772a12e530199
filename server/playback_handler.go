package server

import (
	"errors"
	"net/http"

	"SpectraFM/core/playback"
	"SpectraFM/logger"
	"SpectraFM/model"
)

// PlaybackStatus is the player view served to clients.
type PlaybackStatus struct {
	playback.Status
	Lyrics    model.LyricsState `json:"lyrics"`
	LyricLine string            `json:"lyricLine,omitempty"`
	LyricIdx  int               `json:"lyricIndex"`
	Vibe      *model.Vibe       `json:"vibe,omitempty"`
}

type seekRequest struct {
	Seconds float64 `json:"seconds"`
}

type volumeRequest struct {
	Volume float64 `json:"volume"`
}

// selectRequest switches the playback context, or jumps to a track in the current one when
// only TrackID is set.
type selectRequest struct {
	Kind       model.ContextKind `json:"kind"`
	PlaylistID string            `json:"playlistId"`
	Index      int               `json:"index"`
	TrackID    string            `json:"trackId"`
}

func (s *Server) status() PlaybackStatus {
	st := PlaybackStatus{Status: s.player.Status(), Lyrics: s.lyrics.State(), LyricIdx: -1}
	if st.Track != nil && st.Lyrics.TrackID == st.Track.ID {
		if line, idx, ok := s.lyrics.CurrentLine(st.Progress); ok {
			st.LyricLine, st.LyricIdx = line, idx
		}
	}
	if v, trackID := s.currentVibe(); st.Track != nil && trackID == st.Track.ID {
		st.Vibe = &v
	}
	return st
}

func (s *Server) PlaybackStatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) PlayHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.player.Play(); err != nil {
		writePlaybackError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) PauseHandler(w http.ResponseWriter, r *http.Request) {
	s.player.Pause()
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) NextHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := s.player.Next(); err != nil {
		writePlaybackError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) PrevHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := s.player.Prev(); err != nil {
		writePlaybackError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) SeekHandler(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.player.Adapter().Seek(req.Seconds)
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) VolumeHandler(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.player.Adapter().SetVolume(req.Volume)
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) SelectHandler(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var err error
	if req.TrackID != "" && req.Kind == "" {
		_, err = s.player.SelectTrack(req.TrackID)
	} else {
		_, err = s.player.Select(model.PlaybackContext{Kind: req.Kind, PlaylistID: req.PlaylistID, Index: req.Index})
		if err == nil && req.TrackID != "" {
			_, err = s.player.SelectTrack(req.TrackID)
		}
	}
	if err != nil {
		writePlaybackError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

func writePlaybackError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, playback.ErrEmptyContext):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, playback.ErrTrackNotInContext):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, playback.ErrSessionClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		logger.Error("Playback command failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Playback failed")
	}
}
