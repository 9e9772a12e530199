package server

import (
	"net/http"
	"strings"

	"SpectraFM/logger"
	"SpectraFM/model"

	"github.com/gorilla/mux"
)

type chatResponse struct {
	Reply string `json:"reply"`
}

type lyricsResponse struct {
	TrackID string `json:"trackId"`
	Text    string `json:"text"`
	Found   bool   `json:"found"`
	Notice  string `json:"notice,omitempty"`
}

type putLyricsRequest struct {
	Text string `json:"text"`
}

// trackOrCurrent resolves a track ID against the library, falling back to the loaded track.
func (s *Server) trackOrCurrent(id string) (*model.Track, bool) {
	if id != "" {
		if t, ok := s.lib.Get(id); ok {
			return &t, true
		}
		if t, ok := s.player.Adapter().Track(); ok && t.ID == id {
			return &t, true
		}
		return nil, false
	}
	if t, ok := s.player.Adapter().Track(); ok {
		return &t, true
	}
	return nil, true
}

// ChatHandler answers one DJ message. The reply is always usable text; AI failures turn into
// the DJ's fallback lines.
func (s *Server) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "Message text is required")
		return
	}
	track, ok := s.trackOrCurrent(req.TrackID)
	if !ok {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: s.dj.ChatReply(r.Context(), req.Text, track)})
}

func (s *Server) ChatHistoryHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dj.Transcript().Messages())
}

func (s *Server) VibeHandler(w http.ResponseWriter, r *http.Request) {
	track, ok := s.trackOrCurrent(mux.Vars(r)["track_id"])
	if !ok || track == nil {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}
	writeJSON(w, http.StatusOK, s.vibeFor(r.Context(), *track))
}

// GetLyricsHandler returns the lyrics of a track, fetching them on a cache miss. An empty
// text means none were found.
func (s *Server) GetLyricsHandler(w http.ResponseWriter, r *http.Request) {
	track, ok := s.trackOrCurrent(mux.Vars(r)["track_id"])
	if !ok || track == nil {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}

	var text, notice string
	if st := s.lyrics.State(); st.TrackID == track.ID && !st.Loading {
		text, notice = st.Text, st.Notice
	} else {
		text = s.lyrics.Get(r.Context(), *track)
	}
	writeJSON(w, http.StatusOK, lyricsResponse{TrackID: track.ID, Text: text, Found: text != "", Notice: notice})
}

// PutLyricsHandler commits user-edited lyrics through the editor.
func (s *Server) PutLyricsHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["track_id"]
	if _, ok := s.trackOrCurrent(id); !ok {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}
	var req putLyricsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.editMu.Lock()
	defer s.editMu.Unlock()

	var current string
	if st := s.lyrics.State(); st.TrackID == id {
		current = st.Text
	}
	s.editor.Begin(id, current)
	s.editor.SetDraft(req.Text)
	if err := s.editor.Commit(r.Context()); err != nil {
		s.editor.Discard()
		logger.Error("Failed to save lyrics", logger.String("trackId", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to save lyrics")
		return
	}
	text := s.editor.Committed()
	writeJSON(w, http.StatusOK, lyricsResponse{TrackID: id, Text: text, Found: text != ""})
}

// SearchHandler never fails; an unreachable search service yields the canned results.
func (s *Server) SearchHandler(w http.ResponseWriter, r *http.Request) {
	results := s.search.Search(r.Context(), r.URL.Query().Get("q"))
	if results == nil {
		results = []model.Track{}
	}
	writeJSON(w, http.StatusOK, results)
}
