package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"SpectraFM/core/control"
	"SpectraFM/logger"
	"SpectraFM/model"
	"SpectraFM/repository"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/lucasb-eyer/go-colorful"
)

// visualizerUpdate is a partial parameter change; nil fields are left alone.
type visualizerUpdate struct {
	Mode      *string  `json:"mode"`
	Color     *string  `json:"color"`
	Intensity *float64 `json:"intensity"`
	Speed     *float64 `json:"speed"`
}

// DragEvent is one pointer event routed to the drag gesture.
type DragEvent struct {
	Type      string  `json:"type"` // down, move, up, leave
	PointerID int     `json:"pointerId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

type dragResponse struct {
	Dragging   bool                       `json:"dragging"`
	Parameters model.VisualizerParameters `json:"parameters"`
}

type createPresetRequest struct {
	Name       string                      `json:"name"`
	Parameters *model.VisualizerParameters `json:"parameters"`
}

func (s *Server) GetVisualizerHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.params.Parameters())
}

// UpdateVisualizerHandler applies a partial update. Intensity and speed are clamped; an
// unknown mode or a malformed color is rejected.
func (s *Server) UpdateVisualizerHandler(w http.ResponseWriter, r *http.Request) {
	var req visualizerUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var mode model.VisualizerMode
	if req.Mode != nil {
		m, err := model.ParseVisualizerMode(*req.Mode)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		mode = m
	}
	var color string
	if req.Color != nil {
		c, err := colorful.Hex(strings.TrimSpace(*req.Color))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid color")
			return
		}
		color = c.Hex()
	}

	p := s.params.Update(func(p *model.VisualizerParameters) {
		if mode != "" {
			p.Mode = mode
		}
		if color != "" {
			p.Color = color
		}
		if req.Intensity != nil {
			p.Intensity = *req.Intensity
		}
		if req.Speed != nil {
			p.Speed = *req.Speed
		}
	})
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) NextModeHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.params.NextMode())
}

func (s *Server) SelectColorHandler(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid palette index")
		return
	}
	p, err := control.SelectColor(s.params, i)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DragHandler feeds pointer events to the drag gesture.
func (s *Server) DragHandler(w http.ResponseWriter, r *http.Request) {
	var ev DragEvent
	if err := decodeJSON(r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch ev.Type {
	case "down":
		s.drag.PointerDown(ev.PointerID, ev.X, ev.Y)
	case "move":
		s.drag.PointerMove(ev.PointerID, ev.X, ev.Y)
	case "up":
		s.drag.PointerUp(ev.PointerID)
	case "leave":
		s.drag.PointerLeave(ev.PointerID)
	default:
		writeError(w, http.StatusBadRequest, "Unknown pointer event")
		return
	}
	writeJSON(w, http.StatusOK, dragResponse{Dragging: s.drag.Dragging(), Parameters: s.params.Parameters()})
}

func (s *Server) ListPresetsHandler(w http.ResponseWriter, r *http.Request) {
	presets, err := s.presets.List(r.Context())
	if err != nil {
		logger.Error("Failed to list presets", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to list presets")
		return
	}
	if presets == nil {
		presets = []model.VisualizerPreset{}
	}
	writeJSON(w, http.StatusOK, presets)
}

// CreatePresetHandler snapshots the given parameters, or the live ones when omitted.
func (s *Server) CreatePresetHandler(w http.ResponseWriter, r *http.Request) {
	var req createPresetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Preset name is required")
		return
	}
	params := s.params.Parameters()
	if req.Parameters != nil {
		params = req.Parameters.Clamp()
	}

	preset := &model.VisualizerPreset{
		ID:         uuid.NewString(),
		Name:       req.Name,
		Parameters: params,
		CreatedAt:  time.Now(),
	}
	if err := s.presets.Create(r.Context(), preset); err != nil {
		logger.Error("Failed to create preset", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to create preset")
		return
	}
	writeJSON(w, http.StatusCreated, preset)
}

func (s *Server) DeletePresetHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.presets.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Preset not found")
			return
		}
		logger.Error("Failed to delete preset", logger.String("presetId", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete preset")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyPresetHandler loads a stored preset into the live parameters.
func (s *Server) ApplyPresetHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	presets, err := s.presets.List(r.Context())
	if err != nil {
		logger.Error("Failed to list presets", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to load preset")
		return
	}
	for _, p := range presets {
		if p.ID == id {
			writeJSON(w, http.StatusOK, s.params.Set(p.Parameters))
			return
		}
	}
	writeError(w, http.StatusNotFound, "Preset not found")
}
