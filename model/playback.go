package model

// ContextKind selects which sequence of tracks is live.
type ContextKind string

const (
	ContextLibrary  ContextKind = "library"
	ContextPlaylist ContextKind = "playlist"
)

// PlaybackContext is the live track sequence plus the index into it.
type PlaybackContext struct {
	Kind       ContextKind `json:"kind"`
	PlaylistID string      `json:"playlistId,omitempty"`
	Index      int         `json:"index"`
}

// PlaybackState is the transport-facing state of the player.
type PlaybackState string

const (
	StateStopped PlaybackState = "stopped"
	StatePlaying PlaybackState = "playing"
	StatePaused  PlaybackState = "paused"
)

// Progress is the time-progress value republished from the transport.
type Progress struct {
	CurrentTime float64 `json:"currentTime"`
	Duration    float64 `json:"duration"`
}
