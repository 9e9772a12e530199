package model

import "time"

// Playlist is a named ordered sequence of tracks. Tracks are copied in by value.
type Playlist struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Tracks    []Track   `json:"tracks"`
	CreatedAt time.Time `json:"createdAt"`
}

// Add appends t unless a track with the same ID is already present.
// It reports whether the playlist changed.
func (p *Playlist) Add(t Track) bool {
	if p.Contains(t.ID) {
		return false
	}
	p.Tracks = append(p.Tracks, t)
	return true
}

// Remove drops the track with the given ID, preserving order.
func (p *Playlist) Remove(trackID string) bool {
	for i, t := range p.Tracks {
		if t.ID == trackID {
			p.Tracks = append(p.Tracks[:i], p.Tracks[i+1:]...)
			return true
		}
	}
	return false
}

func (p *Playlist) Contains(trackID string) bool {
	for _, t := range p.Tracks {
		if t.ID == trackID {
			return true
		}
	}
	return false
}

// LyricsState is what the lyrics overlay renders for the current track.
type LyricsState struct {
	TrackID string `json:"trackId"`
	Text    string `json:"text"` // empty means not found
	Notice  string `json:"notice,omitempty"`
	Loading bool   `json:"loading"`
}

// PlaylistRecord is the stored row of a playlist; its tracks live in PlaylistEntry rows.
type PlaylistRecord struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Name      string    `gorm:"size:255"`
	CreatedAt time.Time
}

func (PlaylistRecord) TableName() string { return "playlists" }

// PlaylistEntry keeps a by-value copy of a track at a position in a playlist.
type PlaylistEntry struct {
	PlaylistID string `gorm:"primaryKey;size:36"`
	TrackID    string `gorm:"primaryKey;size:36"`
	Position   int    `gorm:"index"`
	Track      Track  `gorm:"serializer:json;type:text"`
}

func (PlaylistEntry) TableName() string { return "playlist_entries" }
