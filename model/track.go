package model

import (
	"net/url"
	"strings"
	"time"
)

// TrackStatus is the upload lifecycle of a library entry.
type TrackStatus string

const (
	TrackUploading TrackStatus = "uploading"
	TrackReady     TrackStatus = "ready"
)

// SourceKind tells the transport how to load a track.
type SourceKind string

const (
	SourceLocal  SourceKind = "local"  // blob from local storage
	SourceRemote SourceKind = "remote" // plain remote URL
	SourceVideo  SourceKind = "video"  // external video reference, no audio graph
)

// TrackSource is the playable reference of a track.
type TrackSource struct {
	Kind    SourceKind `json:"kind" gorm:"column:source_kind;size:16"`
	URL     string     `json:"url,omitempty" gorm:"column:source_url;size:2048"`
	VideoID string     `json:"videoId,omitempty" gorm:"column:video_id;size:64"`
}

// Track represents an entry in the music library. It is immutable once ready.
type Track struct {
	ID        string      `json:"id" gorm:"primaryKey;size:36"`
	Title     string      `json:"title" gorm:"size:255"`
	Artist    string      `json:"artist" gorm:"size:255"`
	Source    TrackSource `json:"source" gorm:"embedded"`
	CoverURL  string      `json:"coverUrl,omitempty" gorm:"size:2048"`
	Status    TrackStatus `json:"status" gorm:"size:16;index"`
	IsLocal   bool        `json:"isLocal"`
	BlobKey   string      `json:"-" gorm:"size:255"`
	Duration  float64     `json:"duration"` // seconds, 0 when unknown
	Position  int         `json:"position" gorm:"index"` // library slot
	CreatedAt time.Time   `json:"createdAt"`
}

// Ready reports whether the track can be played.
func (t Track) Ready() bool {
	return t.Status == TrackReady
}

// CanonicalSource returns the identifier used to decide whether two tracks point at the
// same media. Video references compare by video ID; URLs compare without fragment, with a
// lower-cased scheme and host.
func (t Track) CanonicalSource() string {
	if t.Source.Kind == SourceVideo && t.Source.VideoID != "" {
		return "video:" + t.Source.VideoID
	}
	return CanonicalURL(t.Source.URL)
}

// CanonicalURL normalises a media URL for comparison.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	return u.String()
}
