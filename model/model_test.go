package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModeCycle(t *testing.T) {
	assert.Equal(t, ModeBars, ModeOrb.Next())
	assert.Equal(t, ModeWave, ModeBars.Next())
	assert.Equal(t, ModeOrb, ModeWave.Next())
	assert.Equal(t, ModeOrb, VisualizerMode("bogus").Next())
}

func TestParametersClamp(t *testing.T) {
	p := VisualizerParameters{Mode: "spiral", Intensity: 9, Speed: -1}.Clamp()
	assert.Equal(t, ModeOrb, p.Mode)
	assert.Equal(t, MaxIntensity, p.Intensity)
	assert.Equal(t, MinSpeed, p.Speed)

	p = VisualizerParameters{Mode: ModeWave, Intensity: 0}.Clamp()
	assert.Equal(t, MinIntensity, p.Intensity)
	assert.Equal(t, ModeWave, p.Mode)
}

func TestPlaylistAddIsIdempotentByID(t *testing.T) {
	var p Playlist
	a := Track{ID: "a", Title: "A"}
	assert.True(t, p.Add(a))
	assert.False(t, p.Add(Track{ID: "a", Title: "A again"}))
	assert.True(t, p.Add(Track{ID: "b"}))
	assert.Len(t, p.Tracks, 2)
	assert.Equal(t, "A", p.Tracks[0].Title)

	assert.True(t, p.Remove("a"))
	assert.False(t, p.Remove("a"))
	assert.Equal(t, "b", p.Tracks[0].ID)
}

func TestCanonicalSource(t *testing.T) {
	a := Track{Source: TrackSource{Kind: SourceRemote, URL: "HTTPS://Example.com/a.mp3#t=3"}}
	b := Track{Source: TrackSource{Kind: SourceRemote, URL: "https://example.com/a.mp3"}}
	assert.Equal(t, a.CanonicalSource(), b.CanonicalSource())

	v1 := Track{Source: TrackSource{Kind: SourceVideo, VideoID: "xyz", URL: "https://youtu.be/xyz"}}
	v2 := Track{Source: TrackSource{Kind: SourceVideo, VideoID: "xyz", URL: "https://www.youtube.com/watch?v=xyz"}}
	assert.Equal(t, v1.CanonicalSource(), v2.CanonicalSource())
	assert.NotEqual(t, a.CanonicalSource(), v1.CanonicalSource())
}
