package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"SpectraFM/config"
	"SpectraFM/core/agent"
	"SpectraFM/core/auth"
	"SpectraFM/core/control"
	"SpectraFM/core/lyrics"
	"SpectraFM/core/playback"
	"SpectraFM/core/sampler"
	"SpectraFM/core/visualizer"
	"SpectraFM/library"
	"SpectraFM/model"
	"SpectraFM/repository"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type memTracks struct {
	mu     sync.Mutex
	tracks []model.Track
}

func (m *memTracks) Save(_ context.Context, t *model.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tracks {
		if m.tracks[i].ID == t.ID {
			m.tracks[i] = *t
			return nil
		}
	}
	m.tracks = append(m.tracks, *t)
	return nil
}

func (m *memTracks) GetByID(_ context.Context, id string) (*model.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tracks {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memTracks) List(context.Context) ([]model.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Track(nil), m.tracks...), nil
}

func (m *memTracks) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.tracks {
		if t.ID == id {
			m.tracks = append(m.tracks[:i], m.tracks[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memTracks) Replace(_ context.Context, oldID string, t *model.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tracks {
		if m.tracks[i].ID == oldID {
			t.Position = m.tracks[i].Position
			m.tracks[i] = *t
			return nil
		}
	}
	return repository.ErrNotFound
}

type memBlobs struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func (m *memBlobs) Save(_ context.Context, t model.Track, r io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[t.ID] = data
	return "tracks/" + t.ID, nil
}

func (m *memBlobs) PlayableURL(_ context.Context, key string) (string, error) {
	return "http://blobs.local/" + key, nil
}

func (m *memBlobs) ListAll(context.Context) ([]model.Track, error) {
	return nil, nil
}

func (m *memBlobs) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, id)
	return nil
}

type memPlaylists struct {
	mu    sync.Mutex
	items map[string]*model.Playlist
}

func (m *memPlaylists) Create(_ context.Context, p *model.Playlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.items[p.ID] = &cp
	return nil
}

func (m *memPlaylists) Get(_ context.Context, id string) (*model.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPlaylists) List(context.Context) ([]model.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Playlist
	for _, p := range m.items {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memPlaylists) AddTrack(_ context.Context, id string, t model.Track) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	return p.Add(t), nil
}

func (m *memPlaylists) RemoveTrack(_ context.Context, id, trackID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok || !p.Remove(trackID) {
		return repository.ErrNotFound
	}
	return nil
}

func (m *memPlaylists) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type memPresets struct {
	mu      sync.Mutex
	presets []model.VisualizerPreset
}

func (m *memPresets) Create(_ context.Context, p *model.VisualizerPreset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presets = append(m.presets, *p)
	return nil
}

func (m *memPresets) List(context.Context) ([]model.VisualizerPreset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.VisualizerPreset(nil), m.presets...), nil
}

func (m *memPresets) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.presets {
		if p.ID == id {
			m.presets = append(m.presets[:i], m.presets[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type memVibes struct {
	mu    sync.Mutex
	vibes map[string]model.Vibe
	sets  int
}

func (m *memVibes) Get(_ context.Context, id string) (model.Vibe, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vibes[id]
	return v, ok, nil
}

func (m *memVibes) Set(_ context.Context, id string, v model.Vibe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vibes[id] = v
	m.sets++
	return nil
}

const fakeLyrics = "line one\nline two"

type fakeDJ struct {
	transcript *agent.Transcript
	vibeCalls  atomic.Int32
}

func (d *fakeDJ) ChatReply(_ context.Context, text string, track *model.Track) string {
	d.transcript.Append(model.SenderUser, text)
	reply := "echo: " + text
	if track != nil {
		reply += " (" + track.Title + ")"
	}
	d.transcript.Append(model.SenderAI, reply)
	return reply
}

func (d *fakeDJ) ChatStream(_ context.Context, text string, _ *model.Track, cb agent.StreamCallback) string {
	for _, chunk := range []string{"Hel", "lo"} {
		if cb != nil {
			_ = cb(chunk)
		}
	}
	return "Hello"
}

func (d *fakeDJ) VibeOf(_ context.Context, track model.Track) model.Vibe {
	d.vibeCalls.Add(1)
	return model.Vibe{Color: "#123456", Description: "vibe of " + track.Title}
}

func (d *fakeDJ) LyricsOf(_ context.Context, _ model.Track) string {
	return fakeLyrics
}

func (d *fakeDJ) Transcript() *agent.Transcript { return d.transcript }

type fakeSearch struct{}

func (fakeSearch) Search(_ context.Context, q string) []model.Track {
	if q == "" {
		return nil
	}
	return []model.Track{{ID: "v1", Title: q, Source: model.TrackSource{Kind: model.SourceVideo, VideoID: "abc"}}}
}

// ---- fixture ----

const password = "hunter2"

type fixture struct {
	t       *testing.T
	srv     *Server
	handler http.Handler
	token   string
	lib     *library.Library
	blobs   *memBlobs
	presets *memPresets
	vibes   *memVibes
	dj      *fakeDJ
	smp     *sampler.Sampler
}

func newFixture(t *testing.T, tracks ...model.Track) *fixture {
	t.Helper()
	ctx := context.Background()

	blobs := &memBlobs{blobs: map[string][]byte{}}
	lib := library.New(&memTracks{}, blobs)
	for _, tr := range tracks {
		_, err := lib.AddRemote(ctx, tr)
		require.NoError(t, err)
	}
	playlists := library.NewPlaylists(&memPlaylists{items: map[string]*model.Playlist{}})

	smp := sampler.New(16)
	session := playback.NewSession(playback.NewClockTransport(), nil)
	t.Cleanup(func() { session.Close() })
	player := playback.NewPlayer(
		playback.NewQueue(library.Catalog{Library: lib, Playlists: playlists}),
		playback.NewAdapter(session, smp),
	)

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	dj := &fakeDJ{transcript: agent.NewTranscript()}
	params := control.NewParamStore(model.DefaultParameters())
	presets := &memPresets{}
	vibes := &memVibes{vibes: map[string]model.Vibe{}}
	issuer := auth.NewIssuer("test-secret", time.Hour)

	srv := New(Deps{
		Library:           lib,
		Playlists:         playlists,
		Presets:           presets,
		Params:            params,
		Player:            player,
		Lyrics:            lyrics.NewService(dj, nil),
		DJ:                dj,
		Vibes:             vibes,
		Search:            fakeSearch{},
		Issuer:            issuer,
		Engine:            visualizer.NewEngine(smp, params),
		Scene:             visualizer.NewSceneState(),
		AdminPasswordHash: hash,
		FrameRate:         30,
	})
	token, _, err := issuer.Issue("admin")
	require.NoError(t, err)

	return &fixture{
		t: t, srv: srv, handler: srv.Router(), token: token,
		lib: lib, blobs: blobs, presets: presets, vibes: vibes, dj: dj, smp: smp,
	}
}

func (f *fixture) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	f.t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(f.t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func remote(id, title string) model.Track {
	return model.Track{
		ID:     id,
		Title:  title,
		Artist: "Artist " + id,
		Source: model.TrackSource{Kind: model.SourceRemote, URL: "http://media.local/" + id + ".mp3"},
	}
}

// ---- tests ----

func TestLogin(t *testing.T) {
	f := newFixture(t)
	f.token = ""

	rec := f.do(http.MethodPost, "/api/auth/login", LoginRequest{Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/api/auth/login", LoginRequest{Password: password})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[LoginResponse](t, rec)
	assert.NotEmpty(t, resp.Token)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/tracks", nil).Code)
	f.token = "not-a-token"
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/tracks", nil).Code)
	f.token = resp.Token
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/tracks", nil).Code)

	rec = f.do(http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", decode[SessionResponse](t, rec).Subject)

	rec = f.do(http.MethodPost, "/api/auth/login", LoginRequest{Username: "booth", Password: password})
	require.Equal(t, http.StatusOK, rec.Code)
	f.token = decode[LoginResponse](t, rec).Token
	rec = f.do(http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "booth", decode[SessionResponse](t, rec).Subject)
}

func TestLoginDisabledWithoutHash(t *testing.T) {
	f := newFixture(t)
	f.srv.adminHash = ""
	rec := f.do(http.MethodPost, "/api/auth/login", LoginRequest{Password: password})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)
	f.token = ""
	for _, path := range []string{"/api/tracks", "/api/playlists/p1/tracks/t1", "/api/auth/login"} {
		rec := f.do(http.MethodOptions, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), path)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE", path)
	}

	// Actual requests still carry the headers and still need a token.
	rec := f.do(http.MethodGet, "/api/tracks", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestTracksFilterAndDelete(t *testing.T) {
	f := newFixture(t, remote("t1", "Blue Monday"), remote("t2", "Teardrop"))

	all := decode[[]model.Track](t, f.do(http.MethodGet, "/api/tracks", nil))
	assert.Len(t, all, 2)

	hits := decode[[]model.Track](t, f.do(http.MethodGet, "/api/tracks?q=blue", nil))
	require.Len(t, hits, 1)
	assert.Equal(t, "t1", hits[0].ID)

	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/api/tracks/t1", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, "/api/tracks/t1", nil).Code)
	assert.Len(t, f.lib.List(), 1)
}

func TestUploadTrack(t *testing.T) {
	f := newFixture(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("artist", "Portishead"))
	fw, err := mw.CreateFormFile("file", "Roads.mp3")
	require.NoError(t, err)
	_, err = fw.Write([]byte("ID3 fake audio"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/tracks", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+f.token)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	track := decode[model.Track](t, rec)
	assert.Equal(t, "Roads", track.Title)
	assert.Equal(t, "Portishead", track.Artist)
	assert.Equal(t, model.TrackReady, track.Status)
	assert.Equal(t, model.SourceLocal, track.Source.Kind)
	assert.True(t, track.IsLocal)
	assert.Equal(t, []byte("ID3 fake audio"), f.blobs.blobs[track.ID])

	list := f.lib.List()
	require.Len(t, list, 1)
	assert.Equal(t, track.ID, list[0].ID)
}

func TestAddRemoteTrack(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/tracks", model.Track{Title: "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/tracks", model.Track{
		Title:  "Clip",
		Source: model.TrackSource{Kind: model.SourceVideo, VideoID: "abc"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	track := decode[model.Track](t, rec)
	assert.NotEmpty(t, track.ID)
	assert.Equal(t, model.TrackReady, track.Status)
	assert.False(t, track.IsLocal)
}

func TestPlaylistFlow(t *testing.T) {
	f := newFixture(t, remote("t1", "One"))

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/playlists", map[string]string{}).Code)

	rec := f.do(http.MethodPost, "/api/playlists", map[string]string{"name": "Night"})
	require.Equal(t, http.StatusCreated, rec.Code)
	pl := decode[model.Playlist](t, rec)

	path := "/api/playlists/" + pl.ID + "/tracks"
	rec = f.do(http.MethodPost, path, map[string]string{"trackId": "t1"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, map[string]bool{"added": true}, decode[map[string]bool](t, rec))

	rec = f.do(http.MethodPost, path, map[string]string{"trackId": "t1"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]bool{"added": false}, decode[map[string]bool](t, rec))

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPost, path, map[string]string{"trackId": "nope"}).Code)
	assert.Equal(t, http.StatusNotFound,
		f.do(http.MethodPost, "/api/playlists/missing/tracks", map[string]string{"trackId": "t1"}).Code)

	got := decode[model.Playlist](t, f.do(http.MethodGet, "/api/playlists/"+pl.ID, nil))
	require.Len(t, got.Tracks, 1)
	assert.Equal(t, "One", got.Tracks[0].Title)

	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, path+"/t1", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, path+"/t1", nil).Code)

	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/api/playlists/"+pl.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/playlists/"+pl.ID, nil).Code)
}

func TestVisualizerParameters(t *testing.T) {
	f := newFixture(t)

	p := decode[model.VisualizerParameters](t, f.do(http.MethodPut, "/api/visualizer", map[string]interface{}{
		"intensity": 10.0,
		"speed":     -1.0,
		"color":     "#ABC",
	}))
	assert.Equal(t, model.MaxIntensity, p.Intensity)
	assert.Equal(t, model.MinSpeed, p.Speed)
	assert.Equal(t, "#aabbcc", p.Color)
	assert.Equal(t, model.ModeOrb, p.Mode)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPut, "/api/visualizer", map[string]string{"mode": "cube"}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPut, "/api/visualizer", map[string]string{"color": "purple"}).Code)

	for _, want := range []model.VisualizerMode{model.ModeBars, model.ModeWave, model.ModeOrb} {
		p = decode[model.VisualizerParameters](t, f.do(http.MethodPost, "/api/visualizer/mode/next", nil))
		assert.Equal(t, want, p.Mode)
	}

	p = decode[model.VisualizerParameters](t, f.do(http.MethodPost, "/api/visualizer/color/1", nil))
	assert.Equal(t, control.Palette[1], p.Color)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/visualizer/color/9", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/visualizer/color/x", nil).Code)

	got := decode[model.VisualizerParameters](t, f.do(http.MethodGet, "/api/visualizer", nil))
	assert.Equal(t, control.Palette[1], got.Color)
}

func TestDragGesture(t *testing.T) {
	f := newFixture(t)
	f.srv.params.Set(model.DefaultParameters())

	drag := func(ev DragEvent) dragResponse {
		rec := f.do(http.MethodPost, "/api/visualizer/drag", ev)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decode[dragResponse](t, rec)
	}

	resp := drag(DragEvent{Type: "down", PointerID: 1, X: 100, Y: 100})
	assert.True(t, resp.Dragging)

	resp = drag(DragEvent{Type: "move", PointerID: 1, X: 100 + control.DragPixelsPerUnit, Y: 100 - control.DragPixelsPerUnit})
	assert.InDelta(t, 2.0, resp.Parameters.Intensity, 1e-9)
	assert.InDelta(t, 2.0, resp.Parameters.Speed, 1e-9)

	resp = drag(DragEvent{Type: "move", PointerID: 2, X: 0, Y: 0})
	assert.InDelta(t, 2.0, resp.Parameters.Intensity, 1e-9)

	resp = drag(DragEvent{Type: "leave", PointerID: 1})
	assert.False(t, resp.Dragging)

	resp = drag(DragEvent{Type: "move", PointerID: 1, X: 1000, Y: 1000})
	assert.InDelta(t, 2.0, resp.Parameters.Intensity, 1e-9)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/visualizer/drag", DragEvent{Type: "tap"}).Code)
}

func TestPresets(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/presets", map[string]string{"name": " "}).Code)

	stored := model.VisualizerParameters{Mode: model.ModeWave, Color: "#10b981", Intensity: 9, Speed: 0.5}
	rec := f.do(http.MethodPost, "/api/presets", createPresetRequest{Name: "Calm", Parameters: &stored})
	require.Equal(t, http.StatusCreated, rec.Code)
	preset := decode[model.VisualizerPreset](t, rec)
	assert.Equal(t, model.MaxIntensity, preset.Parameters.Intensity)

	list := decode[[]model.VisualizerPreset](t, f.do(http.MethodGet, "/api/presets", nil))
	require.Len(t, list, 1)

	p := decode[model.VisualizerParameters](t, f.do(http.MethodPost, "/api/presets/"+preset.ID+"/apply", nil))
	assert.Equal(t, model.ModeWave, p.Mode)
	assert.Equal(t, model.ModeWave, f.srv.params.Parameters().Mode)

	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/api/presets/"+preset.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, "/api/presets/"+preset.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/api/presets/"+preset.ID+"/apply", nil).Code)
}

func TestPlaybackFlow(t *testing.T) {
	f := newFixture(t, remote("t1", "One"), remote("t2", "Two"))

	rec := f.do(http.MethodPost, "/api/playback/play", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st := decode[PlaybackStatus](t, rec)
	assert.Equal(t, model.StatePlaying, st.State)
	require.NotNil(t, st.Track)
	assert.Equal(t, "t1", st.Track.ID)

	f.srv.Wait()
	st = decode[PlaybackStatus](t, f.do(http.MethodGet, "/api/playback", nil))
	assert.Equal(t, "t1", st.Lyrics.TrackID)
	assert.Equal(t, fakeLyrics, st.Lyrics.Text)
	assert.Equal(t, "line one", st.LyricLine)
	assert.Equal(t, 0, st.LyricIdx)
	require.NotNil(t, st.Vibe)
	assert.Equal(t, "#123456", st.Vibe.Color)

	st = decode[PlaybackStatus](t, f.do(http.MethodPost, "/api/playback/seek", seekRequest{Seconds: 1000}))
	assert.Equal(t, playback.DefaultTrackDuration, st.Progress.CurrentTime)
	assert.Equal(t, "line two", st.LyricLine)

	st = decode[PlaybackStatus](t, f.do(http.MethodPost, "/api/playback/volume", volumeRequest{Volume: 3}))
	assert.Equal(t, 1.0, st.Volume)

	st = decode[PlaybackStatus](t, f.do(http.MethodPost, "/api/playback/next", nil))
	assert.Equal(t, "t2", st.Track.ID)
	assert.Equal(t, model.StatePlaying, st.State)

	st = decode[PlaybackStatus](t, f.do(http.MethodPost, "/api/playback/next", nil))
	assert.Equal(t, "t1", st.Track.ID)

	st = decode[PlaybackStatus](t, f.do(http.MethodPost, "/api/playback/prev", nil))
	assert.Equal(t, "t2", st.Track.ID)

	st = decode[PlaybackStatus](t, f.do(http.MethodPost, "/api/playback/pause", nil))
	assert.Equal(t, model.StatePaused, st.State)
	assert.False(t, st.Playing)

	st = decode[PlaybackStatus](t, f.do(http.MethodPost, "/api/playback/select", selectRequest{TrackID: "t1"}))
	assert.Equal(t, "t1", st.Track.ID)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/api/playback/select", selectRequest{TrackID: "zz"}).Code)

	f.srv.Wait()
	assert.Equal(t, "t1", f.srv.lyrics.State().TrackID)
	_, vibeTrack := f.srv.currentVibe()
	assert.Equal(t, "t1", vibeTrack)
	assert.Len(t, f.vibes.vibes, 2)
}

func TestPlaybackEmptyLibrary(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/api/playback/play", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, http.StatusConflict, f.do(http.MethodPost, "/api/playback/next", nil).Code)

	st := decode[PlaybackStatus](t, f.do(http.MethodGet, "/api/playback", nil))
	assert.Equal(t, model.StateStopped, st.State)
	assert.Nil(t, st.Track)
	assert.Equal(t, -1, st.LyricIdx)
}

func TestChatAndVibe(t *testing.T) {
	f := newFixture(t, remote("t1", "One"))

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/dj/chat", model.ChatRequest{Text: "  "}).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/api/dj/chat", model.ChatRequest{Text: "hi", TrackID: "zz"}).Code)

	resp := decode[chatResponse](t, f.do(http.MethodPost, "/api/dj/chat", model.ChatRequest{Text: "hi", TrackID: "t1"}))
	assert.Equal(t, "echo: hi (One)", resp.Reply)

	history := decode[[]model.ChatMessage](t, f.do(http.MethodGet, "/api/dj/history", nil))
	require.Len(t, history, 2)
	assert.Equal(t, model.SenderUser, history[0].Sender)

	v := decode[model.Vibe](t, f.do(http.MethodGet, "/api/dj/vibe/t1", nil))
	assert.Equal(t, "vibe of One", v.Description)
	v = decode[model.Vibe](t, f.do(http.MethodGet, "/api/dj/vibe/t1", nil))
	assert.Equal(t, "#123456", v.Color)
	assert.Equal(t, int32(1), f.dj.vibeCalls.Load())

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/dj/vibe/zz", nil).Code)
}

func TestLyricsEndpoints(t *testing.T) {
	f := newFixture(t, remote("t1", "One"))

	got := decode[lyricsResponse](t, f.do(http.MethodGet, "/api/lyrics/t1", nil))
	assert.Equal(t, fakeLyrics, got.Text)
	assert.True(t, got.Found)

	got = decode[lyricsResponse](t, f.do(http.MethodPut, "/api/lyrics/t1", putLyricsRequest{Text: "my own words"}))
	assert.Equal(t, "my own words", got.Text)

	got = decode[lyricsResponse](t, f.do(http.MethodGet, "/api/lyrics/t1", nil))
	assert.Equal(t, "my own words", got.Text)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/lyrics/zz", nil).Code)
	assert.False(t, f.srv.editor.Editing())
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	results := decode[[]model.Track](t, f.do(http.MethodGet, "/api/search?q=lofi", nil))
	require.Len(t, results, 1)
	assert.Equal(t, model.SourceVideo, results[0].Source.Kind)

	empty := decode[[]model.Track](t, f.do(http.MethodGet, "/api/search", nil))
	assert.Empty(t, empty)
}

func wsURL(base, path, token string) string {
	return "ws" + strings.TrimPrefix(base, "http") + path + "?token=" + token
}

func TestDJSocketStreams(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.handler)
	defer ts.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts.URL, "/ws/dj", "bad"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts.URL, "/ws/dj", f.token), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(model.ChatRequest{Text: "hi"}))

	var types []string
	var content strings.Builder
	for {
		var msg model.WebSocketMessage
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		require.NoError(t, conn.ReadJSON(&msg))
		types = append(types, msg.Type)
		content.WriteString(msg.Content)
		if msg.Type == "end" || msg.Type == "error" {
			break
		}
	}
	assert.Equal(t, []string{"start", "content", "content", "end"}, types)
	assert.Equal(t, "Hello", content.String())

	require.NoError(t, conn.WriteJSON(model.ChatRequest{Text: ""}))
	var msg model.WebSocketMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
}

func TestFrameHub(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewFrameHub()
	go hub.Run(ctx)

	fast := &FrameClient{Hub: hub, Send: make(chan []byte, 1)}
	slow := &FrameClient{Hub: hub, Send: make(chan []byte)}
	require.True(t, hub.Register(fast))
	require.True(t, hub.Register(slow))
	assert.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 5*time.Millisecond)

	require.True(t, hub.Broadcast([]byte("frame")))
	select {
	case got := <-fast.Send:
		assert.Equal(t, []byte("frame"), got)
	case <-time.After(time.Second):
		t.Fatal("frame not delivered")
	}
	assert.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)
	_, open := <-slow.Send
	assert.False(t, open)

	cancel()
	assert.Eventually(t, func() bool { return !hub.Register(&FrameClient{Send: make(chan []byte)}) }, time.Second, 5*time.Millisecond)
}

func TestFramesSocket(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.srv.frames.Run(ctx)

	ts := httptest.NewServer(f.handler)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts.URL, "/ws/frames", f.token), nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Eventually(t, func() bool { return f.srv.frames.Count() == 1 }, time.Second, 5*time.Millisecond)

	f.smp.SetSimulated(true)
	frame := f.srv.engine.Tick(f.srv.scene, time.Now())
	f.srv.broadcastFrame(frame)

	var msg FrameMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "frame", msg.Type)
	assert.Equal(t, model.ModeOrb, msg.Scene.Mode)
	require.Len(t, msg.Bands, FrameBands)
	for _, b := range msg.Bands {
		assert.GreaterOrEqual(t, b, 64.0)
	}
	assert.GreaterOrEqual(t, msg.Peak, 0)
	assert.Less(t, msg.Peak, 16)
}

func TestSeedPresets(t *testing.T) {
	repo := &memPresets{}
	dir := t.TempDir()
	path := dir + "/presets.yaml"
	require.NoError(t, os.WriteFile(path, []byte(`presets:
  - name: Calm
    mode: wave
    color: "#3b82f6"
    intensity: 0.6
    speed: 0.5
  - name: Loud
    mode: bars
    intensity: 9
`), 0o644))

	require.NoError(t, SeedPresets(context.Background(), repo, path))
	require.Len(t, repo.presets, 2)
	assert.Equal(t, model.ModeWave, repo.presets[0].Parameters.Mode)
	assert.Equal(t, model.MaxIntensity, repo.presets[1].Parameters.Intensity)

	require.NoError(t, SeedPresets(context.Background(), repo, path))
	assert.Len(t, repo.presets, 2)

	require.NoError(t, SeedPresets(context.Background(), &memPresets{}, dir+"/missing.yaml"))

	_, err := PresetFromSeed(config.PresetSeed{Name: "Bad", Mode: "cube"})
	assert.Error(t, err)
}
