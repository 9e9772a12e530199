package search

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"SpectraFM/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{"items":[
 {"id":{"videoId":"abc123"},"snippet":{"title":"Rock &amp; Roll","channelTitle":"Led Zeppelin",
  "thumbnails":{"default":{"url":"d.jpg"},"high":{"url":"h.jpg"}}}},
 {"id":{"channelId":"skip"},"snippet":{"title":"a channel"}}
]}`

func TestVideoSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "video", r.URL.Query().Get("type"))
		assert.Equal(t, "led zeppelin", r.URL.Query().Get("q"))
		assert.Equal(t, "key1", r.URL.Query().Get("key"))
		fmt.Fprint(w, sampleResponse)
	}))
	defer srv.Close()

	s := NewVideoSearcher(srv.URL+"/", "key1")
	got := s.Search(t.Context(), "  led zeppelin ")
	require.Len(t, got, 1)
	assert.Equal(t, "Rock & Roll", got[0].Title)
	assert.Equal(t, "Led Zeppelin", got[0].Artist)
	assert.Equal(t, model.SourceVideo, got[0].Source.Kind)
	assert.Equal(t, "abc123", got[0].Source.VideoID)
	assert.Equal(t, "h.jpg", got[0].CoverURL)
	assert.True(t, got[0].Ready())
}

func TestEmptyQueryReturnsNothing(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	assert.Empty(t, NewVideoSearcher(srv.URL, "").Search(t.Context(), "   "))
	assert.False(t, called)
}

func TestFailureServesFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	got := NewVideoSearcher(srv.URL, "").Search(t.Context(), "anything")
	assert.NotEmpty(t, got)
	assert.Equal(t, FallbackTracks(), got)
}

func TestRegistryDefault(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Search(t.Context(), "x"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sampleResponse)
	}))
	defer srv.Close()
	r.Register(NewVideoSearcher(srv.URL, ""))
	assert.NotNil(t, r.Get("video"))
	assert.Len(t, r.Search(t.Context(), "q"), 1)
	assert.Nil(t, r.Search(t.Context(), ""))
}
