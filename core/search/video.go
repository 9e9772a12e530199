package search

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"SpectraFM/logger"
	"SpectraFM/model"
)

// DefaultLimit is the number of results requested per query.
const DefaultLimit = 10

// VideoSearcher queries a YouTube Data style search endpoint.
type VideoSearcher struct {
	baseURL    string
	apiKey     string
	limit      int
	httpClient *http.Client
}

func NewVideoSearcher(baseURL, apiKey string) *VideoSearcher {
	return &VideoSearcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		limit:      DefaultLimit,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *VideoSearcher) Source() string { return "video" }

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			Thumbnails   map[string]struct {
				URL string `json:"url"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

func (s *VideoSearcher) Search(ctx context.Context, query string) []model.Track {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	tracks, err := s.lookup(ctx, query)
	if err != nil {
		logger.Warn("Video search failed, serving fallback list",
			logger.String("query", query),
			logger.ErrorField(err))
		return FallbackTracks()
	}

	logger.Info("Video search completed",
		logger.String("query", query),
		logger.Int("count", len(tracks)))
	return tracks
}

func (s *VideoSearcher) lookup(ctx context.Context, query string) ([]model.Track, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("videoCategoryId", "10")
	params.Set("maxResults", strconv.Itoa(s.limit))
	params.Set("q", query)
	params.Set("key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("search API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	tracks := make([]model.Track, 0, len(result.Items))
	for _, item := range result.Items {
		if item.ID.VideoID == "" {
			continue
		}
		t := videoTrack(item.ID.VideoID, html.UnescapeString(item.Snippet.Title), html.UnescapeString(item.Snippet.ChannelTitle))
		for _, size := range []string{"high", "medium", "default"} {
			if th, ok := item.Snippet.Thumbnails[size]; ok && th.URL != "" {
				t.CoverURL = th.URL
				break
			}
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}
