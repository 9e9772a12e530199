package library

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"SpectraFM/model"

	"github.com/bogem/id3v2"
)

// AudioExtensions are the file types picked up by imports.
var AudioExtensions = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
}

// IsAudioFile reports whether path has a supported extension.
func IsAudioFile(path string) bool {
	_, ok := AudioExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Tags is what an import learns about a file before uploading it.
type Tags struct {
	Title    string
	Artist   string
	Duration float64
}

// ReadTags reads ID3 title, artist and TLEN. Files without a usable tag fall back to the
// file name, split on " - " into artist and title when possible.
func ReadTags(path string) Tags {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	tags := Tags{Title: base}
	if artist, title, ok := strings.Cut(base, " - "); ok {
		tags.Artist, tags.Title = strings.TrimSpace(artist), strings.TrimSpace(title)
	}

	if strings.ToLower(filepath.Ext(path)) != ".mp3" {
		return tags
	}
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true, ParseFrames: []string{"Title", "Artist", "Length"}})
	if err != nil {
		return tags
	}
	defer tag.Close()

	if t := strings.TrimSpace(tag.Title()); t != "" {
		tags.Title = t
	}
	if a := strings.TrimSpace(tag.Artist()); a != "" {
		tags.Artist = a
	}
	if tf := tag.GetTextFrame(tag.CommonID("Length")); tf.Text != "" {
		if ms, err := strconv.ParseFloat(strings.TrimSpace(tf.Text), 64); err == nil && ms > 0 {
			tags.Duration = ms / 1000
		}
	}
	return tags
}

// ImportFile uploads one audio file into the library.
func ImportFile(ctx context.Context, lib *Library, path string) (model.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Track{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return model.Track{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	contentType := AudioExtensions[ext]
	if contentType == "" {
		contentType = mime.TypeByExtension(ext)
	}

	tags := ReadTags(path)
	if tags.Duration == 0 {
		if d, err := ProbeDuration(ctx, path); err == nil {
			tags.Duration = d
		}
	}
	return lib.Upload(ctx, Upload{
		Title:       tags.Title,
		Artist:      tags.Artist,
		Duration:    tags.Duration,
		ContentType: contentType,
		Size:        info.Size(),
		Body:        f,
	})
}
