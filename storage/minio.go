// Package storage keeps uploaded audio blobs in MinIO.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"SpectraFM/config"
	"SpectraFM/logger"
	"SpectraFM/model"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrNotFound is returned for unknown blob IDs.
var ErrNotFound = errors.New("blob not found")

// TrackPrefix is the key prefix of every track blob.
const TrackPrefix = "tracks/"

// BlobStore saves track audio with the track's metadata attached to the object.
type BlobStore struct {
	client     *minio.Client
	bucket     string
	region     string
	presignTTL time.Duration
}

// NewBlobStore creates the MinIO client. It does not contact the server.
func NewBlobStore(cfg *config.Config) (*BlobStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &BlobStore{client: client, bucket: cfg.MinioBucket, region: cfg.MinioRegion, presignTTL: ttl}, nil
}

func (s *BlobStore) Bucket() string { return s.bucket }

// EnsureBucket creates the bucket when missing.
func (s *BlobStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	logger.Info("Created bucket", logger.String("bucket", s.bucket))
	return nil
}

// BlobKey is the object key of track id.
func BlobKey(id string) string {
	return TrackPrefix + id
}

// Save uploads r as the audio of track and returns its blob key.
func (s *BlobStore) Save(ctx context.Context, track model.Track, r io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := BlobKey(track.ID)
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: EncodeMetadata(track),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	logger.Info("Stored track blob",
		logger.String("key", key),
		logger.Int64("size", size))
	return key, nil
}

// ListAll rebuilds the stored tracks from object metadata, each with a presigned URL.
func (s *BlobStore) ListAll(ctx context.Context) ([]model.Track, error) {
	var tracks []model.Track
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: TrackPrefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		info, err := s.client.StatObject(ctx, s.bucket, obj.Key, minio.StatObjectOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", obj.Key, err)
		}
		u, err := s.client.PresignedGetObject(ctx, s.bucket, obj.Key, s.presignTTL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to presign %s: %w", obj.Key, err)
		}

		t := DecodeMetadata(info.UserMetadata)
		if t.ID == "" {
			t.ID = strings.TrimPrefix(obj.Key, TrackPrefix)
		}
		t.BlobKey = obj.Key
		t.IsLocal = true
		t.Status = model.TrackReady
		t.Source = model.TrackSource{Kind: model.SourceLocal, URL: u.String()}
		t.CreatedAt = info.LastModified
		tracks = append(tracks, t)
	}
	return tracks, nil
}

// PlayableURL presigns a fresh URL for key.
func (s *BlobStore) PlayableURL(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.presignTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return u.String(), nil
}

// Remove deletes the blob of track id.
func (s *BlobStore) Remove(ctx context.Context, id string) error {
	key := BlobKey(id)
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return ErrNotFound
		}
		return fmt.Errorf("failed to stat %s: %w", key, err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Metadata keys stored on each object. Values are query-escaped since headers are ASCII.
const (
	metaID       = "Track-Id"
	metaTitle    = "Title"
	metaArtist   = "Artist"
	metaCover    = "Cover-Url"
	metaDuration = "Duration"
)

func EncodeMetadata(t model.Track) map[string]string {
	m := map[string]string{
		metaID:     url.QueryEscape(t.ID),
		metaTitle:  url.QueryEscape(t.Title),
		metaArtist: url.QueryEscape(t.Artist),
	}
	if t.CoverURL != "" {
		m[metaCover] = url.QueryEscape(t.CoverURL)
	}
	if t.Duration > 0 {
		m[metaDuration] = strconv.FormatFloat(t.Duration, 'f', 3, 64)
	}
	return m
}

// DecodeMetadata reads EncodeMetadata output; key case is ignored.
func DecodeMetadata(meta map[string]string) model.Track {
	get := func(k string) string {
		for mk, v := range meta {
			if strings.EqualFold(mk, k) || strings.EqualFold(mk, "X-Amz-Meta-"+k) {
				if s, err := url.QueryUnescape(v); err == nil {
					return s
				}
				return v
			}
		}
		return ""
	}
	t := model.Track{
		ID:       get(metaID),
		Title:    get(metaTitle),
		Artist:   get(metaArtist),
		CoverURL: get(metaCover),
	}
	if d, err := strconv.ParseFloat(get(metaDuration), 64); err == nil {
		t.Duration = d
	}
	return t
}
