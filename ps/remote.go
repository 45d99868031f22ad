package ps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// S3Config holds S3 credentials. Empty fields fall back to the default AWS
// configuration chain.
type S3Config struct {
	AccessKey string
	SecretKey string
	Region    string
	Endpoint  string // custom S3-compatible endpoint, addressed path-style
}

// S3Store keeps the snapshot in one S3 object.
type S3Store struct {
	location string
	bucket   string
	key      string
	codec    Codec
	cfg      *S3Config
	logger   *zap.Logger

	client *s3.Client
}

// parseS3URL parses s3://bucket/key into bucket and key parts
func parseS3URL(url string) (bucket, key string, err error) {
	path := strings.TrimPrefix(url, "s3://")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid S3 URL: %s", url)
	}
	return parts[0], parts[1], nil
}

func NewS3Store(location string, opts Options) (*S3Store, error) {
	bucket, key, err := parseS3URL(location)
	if err != nil {
		return nil, err
	}
	return &S3Store{
		location: location,
		bucket:   bucket,
		key:      key,
		codec:    CodecFor(key),
		cfg:      opts.S3,
		logger:   opts.logger(),
	}, nil
}

func (s *S3Store) Location() string {
	return s.location
}

// s3Client creates the client on first use.
func (s *S3Store) s3Client(ctx context.Context) (*s3.Client, error) {
	if s.client != nil {
		return s.client, nil
	}

	var opts []func(*config.LoadOptions) error
	cfg := s.cfg
	if cfg != nil && cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg != nil && cfg.AccessKey != "" && cfg.SecretKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		opts = append(opts, config.WithCredentialsProvider(creds))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg != nil && cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	s.client = s3.NewFromConfig(awsCfg, clientOpts...)
	return s.client, nil
}

func (s *S3Store) Load(ctx context.Context) (Snapshot, error) {
	client, err := s.s3Client(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	resp, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, s.location)
		}
		return Snapshot{}, fmt.Errorf("failed to get S3 object: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read S3 object: %w", err)
	}

	snapshot, err := s.codec.Unmarshal(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", s.location, err)
	}
	s.logger.Debug("snapshot loaded", zap.String("location", s.location), zap.Int("bytes", len(data)))
	return snapshot, nil
}

func (s *S3Store) Save(ctx context.Context, snapshot Snapshot) error {
	data, err := s.codec.Marshal(snapshot)
	if err != nil {
		return err
	}

	client, err := s.s3Client(ctx)
	if err != nil {
		return err
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	s.logger.Debug("snapshot saved", zap.String("location", s.location), zap.Int("bytes", len(data)))
	return nil
}

// HTTPStore reads a snapshot published at an http(s) URL. It cannot save.
type HTTPStore struct {
	url    string
	codec  Codec
	client *http.Client
	logger *zap.Logger
}

func NewHTTPStore(url string, opts Options) *HTTPStore {
	return &HTTPStore{
		url:    url,
		codec:  CodecFor(url),
		client: &http.Client{Timeout: 5 * time.Minute},
		logger: opts.logger(),
	}
}

func (s *HTTPStore) Location() string {
	return s.url
}

func (s *HTTPStore) Load(ctx context.Context) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("invalid URL %s: %w", s.url, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, s.url)
	case resp.StatusCode != http.StatusOK:
		return Snapshot{}, fmt.Errorf("HTTP request returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read response: %w", err)
	}

	snapshot, err := s.codec.Unmarshal(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", s.url, err)
	}
	s.logger.Debug("snapshot loaded", zap.String("url", s.url), zap.Int("bytes", len(data)))
	return snapshot, nil
}

func (s *HTTPStore) Save(ctx context.Context, snapshot Snapshot) error {
	return fmt.Errorf("%w: %s", ErrReadOnly, s.url)
}
