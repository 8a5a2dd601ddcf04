package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"liedetect/internal/config"
	"liedetect/internal/logger"
	"liedetect/internal/model"
	"liedetect/internal/store"
)

// ErrMediaUnavailable means the media file is neither cached locally nor
// reachable in remote storage.
var ErrMediaUnavailable = errors.New("media file is unavailable")

// MediaStorage saves uploaded interview videos and materializes them on the
// local filesystem when a collaborator needs a real file path. Uploads go to
// S3 when a bucket is configured and mock mode is off, otherwise to local
// disk under the media root.
type MediaStorage struct {
	cfg      *config.Config
	sessions *store.SessionStore
	log      *logger.Logger
	s3Client *s3.Client
}

// NewMediaStorage builds the storage service. The S3 client is only
// constructed when remote storage is active.
func NewMediaStorage(ctx context.Context, cfg *config.Config, sessions *store.SessionStore, log *logger.Logger) (*MediaStorage, error) {
	ms := &MediaStorage{cfg: cfg, sessions: sessions, log: log}
	if cfg.S3Bucket != "" && !cfg.UseMockServices {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		ms.s3Client = s3.NewFromConfig(awsCfg)
	}
	return ms, nil
}

// S3Enabled reports whether uploads are stored remotely.
func (ms *MediaStorage) S3Enabled() bool {
	return ms.s3Client != nil && ms.cfg.S3Bucket != ""
}

// SaveMedia stores the uploaded file under the deterministic key
// {prefix}/{sessionId}/{role}.mp4 and upserts the session's media record.
func (ms *MediaStorage) SaveMedia(ctx context.Context, sessionID, role string, file *multipart.FileHeader) (*model.MediaRecord, error) {
	if sessionID == "" {
		return nil, errors.New("sessionId is required")
	}
	if !model.ValidRole(role) {
		return nil, fmt.Errorf("role must be %q or %q", model.RoleQuestioner, model.RoleAnswerer)
	}

	key := fmt.Sprintf("%s/%s/%s.mp4", ms.cfg.S3Prefix, sessionID, role)
	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}

	record := model.MediaRecord{
		SessionID:   sessionID,
		Role:        role,
		Key:         key,
		Bucket:      ms.cfg.S3Bucket,
		ContentType: contentType,
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	if ms.S3Enabled() {
		_, err = ms.s3Client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(ms.cfg.S3Bucket),
			Key:         aws.String(key),
			Body:        src,
			ContentType: aws.String(contentType),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to upload media to s3: %w", err)
		}
	} else {
		localPath := filepath.Join(ms.cfg.LocalMediaRoot, filepath.FromSlash(key))
		if err := writeStream(localPath, src); err != nil {
			return nil, err
		}
		record.LocalPath = localPath
		record.Bucket = ""
	}

	if err := ms.sessions.UpdateMedia(sessionID, role, record); err != nil {
		return nil, err
	}

	ms.log.Info("media saved", map[string]interface{}{
		"session_id": sessionID,
		"role":       role,
		"key":        key,
		"remote":     ms.S3Enabled(),
	})
	return &record, nil
}

// EnsureLocalPath returns a filesystem path for the record, downloading from
// S3 into the local cache when necessary. The cached path is patched back
// onto the session's media record.
func (ms *MediaStorage) EnsureLocalPath(ctx context.Context, record *model.MediaRecord) (string, error) {
	if record.LocalPath != "" {
		if _, err := os.Stat(record.LocalPath); err == nil {
			return record.LocalPath, nil
		}
	}
	if !ms.S3Enabled() {
		return "", ErrMediaUnavailable
	}
	if record.Bucket == "" || record.Key == "" {
		return "", fmt.Errorf("%w: media record missing bucket/key", ErrMediaUnavailable)
	}

	downloadPath := filepath.Join(ms.cfg.LocalMediaRoot, filepath.FromSlash(record.Key))
	out, err := ms.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(record.Bucket),
		Key:    aws.String(record.Key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to download media from s3: %w", err)
	}
	defer out.Body.Close()

	if err := writeStream(downloadPath, out.Body); err != nil {
		return "", err
	}

	record.LocalPath = downloadPath
	if err := ms.sessions.UpdateMediaPath(*record); err != nil {
		return "", err
	}
	return downloadPath, nil
}

func writeStream(dst string, src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create media file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("failed to write media file: %w", err)
	}
	return nil
}
