package services

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chachabrian/carpool-backend/internal/config"
)

// MaxUploadBytes caps a single uploaded file.
const MaxUploadBytes = 10 << 20

var folderPattern = regexp.MustCompile(`^[a-z0-9_-]{1,32}$`)

// Storage keeps profile, license, insurance, vehicle and child images in
// S3 when a bucket is configured and on local disk otherwise.
type Storage struct {
	uploader  *s3manager.Uploader
	bucket    string
	region    string
	uploadDir string
	baseURL   string
}

func NewStorage(cfg config.StorageConfig, baseURL string, logger *zap.Logger) (*Storage, error) {
	st := &Storage{uploadDir: cfg.UploadDir, baseURL: baseURL}

	if cfg.S3Bucket != "" && cfg.S3Region != "" {
		// Credentials come from the standard AWS chain.
		sess, err := session.NewSession(&aws.Config{Region: aws.String(cfg.S3Region)})
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS session: %w", err)
		}
		st.uploader = s3manager.NewUploader(sess)
		st.bucket = cfg.S3Bucket
		st.region = cfg.S3Region
		logger.Info("using s3 storage", zap.String("bucket", cfg.S3Bucket))
		return st, nil
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	logger.Warn("s3 not configured, using local file storage", zap.String("dir", cfg.UploadDir))
	return st, nil
}

func (s *Storage) UsingS3() bool { return s.uploader != nil }

// ValidFolder reports whether folder is safe to use as a key prefix.
func ValidFolder(folder string) bool {
	return folderPattern.MatchString(folder)
}

// Upload stores the file under folder and returns its public URL.
func (s *Storage) Upload(file *multipart.FileHeader, folder string) (string, error) {
	if !ValidFolder(folder) {
		return "", fmt.Errorf("invalid folder %q", folder)
	}
	if file.Size > MaxUploadBytes {
		return "", fmt.Errorf("file too large")
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	buffer := bytes.NewBuffer(nil)
	if _, err := io.Copy(buffer, io.LimitReader(src, MaxUploadBytes)); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	name := uuid.NewString() + filepath.Ext(file.Filename)
	if s.UsingS3() {
		return s.uploadToS3(buffer.Bytes(), folder+"/"+name)
	}
	return s.uploadLocally(buffer.Bytes(), folder, name)
}

func (s *Storage) uploadToS3(body []byte, key string) (string, error) {
	_, err := s.uploader.Upload(&s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(http.DetectContentType(body)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

func (s *Storage) uploadLocally(body []byte, folder, name string) (string, error) {
	folderPath := filepath.Join(s.uploadDir, folder)
	if err := os.MkdirAll(folderPath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create folder directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(folderPath, name), body, 0o644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return fmt.Sprintf("%s/uploads/%s/%s", s.baseURL, folder, name), nil
}
