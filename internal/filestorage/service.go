// File: internal/filestorage/service.go
package filestorage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Kind names a category of stored file. Each kind has its own sub-directory
// and extension whitelist.
type Kind string

const (
	KindPhoto          Kind = "photos"
	KindCV             Kind = "cvs"
	KindBarCertificate Kind = "certificates"
)

var allowedExtensions = map[Kind][]string{
	KindPhoto:          {".jpg", ".jpeg", ".png", ".webp"},
	KindCV:             {".pdf", ".doc", ".docx"},
	KindBarCertificate: {".pdf", ".jpg", ".jpeg", ".png"},
}

// inferred extensions for uploads that arrive without one.
var extensionByContentType = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// Service stores uploaded files on local disk and resolves their public URLs.
type Service struct {
	storagePath   string
	publicBaseURL string
	logger        *zap.Logger
}

// NewService creates a file storage service rooted at storagePath.
func NewService(storagePath, publicBaseURL string, logger *zap.Logger) (*Service, error) {
	if storagePath == "" {
		return nil, fmt.Errorf("storage path cannot be empty")
	}
	if err := os.MkdirAll(storagePath, os.ModePerm); err != nil {
		logger.Error("Failed to create storage path directory", zap.String("path", storagePath), zap.Error(err))
		return nil, fmt.Errorf("failed to create storage path %s: %w", storagePath, err)
	}
	logger.Info("File storage initialized", zap.String("storagePath", storagePath))
	return &Service{storagePath: storagePath, publicBaseURL: publicBaseURL, logger: logger}, nil
}

// Save writes a multipart upload under the kind's sub-directory with a unique
// name. Returns the storage key (e.g. "photos/uuid.jpg").
func (s *Service) Save(fileHeader *multipart.FileHeader, kind Kind) (string, error) {
	if fileHeader == nil {
		return "", fmt.Errorf("fileHeader cannot be nil")
	}
	allowed, ok := allowedExtensions[kind]
	if !ok {
		return "", fmt.Errorf("unknown file kind %q", kind)
	}

	extension := strings.ToLower(filepath.Ext(filepath.Base(fileHeader.Filename)))
	if extension == "" {
		contentType := fileHeader.Header.Get("Content-Type")
		extension = extensionByContentType[contentType]
	}
	if !extensionAllowed(extension, allowed) {
		return "", fmt.Errorf("unsupported file type %q for %s (allowed: %s)",
			extension, kind, strings.Join(allowed, ", "))
	}

	src, err := fileHeader.Open()
	if err != nil {
		s.logger.Error("Failed to open uploaded file", zap.Error(err))
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	destinationDir := filepath.Join(s.storagePath, string(kind))
	if err := os.MkdirAll(destinationDir, os.ModePerm); err != nil {
		s.logger.Error("Failed to create sub-directory for file storage", zap.String("path", destinationDir), zap.Error(err))
		return "", fmt.Errorf("failed to create directory %s: %w", destinationDir, err)
	}

	uniqueFilename := uuid.New().String() + extension
	destinationPath := filepath.Join(destinationDir, uniqueFilename)

	dst, err := os.Create(destinationPath)
	if err != nil {
		s.logger.Error("Failed to create destination file", zap.String("path", destinationPath), zap.Error(err))
		return "", fmt.Errorf("failed to create file %s: %w", destinationPath, err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		s.logger.Error("Failed to copy uploaded file to destination", zap.String("path", destinationPath), zap.Error(err))
		os.Remove(destinationPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	key := filepath.ToSlash(filepath.Join(string(kind), uniqueFilename))
	s.logger.Info("File saved", zap.String("key", key))
	return key, nil
}

// Replace stores the new upload and deletes the previous file for the field,
// if any. The delete failure is logged, not propagated: the new reference is
// already durable at that point.
func (s *Service) Replace(fileHeader *multipart.FileHeader, kind Kind, oldKey string) (string, error) {
	key, err := s.Save(fileHeader, kind)
	if err != nil {
		return "", err
	}
	if oldKey != "" && oldKey != key {
		if err := s.Delete(oldKey); err != nil {
			s.logger.Warn("Failed to delete replaced file", zap.String("key", oldKey), zap.Error(err))
		}
	}
	return key, nil
}

// Delete removes a stored file by key.
func (s *Service) Delete(key string) error {
	if key == "" {
		return fmt.Errorf("storage key cannot be empty")
	}

	cleanKey := filepath.Clean(key)
	if strings.Contains(cleanKey, "..") {
		s.logger.Warn("Attempt to delete file with path traversal", zap.String("key", key))
		return fmt.Errorf("invalid file key for deletion")
	}

	fullPath := filepath.Join(s.storagePath, cleanKey)
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		s.logger.Warn("Attempt to delete non-existent file", zap.String("path", fullPath))
		return nil
	}

	if err := os.Remove(fullPath); err != nil {
		s.logger.Error("Failed to delete file", zap.String("path", fullPath), zap.Error(err))
		return fmt.Errorf("failed to delete file %s: %w", fullPath, err)
	}
	return nil
}

// Exists reports whether a stored file is present for the key.
func (s *Service) Exists(key string) bool {
	if key == "" {
		return false
	}
	cleanKey := filepath.Clean(key)
	if strings.Contains(cleanKey, "..") {
		return false
	}
	_, err := os.Stat(filepath.Join(s.storagePath, cleanKey))
	return err == nil
}

// URL resolves the public URL for a storage key.
func (s *Service) URL(key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimSuffix(s.publicBaseURL, "/") + "/" + strings.TrimPrefix(key, "/")
}

func extensionAllowed(ext string, allowed []string) bool {
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}
