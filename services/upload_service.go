package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/nomadnotes/nomadnotes/config"
	"github.com/nomadnotes/nomadnotes/pkg"
)

// İzin verilen görsel uzantıları.
var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

type UploadService interface {
	// SaveImage, yüklenen dosyayı diske yazar ve servis URL'ini döner.
	SaveImage(file multipart.File, header *multipart.FileHeader) (string, error)
}

type uploadService struct {
	cfg config.UploadConfig
}

func NewUploadService(cfg config.UploadConfig) (UploadService, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload dir create failed: %w", err)
	}
	return &uploadService{cfg: cfg}, nil
}

func (s *uploadService) SaveImage(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > s.cfg.MaxSizeMB*1024*1024 {
		return "", pkg.Wrap(pkg.ErrBadRequest, fmt.Sprintf("file exceeds %d MB limit", s.cfg.MaxSizeMB))
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExts[ext] {
		return "", pkg.Wrap(pkg.ErrBadRequest, "unsupported image format")
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.cfg.Dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("upload file create failed: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("upload write failed: %w", err)
	}

	return s.cfg.ServePrefix + name, nil
}
