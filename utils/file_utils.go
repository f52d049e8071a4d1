package utils

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

const (
	// Base directory for storing uploaded files
	uploadBaseDir = "uploads"
	// Base URL for serving files
	baseURL = "/uploads"
	// Maximum file size (5MB)
	maxFileSize = 5 * 1024 * 1024
	// Profile images are resized down to this width
	profileImageWidth = 256
)

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// cleanFilename removes any potentially dangerous characters from the filename
func cleanFilename(filename string) string {
	filename = filepath.Base(filename)
	reg := regexp.MustCompile(`[^a-zA-Z0-9.-]`)
	return reg.ReplaceAllString(filename, "")
}

// ValidateImageFile checks size and extension of an uploaded image
func ValidateImageFile(filename string, size int64) error {
	if size > maxFileSize {
		return fmt.Errorf("file too large. Maximum size is %d bytes", maxFileSize)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExts[ext] {
		return fmt.Errorf("unsupported image format. Allowed formats: jpg, jpeg, png, gif")
	}
	return nil
}

// InitializeStorage creates necessary directories for file storage
func InitializeStorage() error {
	dirs := []string{
		uploadBaseDir,
		filepath.Join(uploadBaseDir, "profiles"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
	}
	return nil
}

// SaveProfileImage decodes an uploaded avatar, scales it down to a fixed
// width and stores it under uploads/profiles, returning the public URL.
func SaveProfileImage(fileData []byte, filename string) (string, error) {
	if err := ValidateImageFile(cleanFilename(filename), int64(len(fileData))); err != nil {
		return "", err
	}

	if err := InitializeStorage(); err != nil {
		return "", err
	}

	img, err := imaging.Decode(bytes.NewReader(fileData))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %v", err)
	}

	// Height 0 preserves the aspect ratio
	resized := imaging.Resize(img, profileImageWidth, 0, imaging.Lanczos)

	name := fmt.Sprintf("%d-%s.jpg", time.Now().UnixNano(), strings.TrimSuffix(cleanFilename(filename), filepath.Ext(filename)))
	fullPath := filepath.Join(uploadBaseDir, "profiles", name)

	if err := imaging.Save(resized, fullPath, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("failed to save image: %v", err)
	}

	return fmt.Sprintf("%s/profiles/%s", baseURL, name), nil
}

// RemoveUploadedFile deletes a previously stored upload by its public URL
func RemoveUploadedFile(publicURL string) error {
	if !strings.HasPrefix(publicURL, baseURL+"/") {
		return fmt.Errorf("not an uploaded file: %s", publicURL)
	}
	rel := cleanRelativePath(strings.TrimPrefix(publicURL, baseURL+"/"))
	return os.Remove(filepath.Join(uploadBaseDir, rel))
}

func cleanRelativePath(p string) string {
	return filepath.Clean(strings.ReplaceAll(p, "..", ""))
}
