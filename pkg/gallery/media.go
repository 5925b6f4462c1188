package gallery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MediaStore persists downloaded asset bytes into the local gallery
// directory and hands back an opaque locator for each saved file. The
// locator is only valid for the single save operation; nothing else
// should be read into it.
type MediaStore struct {
	dir string
}

// NewMediaStore creates a store rooted at dir, creating it if needed
func NewMediaStore(dir string) (*MediaStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create gallery directory %s: %w", dir, err)
	}
	return &MediaStore{dir: dir}, nil
}

// Save writes bytes under a sanitized file name and returns the
// locator of the saved file. When the name has no extension, one is
// inferred from the MIME type. Name collisions get a short unique
// suffix instead of overwriting an earlier asset.
func (s *MediaStore) Save(data []byte, fileName, mimeType string) (string, error) {
	name := sanitizeFileName(fileName)
	if name == "" {
		name = "asset"
	}
	if filepath.Ext(name) == "" {
		name += extensionForMime(mimeType)
	}

	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err == nil {
		ext := filepath.Ext(name)
		base := strings.TrimSuffix(name, ext)
		path = filepath.Join(s.dir, fmt.Sprintf("%s_%s%s", base, uuid.NewString()[:8], ext))
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save asset %s: %w", name, err)
	}
	return path, nil
}

// Dir returns the gallery root directory
func (s *MediaStore) Dir() string {
	return s.dir
}

// sanitizeFileName strips path separators and other characters that
// could escape the gallery directory
func sanitizeFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), ".")
}

func extensionForMime(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "audio/mpeg":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	default:
		return ".bin"
	}
}
