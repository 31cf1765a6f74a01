package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LogoStore persists plan logos on local disk and hands back a stable
// reference (the stored filename). The reference is what gets persisted on
// the plan; resolving it back to bytes goes through Open.
type LogoStore struct {
	baseDir string
}

func NewLogoStore(baseDir string) (*LogoStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("logo store: %w", err)
	}
	return &LogoStore{baseDir: baseDir}, nil
}

// Save writes the logo bytes under a fresh name and returns the reference.
// ext should include the leading dot (".png"); it is sanitized to a known
// set of image extensions.
func (s *LogoStore) Save(data []byte, ext string) (string, error) {
	ext = strings.ToLower(ext)
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp", ".svg":
	default:
		ext = ".png"
	}
	ref := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.baseDir, ref), data, 0o644); err != nil {
		return "", fmt.Errorf("logo store: %w", err)
	}
	return ref, nil
}

// Open returns the stored logo bytes for a reference.
func (s *LogoStore) Open(ref string) ([]byte, error) {
	// The ref is generated by Save; reject anything trying to escape the dir.
	if ref != filepath.Base(ref) {
		return nil, fmt.Errorf("logo store: invalid reference %q", ref)
	}
	return os.ReadFile(filepath.Join(s.baseDir, ref))
}

// Remove deletes a stored logo. Missing files are not an error.
func (s *LogoStore) Remove(ref string) error {
	if ref != filepath.Base(ref) {
		return fmt.Errorf("logo store: invalid reference %q", ref)
	}
	err := os.Remove(filepath.Join(s.baseDir, ref))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
