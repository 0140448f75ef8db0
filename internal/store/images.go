package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// ImageStore keeps one image file per scene under an app-private
// directory, named by scene id. The directory is created lazily on the
// first save. Image bytes are written only here; the scene collection
// blob never contains them.
type ImageStore struct {
	dir string
}

// NewImageStore returns a store rooted at dir.
func NewImageStore(dir string) *ImageStore {
	return &ImageStore{dir: dir}
}

// Path returns the file path for a scene's image.
func (s *ImageStore) Path(sceneID string) string {
	return filepath.Join(s.dir, sceneID+".jpg")
}

// Save writes the image bytes for a scene.
func (s *ImageStore) Save(sceneID string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create images directory: %w", err)
	}
	if err := os.WriteFile(s.Path(sceneID), data, 0644); err != nil {
		return fmt.Errorf("failed to save image for scene %s: %w", sceneID, err)
	}
	return nil
}

// Load reads the image bytes for a scene.
func (s *ImageStore) Load(sceneID string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(sceneID))
	if err != nil {
		return nil, fmt.Errorf("failed to read image for scene %s: %w", sceneID, err)
	}
	return data, nil
}

// Delete removes a scene's image file; a missing file is not an error.
func (s *ImageStore) Delete(sceneID string) error {
	err := os.Remove(s.Path(sceneID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image for scene %s: %w", sceneID, err)
	}
	return nil
}
