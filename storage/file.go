package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"fairprice/models"
)

// FileSource reads a statistics snapshot from a YAML file. JSON files are
// accepted too since YAML is a superset.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (f *FileSource) Load(_ context.Context) (*models.StatisticsSnapshot, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("file: read %s: %w", f.Path, err)
	}
	var snap models.StatisticsSnapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("file: decode %s: %w", f.Path, err)
	}
	return &snap, nil
}

// WriteSnapshotFile writes snap as YAML, creating parent directories.
func WriteSnapshotFile(path string, snap *models.StatisticsSnapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("file: create output dir: %w", err)
	}
	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("file: encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("file: write %s: %w", path, err)
	}
	return nil
}
