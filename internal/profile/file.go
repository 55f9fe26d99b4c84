package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ashureev/insurance-a2a/internal/domain"
	"gopkg.in/yaml.v3"
)

// FileBackend stores the profile as JSON, or YAML for .yaml/.yml paths.
type FileBackend struct {
	path string
}

// NewFileBackend creates a backend for path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (f *FileBackend) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(f.path))
	return ext == ".yaml" || ext == ".yml"
}

// Load reads and decodes the profile file.
func (f *FileBackend) Load(_ context.Context) (domain.UserProfile, error) {
	var p domain.UserProfile
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, ErrNoProfile
	}
	if err != nil {
		return p, fmt.Errorf("read %s: %w", f.path, err)
	}
	if f.isYAML() {
		err = yaml.Unmarshal(data, &p)
	} else {
		err = json.Unmarshal(data, &p)
	}
	if err != nil {
		return p, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return p, nil
}

// Save writes the profile through a temp file and rename.
func (f *FileBackend) Save(_ context.Context, p domain.UserProfile) error {
	var (
		data []byte
		err  error
	)
	if f.isYAML() {
		data, err = yaml.Marshal(p)
	} else {
		data, err = json.MarshalIndent(p, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create profile directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".profile-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}
