package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"mdmail/models"
	"mdmail/render"
	"mdmail/utils"
)

// Fixed artifact names inside the draft directory
const (
	MarkdownFile = "draft.md"
	HTMLFile     = "draft.html"
	MetadataFile = "draft.json"
)

// DraftStorage persists the single in-flight draft. There is no draft ID:
// every Write replaces the previous draft.
//
// The mutex serialises Write and Read within the process so a send never
// observes the markdown of one compose and the metadata of another. Each
// file is replaced by rename, so readers in other processes see whole
// files, but nothing orders writes across processes.
type DraftStorage struct {
	mu       sync.Mutex
	baseDir  string
	renderer *render.Renderer
}

// NewDraftStorage creates a new draft storage instance
func NewDraftStorage(baseDir string, renderer *render.Renderer) *DraftStorage {
	return &DraftStorage{
		baseDir:  baseDir,
		renderer: renderer,
	}
}

// Paths returns the locations of the three artifacts
func (ds *DraftStorage) Paths() models.DraftPaths {
	return models.DraftPaths{
		Markdown: filepath.Join(ds.baseDir, MarkdownFile),
		HTML:     filepath.Join(ds.baseDir, HTMLFile),
		Metadata: filepath.Join(ds.baseDir, MetadataFile),
	}
}

// Write renders markdown and stores it with its metadata, replacing any
// previous draft.
func (ds *DraftStorage) Write(markdown string, metadata *models.Metadata) (*models.Draft, error) {
	meta := *metadata
	meta.Normalize()

	rendered, err := ds.renderer.RenderDraft(markdown, &meta)
	if err != nil {
		return nil, err
	}

	// Serialize metadata
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal draft metadata: %w", err)
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	if err := os.MkdirAll(ds.baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create draft directory: %w", err)
	}

	paths := ds.Paths()
	if err := writeFileAtomic(paths.Markdown, []byte(markdown)); err != nil {
		return nil, fmt.Errorf("failed to write draft markdown: %w", err)
	}
	if err := writeFileAtomic(paths.HTML, []byte(rendered.HTML)); err != nil {
		return nil, fmt.Errorf("failed to write draft preview: %w", err)
	}
	if err := writeFileAtomic(paths.Metadata, data); err != nil {
		return nil, fmt.Errorf("failed to write draft metadata: %w", err)
	}

	utils.Log.Debug("Draft written to %s (%d inline images)", ds.baseDir, len(rendered.Images))

	return &models.Draft{
		Paths:   paths,
		Images:  rendered.Images,
		Skipped: rendered.Skipped,
	}, nil
}

// Read returns the stored markdown and metadata. It fails with a
// NoDraftError when either artifact is missing.
func (ds *DraftStorage) Read() (string, *models.Metadata, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	paths := ds.Paths()

	markdown, err := os.ReadFile(paths.Markdown)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, utils.NoDraftError("No draft found - compose an email first", err)
		}
		return "", nil, fmt.Errorf("failed to read draft markdown: %w", err)
	}

	data, err := os.ReadFile(paths.Metadata)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, utils.NoDraftError("No draft found - compose an email first", err)
		}
		return "", nil, fmt.Errorf("failed to read draft metadata: %w", err)
	}

	var meta models.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return "", nil, fmt.Errorf("failed to unmarshal draft metadata: %w", err)
	}
	meta.Normalize()

	return string(markdown), &meta, nil
}

// writeFileAtomic replaces path with data through a temporary file in the
// same directory.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
