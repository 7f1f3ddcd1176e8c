package service

import (
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/campushq/records-api/internal/models"
)

// UploadFile is an incoming attachment stream with its original filename.
type UploadFile struct {
	Name   string
	Reader io.Reader
}

type attachmentStore interface {
	SaveStream(key string, r io.Reader) (string, error)
	Delete(key string) error
}

type linkSigner interface {
	Generate(key string) (string, time.Time, error)
}

// AttachmentManager stores uploaded files and mints signed download links.
// Keys are persisted on the owning record; URLs are generated per read and
// expire.
type AttachmentManager struct {
	store        attachmentStore
	signer       linkSigner
	downloadPath string
}

// NewAttachmentManager constructs an AttachmentManager. downloadPath is the
// route prefix the file handler serves tokens from.
func NewAttachmentManager(store attachmentStore, signer linkSigner, downloadPath string) *AttachmentManager {
	if downloadPath == "" {
		downloadPath = "/api/v1/files"
	}
	return &AttachmentManager{store: store, signer: signer, downloadPath: downloadPath}
}

// Save streams each file into storage under the prefix and returns the
// stored keys. Filenames are namespaced with a random ID to avoid clashes.
func (m *AttachmentManager) Save(prefix string, files []UploadFile) ([]string, error) {
	keys := make([]string, 0, len(files))
	for _, file := range files {
		key := path.Join(prefix, fmt.Sprintf("%s-%s", uuid.NewString(), path.Base(file.Name)))
		if _, err := m.store.SaveStream(key, file.Reader); err != nil {
			// Roll back files already written in this batch.
			for _, written := range keys {
				_ = m.store.Delete(written)
			}
			return nil, fmt.Errorf("store attachment %s: %w", file.Name, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Links mints signed download links for the given keys. Keys that fail to
// sign are skipped rather than failing the read.
func (m *AttachmentManager) Links(keys []string) []models.FileLink {
	if len(keys) == 0 {
		return nil
	}
	links := make([]models.FileLink, 0, len(keys))
	for _, key := range keys {
		token, expiresAt, err := m.signer.Generate(key)
		if err != nil {
			continue
		}
		links = append(links, models.FileLink{
			Key:       key,
			URL:       fmt.Sprintf("%s/%s", m.downloadPath, token),
			ExpiresAt: expiresAt,
		})
	}
	return links
}
