package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/campushq/records-api/internal/models"
	"github.com/campushq/records-api/pkg/mailer"
)

// memStore keeps saved attachment bytes in memory.
type memStore struct {
	saved   map[string][]byte
	deleted []string
	failOn  string
}

func newMemStore() *memStore {
	return &memStore{saved: make(map[string][]byte)}
}

func (s *memStore) SaveStream(key string, r io.Reader) (string, error) {
	if s.failOn != "" && strings.Contains(key, s.failOn) {
		return "", fmt.Errorf("disk full")
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return "", err
	}
	s.saved[key] = buf.Bytes()
	return key, nil
}

func (s *memStore) Delete(key string) error {
	s.deleted = append(s.deleted, key)
	delete(s.saved, key)
	return nil
}

// staticSigner mints deterministic download tokens.
type staticSigner struct {
	err error
}

func (s staticSigner) Generate(key string) (string, time.Time, error) {
	if s.err != nil {
		return "", time.Time{}, s.err
	}
	return "tok-" + key, time.Now().UTC().Add(15 * time.Minute), nil
}

func newTestAttachments(store *memStore) *AttachmentManager {
	return NewAttachmentManager(store, staticSigner{}, "/api/v1/files")
}

func uploads(names ...string) []UploadFile {
	files := make([]UploadFile, 0, len(names))
	for _, name := range names {
		files = append(files, UploadFile{Name: name, Reader: strings.NewReader("content of " + name)})
	}
	return files
}

// recordingNotifier captures dispatched notification events.
type recordingNotifier struct {
	events     []mailer.Event
	recipients []string
	data       []map[string]string
}

func (n *recordingNotifier) Notify(event mailer.Event, recipient string, data map[string]string) {
	n.events = append(n.events, event)
	n.recipients = append(n.recipients, recipient)
	n.data = append(n.data, data)
}

// userStore is a map-backed user repository stub.
type userStore struct {
	users map[string]*models.User
}

func newUserStore(users ...*models.User) *userStore {
	s := &userStore{users: make(map[string]*models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *userStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (s *userStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *userStore) Create(ctx context.Context, user *models.User) error {
	s.users[user.ID] = user
	return nil
}

func (s *userStore) Update(ctx context.Context, user *models.User) error {
	s.users[user.ID] = user
	return nil
}

func (s *userStore) Deactivate(ctx context.Context, id string) error {
	u, ok := s.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Active = false
	return nil
}

// studentStore is a map-backed student repository stub keyed by student ID.
type studentStore struct {
	details map[string]*models.StudentDetail
	regNos  map[string]bool
	created []*models.Student
}

func newStudentStore(details ...*models.StudentDetail) *studentStore {
	s := &studentStore{details: make(map[string]*models.StudentDetail), regNos: make(map[string]bool)}
	for _, d := range details {
		s.details[d.ID] = d
		s.regNos[d.RegistrationNumber] = true
	}
	return s
}

func (s *studentStore) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	var out []models.StudentDetail
	for _, d := range s.details {
		out = append(out, *d)
	}
	return out, len(out), nil
}

func (s *studentStore) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	d, ok := s.details[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return d, nil
}

func (s *studentStore) FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	for _, d := range s.details {
		if d.UserID == userID {
			return d, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *studentStore) ExistsByRegistrationNumber(ctx context.Context, regNo string) (bool, error) {
	return s.regNos[regNo], nil
}

func (s *studentStore) Create(ctx context.Context, student *models.Student) error {
	s.created = append(s.created, student)
	s.details[student.ID] = &models.StudentDetail{Student: *student}
	s.regNos[student.RegistrationNumber] = true
	return nil
}

func (s *studentStore) Update(ctx context.Context, student *models.Student) error {
	d, ok := s.details[student.ID]
	if !ok {
		return sql.ErrNoRows
	}
	d.Student = *student
	return nil
}
