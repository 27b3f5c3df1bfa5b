package store

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/tailored-agentic-units/intake/session"
)

const fileExt = ".json"

type fileStore struct {
	root string
	mu   sync.RWMutex
}

// NewFileStore creates a Store that keeps one JSON document per session under
// root. Writes go through a temp file and rename so a crash never leaves a
// partially written session.
func NewFileStore(root string) (Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("file store root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create file store root: %w", err)
	}
	return &fileStore{root: filepath.Clean(root)}, nil
}

func (s *fileStore) Create(ctx context.Context, sess *session.Session) error {
	if err := checkRecord(sess); err != nil {
		return err
	}
	path, err := s.path(sess.ID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, sess.ID)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%w: %s: %v", ErrLoadFailed, sess.ID, err)
	}
	return s.write(path, sess)
}

func (s *fileStore) Get(ctx context.Context, id string) (*session.Session, bool, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %s: %v", ErrLoadFailed, id, err)
	}
	return sess, true, nil
}

func (s *fileStore) Update(ctx context.Context, sess *session.Session) error {
	if err := checkRecord(sess); err != nil {
		return err
	}
	path, err := s.path(sess.ID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, sess.ID)
		}
		return fmt.Errorf("%w: %s: %v", ErrLoadFailed, sess.ID, err)
	}
	return s.write(path, sess)
}

func (s *fileStore) List(ctx context.Context) ([]*session.Session, error) {
	return s.collect(func(*session.Session) bool { return true })
}

func (s *fileStore) ListByStatus(ctx context.Context, status session.Status) ([]*session.Session, error) {
	return s.collect(func(sess *session.Session) bool { return sess.Status == status })
}

func (s *fileStore) CountByStatus(ctx context.Context) (map[session.Status]int, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	counts := emptyCounts()
	for _, sess := range all {
		counts[sess.Status]++
	}
	return counts, nil
}

func (s *fileStore) Close() error {
	return nil
}

func (s *fileStore) collect(keep func(*session.Session) bool) ([]*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	var out []*session.Session
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
			continue
		}
		sess, err := s.read(filepath.Join(s.root, name))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, name, err)
		}
		if keep(sess) {
			out = append(out, sess)
		}
	}

	slices.SortFunc(out, func(a, b *session.Session) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *fileStore) path(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("%w: unusable session id %q", ErrInvalid, id)
	}
	return filepath.Join(s.root, id+fileExt), nil
}

func (s *fileStore) read(path string) (*session.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	if sess.Responses == nil {
		sess.Responses = []session.PatientResponse{}
	}
	return &sess, nil
}

func (s *fileStore) write(path string, sess *session.Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, sess.ID, err)
	}

	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, sess.ID, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, sess.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, sess.ID, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, sess.ID, err)
	}
	return nil
}
