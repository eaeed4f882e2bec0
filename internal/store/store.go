// Package store persists client-side session state on disk: the login
// token and, per login, the contest editor buffers and the active contest.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Namespace separates kinds of stored values. Contest buffers never share a
// namespace with anything else.
type Namespace string

const (
	NamespaceAuth    Namespace = "auth"
	NamespaceContest Namespace = "contest"
	NamespaceSession Namespace = "session"
)

const (
	sessionsDir = "sessions"
	entryExt    = ".json.zst"
	tokenKey    = "token"
	contestKey  = "active_contest"
)

// entry is the on-disk record.
type entry struct {
	Namespace Namespace `json:"namespace"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is a file-backed key/value store. Every entry is a zstd-compressed
// JSON file named by the hash of its key.
type Store struct {
	dir string
	mu  sync.Mutex
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// New opens a store rooted at dir. An empty dir gives a store that keeps
// nothing.
func New(dir string) (*Store, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return &Store{dir: dir, enc: enc, dec: dec}, nil
}

// Dir returns the root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Close releases the codec resources.
func (s *Store) Close() error {
	s.dec.Close()
	return s.enc.Close()
}

// Token returns the saved login token.
func (s *Store) Token() (string, bool) {
	return s.get(filepath.Join(s.dir, string(NamespaceAuth)), NamespaceAuth, tokenKey)
}

// SetToken saves the login token.
func (s *Store) SetToken(token string) error {
	if token == "" {
		return errors.New("token is empty")
	}
	return s.put(filepath.Join(s.dir, string(NamespaceAuth)), NamespaceAuth, tokenKey, token)
}

// ClearToken forgets the saved login token. The session directory is left
// alone; use Session.Clear for that.
func (s *Store) ClearToken() error {
	if s.dir == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(entryPath(filepath.Join(s.dir, string(NamespaceAuth)), tokenKey))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing token: %w", err)
	}
	return nil
}

// Session returns the view of the store scoped to one login token.
func (s *Store) Session(token string) *Session {
	sum := sha256.Sum256([]byte(token))
	return &Session{store: s, root: filepath.Join(s.dir, sessionsDir, hex.EncodeToString(sum[:8]))}
}

// clearDir removes dir. It refuses to touch a directory that contains
// files the store did not write.
func (s *Store) clearDir(dir string) error {
	if s.dir == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(d.Name(), entryExt) || strings.HasSuffix(d.Name(), entryExt+".tmp") {
			return nil
		}
		return fmt.Errorf("store directory contains foreign file %s - refusing to delete for safety", path)
	})
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

func (s *Store) get(dir string, ns Namespace, key string) (string, bool) {
	if s.dir == "" {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(entryPath(dir, key))
	if err != nil {
		return "", false
	}
	data, err := s.dec.DecodeAll(raw, nil)
	if err != nil {
		return "", false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil || e.Namespace != ns || e.Key != key {
		return "", false
	}
	return e.Value, true
}

func (s *Store) put(dir string, ns Namespace, key, value string) error {
	if s.dir == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	data, err := json.Marshal(entry{Namespace: ns, Key: key, Value: value, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshaling entry: %w", err)
	}

	path := entryPath(dir, key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, s.enc.EncodeAll(data, nil), 0600); err != nil {
		return fmt.Errorf("writing store entry: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing store entry: %w", err)
	}
	return nil
}

func entryPath(dir, key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(dir, hex.EncodeToString(sum[:])+entryExt)
}

// Session is the part of the store owned by one login.
type Session struct {
	store *Store
	root  string
}

func (s *Session) dir(ns Namespace) string {
	return filepath.Join(s.root, string(ns))
}

// Clear drops everything stored for this login: editor buffers and the
// active contest.
func (s *Session) Clear() error {
	if err := s.store.clearDir(s.root); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// LoadLive returns the saved editor buffer of a contest task.
func (s *Session) LoadLive(contestID, taskID string) (string, bool) {
	return s.store.get(s.dir(NamespaceContest), NamespaceContest, liveKey(contestID, taskID))
}

// SaveLive stores the editor buffer of a contest task.
func (s *Session) SaveLive(contestID, taskID, text string) error {
	return s.store.put(s.dir(NamespaceContest), NamespaceContest, liveKey(contestID, taskID), text)
}

// ActiveContest returns the contest the last `contest open` selected.
func (s *Session) ActiveContest() (string, bool) {
	return s.store.get(s.dir(NamespaceSession), NamespaceSession, contestKey)
}

// SetActiveContest remembers the selected contest.
func (s *Session) SetActiveContest(contestID string) error {
	return s.store.put(s.dir(NamespaceSession), NamespaceSession, contestKey, contestID)
}

func liveKey(contestID, taskID string) string {
	return contestID + "\x00" + taskID
}
