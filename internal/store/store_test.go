package store

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "store"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	return s
}

func TestStore_Token(t *testing.T) {
	s := newTestStore(t)

	_, ok := s.Token()
	assert.False(t, ok)

	require.NoError(t, s.SetToken("tok-123"))
	tok, ok := s.Token()
	require.True(t, ok)
	assert.Equal(t, "tok-123", tok)

	assert.Error(t, s.SetToken(""))
}

func TestStore_ClearTokenKeepsBuffers(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetToken("tok-123"))
	sess := s.Session("tok-123")
	require.NoError(t, sess.SaveLive("1", "101", "print(1)"))

	require.NoError(t, s.ClearToken())
	require.NoError(t, s.ClearToken())

	_, ok := s.Token()
	assert.False(t, ok)
	text, ok := sess.LoadLive("1", "101")
	require.True(t, ok)
	assert.Equal(t, "print(1)", text)
}

func TestStore_EntriesAreZstdFrames(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetToken("plain-text-token"))

	var found bool
	err := filepath.WalkDir(s.Dir(), func(path string, d os.DirEntry, err error) error {
		require.NoError(t, err)
		if d.IsDir() {
			return nil
		}
		found = true
		data, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		require.GreaterOrEqual(t, len(data), 4)
		assert.Equal(t, []byte{0x28, 0xb5, 0x2f, 0xfd}, data[:4], "zstd frame magic")
		return nil
	})
	require.NoError(t, err)
	assert.True(t, found)
}

func TestSession_NamespacesAreDisjoint(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetToken("tok"))
	sess := s.Session("tok")

	require.NoError(t, sess.SaveLive("vac-1", "t1", "contest code"))
	require.NoError(t, sess.SetActiveContest("vac-1"))

	live, ok := sess.LoadLive("vac-1", "t1")
	require.True(t, ok)
	assert.Equal(t, "contest code", live)

	_, ok = sess.LoadLive("vac-1", "t2")
	assert.False(t, ok)
	_, ok = sess.LoadLive("vac-2", "t1")
	assert.False(t, ok, "contest buffers are keyed by contest and task")

	// Same key, different namespace.
	_, ok = s.get(sess.dir(NamespaceSession), NamespaceSession, liveKey("vac-1", "t1"))
	assert.False(t, ok)
	_, ok = s.get(sess.dir(NamespaceContest), NamespaceContest, tokenKey)
	assert.False(t, ok)
}

func TestSession_ScopedByToken(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Session("alice").SaveLive("v", "t", "alice code"))

	_, ok := s.Session("bob").LoadLive("v", "t")
	assert.False(t, ok)

	code, ok := s.Session("alice").LoadLive("v", "t")
	require.True(t, ok)
	assert.Equal(t, "alice code", code)
}

func TestSession_ActiveContest(t *testing.T) {
	s := newTestStore(t)
	sess := s.Session("tok")

	_, ok := sess.ActiveContest()
	assert.False(t, ok)
	require.NoError(t, sess.SetActiveContest("vac-7"))
	id, ok := sess.ActiveContest()
	require.True(t, ok)
	assert.Equal(t, "vac-7", id)
}

func TestSession_Clear(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetToken("tok"))
	sess := s.Session("tok")
	require.NoError(t, sess.SaveLive("v", "t", "code"))
	require.NoError(t, sess.SetActiveContest("v"))
	require.NoError(t, s.Session("other").SaveLive("v", "t", "other code"))

	require.NoError(t, sess.Clear())
	require.NoError(t, sess.Clear())

	_, ok := sess.LoadLive("v", "t")
	assert.False(t, ok)
	_, ok = sess.ActiveContest()
	assert.False(t, ok)

	tok, ok := s.Token()
	require.True(t, ok, "the token is cleared separately")
	assert.Equal(t, "tok", tok)
	code, ok := s.Session("other").LoadLive("v", "t")
	require.True(t, ok)
	assert.Equal(t, "other code", code)
}

func TestSession_ClearRefusesForeignFiles(t *testing.T) {
	s := newTestStore(t)
	sess := s.Session("tok")
	require.NoError(t, sess.SaveLive("v", "t", "code"))
	notes := filepath.Join(sess.root, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("mine"), 0644))

	err := sess.Clear()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to delete")
	_, statErr := os.Stat(notes)
	assert.NoError(t, statErr)
	code, ok := sess.LoadLive("v", "t")
	require.True(t, ok)
	assert.Equal(t, "code", code)
}

func TestSession_ClearMissingDir(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "never-created"))
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck
	assert.NoError(t, s.Session("tok").Clear())
}

func TestStore_Disabled(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	require.NoError(t, s.SetToken("tok"))
	_, ok := s.Token()
	assert.False(t, ok)
	assert.NoError(t, s.Session("tok").Clear())
}

func TestStore_ConcurrentWrites(t *testing.T) {
	s := newTestStore(t)
	sess := s.Session("tok")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, sess.SaveLive("v", "t", "code"))
		}()
	}
	wg.Wait()

	code, ok := sess.LoadLive("v", "t")
	require.True(t, ok)
	assert.Equal(t, "code", code)
}
