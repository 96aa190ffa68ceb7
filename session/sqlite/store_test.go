package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuribarsotti/agentlab/core"
)

var _ core.SessionStore = (*Store)(nil)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()

	s, err := Open(path, func(o *Options) { o.Table = "clinic_sessions" })
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	store := openTestStore(t, path)

	_, err := store.Create("s1", "ana")
	require.NoError(t, err)

	require.NoError(t, store.AppendEvent("s1", core.NewUserMessageEvent("r1", "I need an appointment")))
	require.NoError(t, store.AppendEvent("s1", core.NewMessageEvent("clinic", "Sure, what is your name?")))

	partial := core.NewMessageEvent("clinic", "Sure")
	isPartial := true
	partial.Partial = &isPartial
	require.NoError(t, store.AppendEvent("s1", partial))

	require.NoError(t, store.ApplyDelta("s1", map[string]any{"name": "Ana", "age": 31}))
	require.NoError(t, store.ApplyDelta("s1", map[string]any{"age": nil}))
	require.NoError(t, store.Close())

	reopened := openTestStore(t, path)

	sess, err := reopened.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "ana", sess.UserID)
	require.Len(t, sess.Events, 2)
	assert.Equal(t, "I need an appointment", sess.Events[0].Text())
	assert.Equal(t, "clinic", sess.Events[1].Author)

	name, ok := sess.GetState("name")
	assert.True(t, ok)
	assert.Equal(t, "Ana", name)

	_, ok = sess.GetState("age")
	assert.False(t, ok)
}

func TestStore_NotFoundAndList(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "sessions.db"))

	_, err := store.Get("nope")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
	assert.ErrorIs(t, store.AppendEvent("nope", core.NewMessageEvent("a", "x")), core.ErrSessionNotFound)
	assert.ErrorIs(t, store.ApplyDelta("nope", map[string]any{"k": 1}), core.ErrSessionNotFound)

	_, err = store.Create("a", "u1")
	require.NoError(t, err)
	_, err = store.Create("b", "u2")
	require.NoError(t, err)

	ids, err := store.List("u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)

	ids, err = store.List("")
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	require.NoError(t, store.Delete("a"))
	_, err = store.Get("a")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}

func TestStore_RejectsBadTable(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "x.db"), func(o *Options) { o.Table = "bad name" })
	assert.Error(t, err)
}
