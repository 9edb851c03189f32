package history

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_CapacityKeepsMostRecent(t *testing.T) {
	const capacity = 5
	for _, extra := range []int{0, 1, 3, 12} {
		t.Run(fmt.Sprintf("extra=%d", extra), func(t *testing.T) {
			b := New(capacity)
			total := capacity + extra
			for i := 0; i < total; i++ {
				require.NoError(t, b.Append(RoleUser, fmt.Sprintf("msg-%d", i)))
				assert.LessOrEqual(t, b.Len(), capacity)
			}

			turns := b.Turns()
			require.Len(t, turns, capacity)
			for i, turn := range turns {
				assert.Equal(t, fmt.Sprintf("msg-%d", total-capacity+i), turn.Text)
			}
		})
	}
}

func TestBuffer_FewerThanCapacity(t *testing.T) {
	b := New(5)
	require.NoError(t, b.Append(RoleUser, "a"))
	require.NoError(t, b.Append(RoleAssistant, "b"))
	assert.Equal(t, 2, b.Len())
}

func TestBuffer_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, New(0).Capacity())
	assert.Equal(t, DefaultCapacity, New(-3).Capacity())
}

func TestBuffer_RejectsUnknownRole(t *testing.T) {
	b := New(3)
	assert.Error(t, b.Append(Role("system"), "nope"))
	assert.Equal(t, 0, b.Len())
}

func TestBuffer_RenderPrompt(t *testing.T) {
	b := New(4)
	assert.Equal(t, "", b.RenderPrompt())

	require.NoError(t, b.Append(RoleUser, "How do I list files?"))
	require.NoError(t, b.Append(RoleAssistant, "Use `ls`."))
	require.NoError(t, b.Append(RoleUser, "Hidden ones too?"))

	want := "User: How do I list files?\nAssistant: Use `ls`.\nUser: Hidden ones too?"
	assert.Equal(t, want, b.RenderPrompt())
}

func TestBuffer_TurnsIsCopy(t *testing.T) {
	b := New(2)
	require.NoError(t, b.Append(RoleUser, "hello"))

	turns := b.Turns()
	turns[0].Text = "modified"
	assert.Equal(t, "hello", b.Turns()[0].Text)
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	b := Load(filepath.Join(t.TempDir(), "none.json"), 5)
	assert.Equal(t, 0, b.Len())
	assert.NotEmpty(t, b.SessionID())
}

func TestLoad_MalformedFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	b := Load(path, 5)
	assert.Equal(t, 0, b.Len())

	// The next append repairs the file
	require.NoError(t, b.Append(RoleUser, "hi"))
	assert.Equal(t, 1, Load(path, 5).Len())
}

func TestLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	b := Load(path, 5)
	require.NoError(t, b.Append(RoleUser, "question"))
	require.NoError(t, b.Append(RoleAssistant, "answer"))

	reloaded := Load(path, 5)
	assert.Equal(t, b.Turns(), reloaded.Turns())
	assert.Equal(t, b.SessionID(), reloaded.SessionID())
	assert.Equal(t, b.RenderPrompt(), reloaded.RenderPrompt())
}

func TestLoad_TrimsToCapacityAndDropsUnknownRoles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	content := `{"session_id":"s1","turns":[
		{"role":"user","text":"1"},
		{"role":"system","text":"ignored"},
		{"role":"assistant","text":"2"},
		{"role":"user","text":"3"},
		{"role":"assistant","text":"4"}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	b := Load(path, 2)
	require.Len(t, b.Turns(), 2)
	assert.Equal(t, "3", b.Turns()[0].Text)
	assert.Equal(t, "4", b.Turns()[1].Text)
	assert.Equal(t, "s1", b.SessionID())
}

func TestBuffer_Reset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	b := Load(path, 3)
	require.NoError(t, b.Append(RoleUser, "hi"))
	before := b.SessionID()

	require.NoError(t, b.Reset())
	assert.Equal(t, 0, b.Len())
	assert.NotEqual(t, before, b.SessionID())

	reloaded := Load(path, 3)
	assert.Equal(t, 0, reloaded.Len())
	assert.Equal(t, b.SessionID(), reloaded.SessionID())
}

func TestBuffer_InMemorySaveIsNoop(t *testing.T) {
	b := New(3)
	assert.NoError(t, b.Save())
	assert.Equal(t, "", b.Path())
}
