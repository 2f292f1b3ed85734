package artifact

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailexport/pkg/export"
	"mailexport/pkg/mailbox"
	"mailexport/pkg/retry"
)

func TestFilenameDeterministic(t *testing.T) {
	store := NewStore(t.TempDir())
	msg := testMessage()

	first := store.Filename("abc123@example.com", msg.Envelope.Date)
	second := store.Filename("abc123@example.com", msg.Envelope.Date)
	assert.Equal(t, first, second)
	assert.Regexp(t, `^context-20230102\d{6}-[0-9a-f]{8}\.json$`, first)

	// Different messages at the same instant get different names
	other := store.Filename("other@example.com", msg.Envelope.Date)
	assert.NotEqual(t, first, other)
}

func TestWriteAndRewrite(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	msg := testMessage()
	rec := BuildRecord("abc123@example.com", msg)

	path, err := store.Write(rec, msg)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "email", decoded["type"])
	assert.Equal(t, "abc123@example.com", decoded["message_id"])
	assert.Equal(t, "Quarterly report", decoded["subject"])
	assert.Contains(t, decoded["transcription"], "=== EMAIL MESSAGE ===")

	// Rewriting the same message lands on the same file
	again, err := store.Write(rec, msg)
	require.NoError(t, err)
	assert.Equal(t, path, again)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "rewrite must not leave extra files")
}

// fakeFetcher serves canned messages by UID
type fakeFetcher struct {
	messages map[uint32]*mailbox.Message
	calls    int
}

func (f *fakeFetcher) FetchMessage(uid uint32) (*mailbox.Message, error) {
	f.calls++
	msg, ok := f.messages[uid]
	if !ok {
		return nil, os.ErrNotExist
	}
	return msg, nil
}

func TestProcessor(t *testing.T) {
	fetcher := &fakeFetcher{messages: map[uint32]*mailbox.Message{42: testMessage()}}
	store := NewStore(t.TempDir())
	processor := NewProcessor(fetcher, store, &retry.Config{MaxAttempts: 1, Backoff: &retry.ConstantBackoff{}})

	item := export.Item{
		ID:       "abc123@example.com",
		Metadata: map[string]string{"uid": "42"},
	}

	artifact, err := processor.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, item.ID, artifact.ItemID)
	assert.FileExists(t, artifact.Path)
}

func TestProcessorRejectsBadItems(t *testing.T) {
	processor := NewProcessor(&fakeFetcher{}, NewStore(t.TempDir()), &retry.Config{MaxAttempts: 1, Backoff: &retry.ConstantBackoff{}})

	t.Run("MissingUID", func(t *testing.T) {
		_, err := processor.Process(context.Background(), export.Item{ID: "x", Metadata: map[string]string{}})
		assert.Error(t, err)
	})

	t.Run("MalformedUID", func(t *testing.T) {
		_, err := processor.Process(context.Background(), export.Item{ID: "x", Metadata: map[string]string{"uid": "forty-two"}})
		assert.Error(t, err)
	})

	t.Run("FetchFailure", func(t *testing.T) {
		_, err := processor.Process(context.Background(), export.Item{ID: "x", Metadata: map[string]string{"uid": "7"}})
		assert.Error(t, err)
	})
}
