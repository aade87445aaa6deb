package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"idea-stack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "last_analysis.json")
	store := NewSnapshotStore(path)

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoSnapshot)

	saved := Snapshot{
		InputText: "https://www.youtube.com/@gophers",
		LastResult: &models.AnalysisResult{
			ChannelInfo: &models.ChannelInfo{ChannelID: "UC1", ChannelName: "Gophers"},
			VideoIdeas:  []models.VideoIdea{{Title: "t", ThumbnailDesign: "d", VideoIdea: "i"}},
		},
		SavedAt: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(saved))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, saved.InputText, loaded.InputText)
	assert.Equal(t, "Gophers", loaded.LastResult.ChannelInfo.ChannelName)
	assert.Equal(t, saved.SavedAt, loaded.SavedAt)
	assert.Empty(t, loaded.LastError)
}

func TestSnapshotStoreOverwritesWithError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_analysis.json")
	store := NewSnapshotStore(path)

	require.NoError(t, store.Save(Snapshot{InputText: "first", LastResult: &models.AnalysisResult{}}))
	require.NoError(t, store.Save(Snapshot{InputText: "second", LastError: "Channel not found"}))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "second", loaded.InputText)
	assert.Nil(t, loaded.LastResult)
	assert.Equal(t, "Channel not found", loaded.LastError)
	assert.False(t, loaded.SavedAt.IsZero(), "SavedAt is stamped when unset")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestSnapshotStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_analysis.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewSnapshotStore(path).Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSnapshot)
}
