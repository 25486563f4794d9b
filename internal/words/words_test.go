package words

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schlajo/Grouple-Bot/internal/game"
)

func TestLoad_BuiltinList(t *testing.T) {
	list, err := Load("", time.Now().UnixNano())
	require.NoError(t, err)
	assert.Equal(t, len(defaultWords), list.Len())
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.json")
	require.NoError(t, os.WriteFile(path, []byte(`["crane","  pizza ","x1","ab","ELEPHANT"]`), 0o644))

	list, err := Load(path, 1)
	require.NoError(t, err)
	// "x1" and "ab" fail validation and are dropped.
	assert.Equal(t, 3, list.Len())
}

func TestLoad_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.json")
	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o644))

	_, err := Load(path, 1)
	assert.Error(t, err)
}

func TestLoad_AllInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.json")
	require.NoError(t, os.WriteFile(path, []byte(`["a1","zz"]`), 0o644))

	_, err := Load(path, 1)
	assert.ErrorIs(t, err, ErrEmptyList)
}

func TestList_Pick(t *testing.T) {
	list, err := Load("", 42)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		word, err := list.Pick()
		require.NoError(t, err)
		assert.NoError(t, game.ValidateWord(word))
	}
}
