package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemDBRoundTrip(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	require.NoError(t, db.Put([]byte("stable/debt/abc"), []byte{0x01}))

	value, err := db.Get([]byte("stable/debt/abc"))
	require.NoError(t, err)
	require.Equal(t, []byte{0x01}, value)
}

func TestMemDBMissingKey(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	_, err := db.Get([]byte("absent"))
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestMemDBCopiesValues(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	original := []byte{0x01, 0x02}
	require.NoError(t, db.Put([]byte("k"), original))
	original[0] = 0xff

	value, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02}, value)
}

func TestLevelDBRoundTrip(t *testing.T) {
	db, err := NewLevelDB(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Put([]byte("k"), []byte("v")))

	value, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), value)

	_, err = db.Get([]byte("missing"))
	require.True(t, errors.Is(err, ErrNotFound))
}
