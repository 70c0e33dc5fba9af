package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor(t *testing.T) {
	key := Key("server-secret")

	cursor, err := EncodeCursor(key, 42)
	require.NoError(t, err)

	seq, err := DecodeCursor(key, cursor)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), seq)

	seq, err = DecodeCursor(key, "")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), seq)
}

func TestCursorRejectsTamperingAndForeignKeys(t *testing.T) {
	key := Key("server-secret")
	cursor, err := EncodeCursor(key, 7)
	require.NoError(t, err)

	_, err = DecodeCursor(Key("other-secret"), cursor)
	assert.Error(t, err)

	tampered := []byte(cursor)
	if tampered[len(tampered)-1] == 'A' {
		tampered[len(tampered)-1] = 'B'
	} else {
		tampered[len(tampered)-1] = 'A'
	}
	_, err = DecodeCursor(key, string(tampered))
	assert.Error(t, err)

	_, err = DecodeCursor(key, "not base64!")
	assert.Error(t, err)

	short, err := Encrypt(key, []byte("abc"))
	require.NoError(t, err)
	_, err = DecodeCursor(key, short)
	assert.Error(t, err)
}
