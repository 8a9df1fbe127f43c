package bgzf

import (
	"bytes"
	"encoding/binary"
	"io/ioutil"
	"math/rand"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter(t *testing.T) {
	r := rand.New(rand.NewSource(0))
	for _, length := range []int{0, 1, 100, DefaultBlockSize - 1, DefaultBlockSize, DefaultBlockSize + 1, 500000} {
		input := make([]byte, length)
		r.Read(input)

		var buf bytes.Buffer
		w, err := NewWriter(&buf, 1)
		require.NoError(t, err)
		n, err := w.Write(input)
		require.NoError(t, err)
		assert.Equal(t, length, n)
		require.NoError(t, w.Close())
		assert.True(t, bytes.HasSuffix(buf.Bytes(), eofMarker), "length %d", length)

		zr, err := gzip.NewReader(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		actual, err := ioutil.ReadAll(zr)
		require.NoError(t, err)
		assert.Equal(t, length, len(actual))
		assert.True(t, bytes.Equal(input, actual), "length %d", length)

		// Walk the members through their BSIZE fields.
		b := buf.Bytes()
		members := 0
		for off := 0; off < len(b); members++ {
			require.True(t, off+extraOffset+len(extra) <= len(b))
			require.Equal(t, extraPrefix, b[off+extraOffset:off+extraOffset+len(extraPrefix)])
			off += int(binary.LittleEndian.Uint16(b[off+extraOffset+4:])) + 1
			require.True(t, off <= len(b))
		}
		assert.Equal(t, (length+DefaultBlockSize-1)/DefaultBlockSize+1, members, "length %d", length)
	}
}

func TestWriterBlockSize(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriterSize(&buf, 1, 5)
	require.NoError(t, err)

	_, err = w.Write([]byte("ABCD"))
	require.NoError(t, err)
	assert.Equal(t, 0, buf.Len())

	// The fifth byte completes a member.
	_, err = w.Write([]byte("E"))
	require.NoError(t, err)
	memberLen := buf.Len()
	assert.True(t, memberLen > 0)

	_, err = w.Write([]byte("F"))
	require.NoError(t, err)
	assert.Equal(t, memberLen, buf.Len())

	require.NoError(t, w.Close())
	_, err = w.Write([]byte("G"))
	assert.Error(t, err)

	zr, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	got, err := ioutil.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "ABCDEF", string(got))
}

func TestNewWriterSize(t *testing.T) {
	_, err := NewWriterSize(ioutil.Discard, 1, 0)
	assert.Error(t, err)
	_, err = NewWriterSize(ioutil.Discard, 1, MaxBlockSize+1)
	assert.Error(t, err)
	_, err = NewWriterSize(ioutil.Discard, 1, MaxBlockSize)
	assert.NoError(t, err)
}
