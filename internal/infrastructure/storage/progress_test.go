package storage

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressReader_NeverMovesBackwards(t *testing.T) {
	var reports []int64
	r := newProgressReader([]byte("0123456789"), func(sent, total int64) {
		assert.EqualValues(t, 10, total)
		reports = append(reports, sent)
	})

	buf := make([]byte, 4)
	_, err := r.Read(buf)
	require.NoError(t, err)

	_, err = r.Seek(0, io.SeekStart)
	require.NoError(t, err)

	all, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(all))

	r.finish()
	assert.Equal(t, []int64{4, 10}, reports)
}
