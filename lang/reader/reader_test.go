package reader_test

import (
	"testing"

	"github.com/atjhc/sif-sub001/lang/reader"
	"github.com/stretchr/testify/require"
)

func TestStringReaderServesOnce(t *testing.T) {
	r := reader.NewStringReader([]byte("set x to 1\n"))
	require.True(t, r.Readable())

	buf, err := r.ReadMore(0)
	require.NoError(t, err)
	require.Equal(t, "set x to 1\n", string(buf))
	require.False(t, r.Readable())
}

func TestEmptyStringReaderIsNeverReadable(t *testing.T) {
	r := reader.NewStringReader(nil)
	require.False(t, r.Readable())
}
