package dispatch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetBufferSizesCorrectly(t *testing.T) {
	cases := []uint32{1, size128k, size128k + 1, size1m, size1m + 1, size16m, size16m + 1}
	for _, size := range cases {
		buf := GetBuffer(size)
		require.Len(t, buf, int(size))
		PutBuffer(buf)
	}
}

func TestDefaultThreadCountAtLeastOne(t *testing.T) {
	require.GreaterOrEqual(t, DefaultThreadCount(), 1)
}
