package filecrate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelts/filecrate"
)

func TestExpectedPartCount(t *testing.T) {
	tests := []struct {
		name      string
		totalSize int64
		want      int
		wantErr   bool
	}{
		{name: "one byte", totalSize: 1, want: 1},
		{name: "just under one part", totalSize: filecrate.PartSize - 1, want: 1},
		{name: "exactly one part", totalSize: filecrate.PartSize, want: 1},
		{name: "one byte over one part", totalSize: filecrate.PartSize + 1, want: 2},
		{name: "25 MiB is three parts", totalSize: 25 * 1024 * 1024, want: 3},
		{name: "exactly ten parts", totalSize: 10 * filecrate.PartSize, want: 10},
		{name: "zero size", totalSize: 0, wantErr: true},
		{name: "negative size", totalSize: -1, wantErr: true},
		{name: "over part count limit", totalSize: filecrate.PartSize*filecrate.MaxPartCount + 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := filecrate.ExpectedPartCount(tt.totalSize)
			if tt.wantErr {
				assert.ErrorIs(t, err, filecrate.ErrInvalidInput)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPartRanges(t *testing.T) {
	t.Run("ranges cover the size exactly", func(t *testing.T) {
		totalSize := int64(25 * 1024 * 1024)

		ranges, err := filecrate.PartRanges(totalSize)
		require.NoError(t, err)
		require.Len(t, ranges, 3)

		var covered int64
		for i, r := range ranges {
			assert.Equal(t, i+1, r.PartNumber)
			assert.Equal(t, covered, r.Offset)
			covered += r.Length
		}
		assert.Equal(t, totalSize, covered)

		assert.Equal(t, filecrate.PartSize, ranges[0].Length)
		assert.Equal(t, filecrate.PartSize, ranges[1].Length)
		assert.Equal(t, int64(5*1024*1024), ranges[2].Length)
	})

	t.Run("single short part", func(t *testing.T) {
		ranges, err := filecrate.PartRanges(100)
		require.NoError(t, err)
		require.Len(t, ranges, 1)
		assert.Equal(t, 1, ranges[0].PartNumber)
		assert.Equal(t, int64(0), ranges[0].Offset)
		assert.Equal(t, int64(100), ranges[0].Length)
	})

	t.Run("invalid size", func(t *testing.T) {
		_, err := filecrate.PartRanges(0)
		assert.ErrorIs(t, err, filecrate.ErrInvalidInput)
	})
}
