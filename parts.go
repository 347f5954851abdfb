package filecrate

import "fmt"

// PartSize is the fixed multipart chunk size. Every part of a transfer is
// exactly this many bytes except the final, possibly shorter one. The fixed
// size bounds peak buffer usage per part and lets parts travel concurrently,
// at the cost of per-part ETag bookkeeping.
const PartSize int64 = 10 * 1024 * 1024

// MaxPartCount mirrors the S3 protocol limit of 10,000 parts per upload.
const MaxPartCount = 10000

// ExpectedPartCount returns ceil(totalSize / PartSize).
// It returns an error for non-positive sizes and for sizes that would exceed
// the protocol's part count limit.
func ExpectedPartCount(totalSize int64) (int, error) {
	if totalSize <= 0 {
		return 0, fmt.Errorf("expected part count: total size %d: %w", totalSize, ErrInvalidInput)
	}

	count := (totalSize + PartSize - 1) / PartSize
	if count > MaxPartCount {
		return 0, fmt.Errorf("expected part count: %d parts exceeds limit %d: %w", count, MaxPartCount, ErrInvalidInput)
	}
	return int(count), nil
}

// PartRanges splits [0, totalSize) into contiguous part byte ranges, one per
// expected part, 1-based and ascending. The ranges cover the size exactly:
// no gaps, no overlaps.
func PartRanges(totalSize int64) ([]PartRange, error) {
	count, err := ExpectedPartCount(totalSize)
	if err != nil {
		return nil, err
	}

	ranges := make([]PartRange, 0, count)
	for n := 1; n <= count; n++ {
		offset := int64(n-1) * PartSize
		length := min(PartSize, totalSize-offset)
		ranges = append(ranges, PartRange{PartNumber: n, Offset: offset, Length: length})
	}
	return ranges, nil
}
