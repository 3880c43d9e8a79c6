package analysis

import (
	"errors"

	"github.com/imishinist/perfreport/internal/models"
	timeutils "github.com/imishinist/perfreport/internal/time"
)

// ErrEmptyInput is returned when an operation needs at least one record to
// anchor on.
var ErrEmptyInput = errors.New("empty input")

// Bucket is the set of records whose timestamp falls in one second of the
// test. Offset is 1-based; StartMs is the wall-clock start of the second.
type Bucket struct {
	Offset  int
	StartMs int64
	Records []models.Record
}

// span returns the first and last unix second touched by records.
func span(records []models.Record) (int64, int64, error) {
	if len(records) == 0 {
		return 0, 0, ErrEmptyInput
	}
	first := timeutils.FloorSecond(records[0].TimestampMs)
	last := first
	for _, r := range records[1:] {
		s := timeutils.FloorSecond(r.TimestampMs)
		if s < first {
			first = s
		}
		if s > last {
			last = s
		}
	}
	return first, last, nil
}

// Duration is the number of whole seconds spanned by records, counting both
// the first and the last second.
func Duration(records []models.Record) (int, error) {
	first, last, err := span(records)
	if err != nil {
		return 0, err
	}
	return int(last-first) + 1, nil
}

// BucketBySecond partitions records into one bucket per second between the
// earliest and the latest record, inclusive. Seconds without traffic yield
// an empty bucket so that per-second series stay dense. Records keep their
// input order within a bucket.
func BucketBySecond(records []models.Record) ([]Bucket, error) {
	first, last, err := span(records)
	if err != nil {
		return nil, err
	}

	buckets := make([]Bucket, last-first+1)
	for i := range buckets {
		buckets[i] = Bucket{
			Offset:  i + 1,
			StartMs: (first + int64(i)) * 1000,
		}
	}
	for _, r := range records {
		idx := timeutils.FloorSecond(r.TimestampMs) - first
		buckets[idx].Records = append(buckets[idx].Records, r)
	}
	return buckets, nil
}
