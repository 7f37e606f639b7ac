package log

import "fmt"

// Record is a single entry in the log: an opaque payload and the offset
// the log assigned to it. The offset on a record passed to Append is
// ignored; the log always numbers records itself.
type Record struct {
	Value  []byte `json:"value"`
	Offset uint64 `json:"offset"`
}

// Log is an append-only, in-memory sequence of records addressed by
// offset. Offsets are dense: the record at position i has offset i, so
// the next append always receives the current length.
//
// A Log is not safe for concurrent use. It is owned by whoever created
// it; callers that share one across goroutines serialize access
// themselves (see the server package's CommitLog wrapper).
type Log struct {
	records []Record
}

// New returns an empty log. The first append is assigned offset 0.
func New() *Log {
	return &Log{}
}

// Append adds record at the end of the log and returns the offset it was
// assigned, which is the length of the log before the append. Whatever
// offset the caller set on the record is overwritten. The log takes
// ownership of the payload; the caller must not modify it afterward.
func (l *Log) Append(record Record) uint64 {
	record.Offset = uint64(len(l.records))
	l.records = append(l.records, record)
	return record.Offset
}

// Read returns a copy of the record stored at the given offset. The
// returned record's payload is independent of the log's storage, so
// callers may modify it freely. Reading at or past the current length
// fails with ErrOffsetOutOfRange.
func (l *Log) Read(offset uint64) (Record, error) {
	if offset >= uint64(len(l.records)) {
		return Record{}, ErrOffsetOutOfRange{Offset: offset}
	}
	record := l.records[offset]
	record.Value = append([]byte(nil), record.Value...)
	return record, nil
}

// ErrOffsetOutOfRange is returned by Read when the requested offset is at
// or past the end of the log. It is the log's only error.
type ErrOffsetOutOfRange struct {
	Offset uint64
}

func (e ErrOffsetOutOfRange) Error() string {
	return fmt.Sprintf("offset out of range: %d", e.Offset)
}
