package server

import (
	"sync"

	"github.com/andrwkng/recordlog/internal/log"
	"github.com/andrwkng/recordlog/internal/metrics"
)

// CommitLog is the log surface the front-ends are written against.
type CommitLog interface {
	Append(log.Record) (uint64, error)
	Read(uint64) (log.Record, error)
}

// NewCommitLog wraps l for shared use by the servers. The log does no
// locking of its own, so the wrapper owns the serialization: appends take
// the write lock, reads the read lock.
func NewCommitLog(l *log.Log) CommitLog {
	return &sharedLog{log: l}
}

type sharedLog struct {
	mu  sync.RWMutex
	log *log.Log
}

func (s *sharedLog) Append(record log.Record) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	offset := s.log.Append(record)
	metrics.AppendsTotal.Inc()
	metrics.AppendedBytesTotal.Add(float64(len(record.Value)))
	metrics.Records.Set(float64(offset + 1))
	return offset, nil
}

func (s *sharedLog) Read(offset uint64) (log.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	metrics.ReadsTotal.Inc()
	record, err := s.log.Read(offset)
	if err != nil {
		metrics.ReadErrorsTotal.Inc()
		return log.Record{}, err
	}
	return record, nil
}
