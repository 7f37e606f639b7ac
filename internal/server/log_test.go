package server

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/andrwkng/recordlog/internal/log"
	"github.com/andrwkng/recordlog/internal/metrics"
)

func TestCommitLog(t *testing.T) {
	clog := NewCommitLog(log.New())

	_, err := clog.Read(0)
	require.Error(t, err)

	for i := 0; i < 3; i++ {
		off, err := clog.Append(log.Record{Value: []byte("record")})
		require.NoError(t, err)
		require.Equal(t, uint64(i), off)
	}

	record, err := clog.Read(1)
	require.NoError(t, err)
	require.Equal(t, uint64(1), record.Offset)
	require.Equal(t, []byte("record"), record.Value)

	_, err = clog.Read(3)
	require.Error(t, err)
	_, ok := err.(log.ErrOffsetOutOfRange)
	require.True(t, ok)
}

func TestCommitLogConcurrent(t *testing.T) {
	clog := NewCommitLog(log.New())

	const writers = 4
	const perWriter = 100

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				clog.Append(log.Record{Value: []byte("concurrent")})
			}
		}()
	}
	wg.Wait()

	for off := uint64(0); off < writers*perWriter; off++ {
		record, err := clog.Read(off)
		require.NoError(t, err)
		require.Equal(t, off, record.Offset)
	}
	_, err := clog.Read(writers * perWriter)
	require.Error(t, err)
}

func TestCommitLogMetrics(t *testing.T) {
	clog := NewCommitLog(log.New())

	appends := testutil.ToFloat64(metrics.AppendsTotal)
	reads := testutil.ToFloat64(metrics.ReadsTotal)
	readErrors := testutil.ToFloat64(metrics.ReadErrorsTotal)

	_, err := clog.Append(log.Record{Value: []byte("counted")})
	require.NoError(t, err)
	_, err = clog.Read(0)
	require.NoError(t, err)
	_, err = clog.Read(1)
	require.Error(t, err)

	require.Equal(t, appends+1, testutil.ToFloat64(metrics.AppendsTotal))
	require.Equal(t, reads+2, testutil.ToFloat64(metrics.ReadsTotal))
	require.Equal(t, readErrors+1, testutil.ToFloat64(metrics.ReadErrorsTotal))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Records))
}
