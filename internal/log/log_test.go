package log

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLog(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T, l *Log){
		"empty log rejects every read":        testEmptyLogRejectsReads,
		"append assigns sequential offsets":   testAppendAssignsOffsets,
		"read returns the appended payload":   testAppendRead,
		"caller supplied offset is discarded": testCallerOffsetDiscarded,
		"empty payload round trips":           testEmptyPayload,
		"reads are idempotent":                testReadIdempotent,
		"read results do not alias the log":   testReadDoesNotAlias,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t, New())
		})
	}
}

func testEmptyLogRejectsReads(t *testing.T, l *Log) {
	_, err := l.Read(0)
	require.Error(t, err)
	oor, ok := err.(ErrOffsetOutOfRange)
	require.True(t, ok)
	require.Equal(t, uint64(0), oor.Offset)
}

func testAppendAssignsOffsets(t *testing.T, l *Log) {
	payloads := [][]byte{[]byte("a"), []byte("bc"), {}}
	for i, p := range payloads {
		off := l.Append(Record{Value: p})
		require.Equal(t, uint64(i), off)
	}
	_, err := l.Read(uint64(len(payloads)))
	require.Error(t, err)
}

func testAppendRead(t *testing.T, l *Log) {
	payloads := [][]byte{[]byte("a"), []byte("bc"), []byte("hello world")}
	for _, p := range payloads {
		l.Append(Record{Value: p})
	}
	for i, want := range payloads {
		got, err := l.Read(uint64(i))
		require.NoError(t, err)
		require.Equal(t, want, got.Value)
		require.Equal(t, uint64(i), got.Offset)
	}
}

func testCallerOffsetDiscarded(t *testing.T, l *Log) {
	off := l.Append(Record{Value: []byte("first"), Offset: 999})
	require.Equal(t, uint64(0), off)

	got, err := l.Read(0)
	require.NoError(t, err)
	require.Equal(t, uint64(0), got.Offset)
}

func testEmptyPayload(t *testing.T, l *Log) {
	off := l.Append(Record{})
	require.Equal(t, uint64(0), off)

	got, err := l.Read(0)
	require.NoError(t, err)
	require.Empty(t, got.Value)
	require.Equal(t, uint64(0), got.Offset)
}

func testReadIdempotent(t *testing.T, l *Log) {
	l.Append(Record{Value: []byte("hello world")})

	first, err := l.Read(0)
	require.NoError(t, err)
	second, err := l.Read(0)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func testReadDoesNotAlias(t *testing.T, l *Log) {
	l.Append(Record{Value: []byte("hello")})

	got, err := l.Read(0)
	require.NoError(t, err)
	for i := range got.Value {
		got.Value[i] = 'x'
	}

	again, err := l.Read(0)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), again.Value)
}

func TestLogManyRecords(t *testing.T) {
	l := New()
	for i := 0; i < 1000; i++ {
		off := l.Append(Record{Value: []byte{byte(i)}})
		require.Equal(t, uint64(i), off)
	}
	for i := 0; i < 1000; i++ {
		got, err := l.Read(uint64(i))
		require.NoError(t, err, fmt.Sprintf("offset: %d", i))
		require.Equal(t, []byte{byte(i)}, got.Value)
		require.Equal(t, uint64(i), got.Offset)
	}
	_, err := l.Read(1000)
	require.Error(t, err)
}

func BenchmarkLogAppend(b *testing.B) {
	l := New()
	value := []byte("test")
	for i := 0; i < b.N; i++ {
		l.Append(Record{Value: value})
	}
}
