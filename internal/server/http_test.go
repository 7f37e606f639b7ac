package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andrwkng/recordlog/internal/log"
)

func TestHTTPServer(t *testing.T) {
	for scenario, fn := range map[string]func(
		t *testing.T,
		srv *httptest.Server,
	){
		"produce/consume a record round-trips": testHTTPProduceConsume,
		"consume past the head returns 404":    testHTTPConsumePastHead,
		"malformed produce body returns 400":   testHTTPBadRequest,
	} {
		t.Run(scenario, func(t *testing.T) {
			server := NewHTTPServer(":0", NewCommitLog(log.New()))
			srv := httptest.NewServer(server.Handler)
			defer srv.Close()
			fn(t, srv)
		})
	}
}

func testHTTPProduceConsume(t *testing.T, srv *httptest.Server) {
	want := []byte("hello world")

	body, err := json.Marshal(ProduceRequest{
		Record: log.Record{Value: want},
	})
	require.NoError(t, err)

	res, err := srv.Client().Post(
		srv.URL,
		"application/json",
		bytes.NewReader(body),
	)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var produce ProduceResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&produce))
	require.Equal(t, uint64(0), produce.Offset)

	body, err = json.Marshal(ConsumeRequest{Offset: produce.Offset})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, srv.URL, bytes.NewReader(body))
	require.NoError(t, err)
	res, err = srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var consume ConsumeResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&consume))
	require.Equal(t, want, consume.Record.Value)
	require.Equal(t, produce.Offset, consume.Record.Offset)
}

func testHTTPConsumePastHead(t *testing.T, srv *httptest.Server) {
	body, err := json.Marshal(ConsumeRequest{Offset: 0})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, srv.URL, bytes.NewReader(body))
	require.NoError(t, err)
	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func testHTTPBadRequest(t *testing.T, srv *httptest.Server) {
	res, err := srv.Client().Post(
		srv.URL,
		"application/json",
		strings.NewReader("{"),
	)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}
