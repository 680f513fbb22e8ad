package web

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/coinfolio/internal/domain"
	"github.com/vadiminshakov/coinfolio/internal/events"
)

type memoryStore struct {
	mu      sync.Mutex
	records []domain.ValueSnapshotRecord
}

func (m *memoryStore) add(s domain.ValueSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, domain.ValueSnapshotRecord{Index: uint64(len(m.records) + 1), Snapshot: s})
}

func (m *memoryStore) SnapshotsAfter(index uint64) ([]domain.ValueSnapshotRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index >= uint64(len(m.records)) {
		return nil, nil
	}
	out := make([]domain.ValueSnapshotRecord, len(m.records)-int(index))
	copy(out, m.records[index:])
	return out, nil
}

func snapshot(value int64) domain.ValueSnapshot {
	return domain.NewValueSnapshot(time.Unix(1700000000, 0).UTC(), decimal.NewFromInt(100), decimal.NewFromInt(value))
}

func TestServer_Values(t *testing.T) {
	store := &memoryStore{}
	store.add(snapshot(110))
	store.add(snapshot(120))

	srv := httptest.NewServer(NewServer("", store, nil, zap.NewNop()).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/values")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []domain.ValueSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 2)
	assert.True(t, got[1].Value.Equal(decimal.NewFromInt(120)))
	assert.True(t, got[1].GainPercent.Equal(decimal.NewFromInt(20)))
}

func TestServer_Index(t *testing.T) {
	srv := httptest.NewServer(NewServer("", &memoryStore{}, nil, zap.NewNop()).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	missing, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestServer_NoStore(t *testing.T) {
	srv := httptest.NewServer(NewServer("", nil, nil, zap.NewNop()).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/values/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func readEvent(t *testing.T, r *bufio.Reader) domain.ValueSnapshot {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var s domain.ValueSnapshot
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &s))
		return s
	}
}

func TestServer_StreamBacklogThenPush(t *testing.T) {
	store := &memoryStore{}
	store.add(snapshot(105))
	broadcaster := events.NewValueBroadcaster(4)

	server := NewServer("", store, broadcaster, zap.NewNop())
	server.PollInterval = time.Hour
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/values/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	first := readEvent(t, reader)
	assert.True(t, first.Value.Equal(decimal.NewFromInt(105)))

	next := snapshot(130)
	store.add(next)
	broadcaster.Publish(next)

	second := readEvent(t, reader)
	assert.True(t, second.Value.Equal(decimal.NewFromInt(130)))
}

func TestParseLastEventID(t *testing.T) {
	assert.Equal(t, uint64(7), parseLastEventID(" 7 ", "3"))
	assert.Equal(t, uint64(3), parseLastEventID("", "3"))
	assert.Equal(t, uint64(0), parseLastEventID("", ""))
	assert.Equal(t, uint64(0), parseLastEventID("abc", ""))
}

func TestThinRecords(t *testing.T) {
	records := make([]domain.ValueSnapshotRecord, 400)
	for i := range records {
		records[i] = domain.ValueSnapshotRecord{Index: uint64(i + 1)}
	}

	assert.Len(t, thinRecords(records[:fullHistory]), fullHistory)

	thinned := thinRecords(records)
	require.Less(t, len(thinned), len(records))
	require.Greater(t, len(thinned), fullHistory)
	assert.Equal(t, records[len(records)-fullHistory:], thinned[len(thinned)-fullHistory:])
	for i := 1; i < len(thinned); i++ {
		assert.Less(t, thinned[i-1].Index, thinned[i].Index)
	}
}

func TestServer_StreamResumesAfterLastEventID(t *testing.T) {
	store := &memoryStore{}
	store.add(snapshot(101))
	store.add(snapshot(102))
	store.add(snapshot(103))

	srv := httptest.NewServer(NewServer("", store, nil, zap.NewNop()).Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/values/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Last-Event-ID", "2")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	first := readEvent(t, bufio.NewReader(resp.Body))
	assert.True(t, first.Value.Equal(decimal.NewFromInt(103)))
}
