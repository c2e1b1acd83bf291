package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/tsqlgen/query/translation"
)

type sink struct {
	mu      sync.Mutex
	batches [][]Event
	agents  []string
}

func (s *sink) handler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Events []Event `json:"events"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.batches = append(s.batches, body.Events)
	s.agents = append(s.agents, r.UserAgent())
	s.mu.Unlock()
	w.WriteHeader(http.StatusAccepted)
}

func (s *sink) events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []Event
	for _, b := range s.batches {
		all = append(all, b...)
	}
	return all
}

func TestCollectorCounters(t *testing.T) {
	c := New(true)
	c.RecordCompile("People", "offsetfetch", time.Millisecond, nil)
	c.RecordCompile("People", "offsetfetch", time.Millisecond, translation.UnsupportedMember("Length"))
	c.RecordCompile("People", "nopaging", time.Millisecond, translation.UnsupportedArgument("Skip"))
	c.RecordCompile("People", "nopaging", time.Millisecond, translation.UnsupportedArgument("Take"))
	c.RecordExecute(time.Millisecond, nil)
	c.RecordExecute(time.Millisecond, errors.New("deadlock"))

	s := c.Snapshot()
	assert.Equal(t, 1, s.Compiled)
	assert.Equal(t, 3, s.CompileFailed)
	assert.Equal(t, 1, s.Executed)
	assert.Equal(t, 1, s.ExecuteFailed)
	assert.Equal(t, map[string]int{"unsupported_member": 1, "unsupported_argument": 2}, s.ErrorKinds)

	s.ErrorKinds["unsupported_member"] = 99
	assert.Equal(t, 1, c.Snapshot().ErrorKinds["unsupported_member"], "snapshot is a copy")
}

func TestCollectorDisabled(t *testing.T) {
	c := New(false)
	assert.False(t, c.Enabled())
	c.RecordCompile("People", "offsetfetch", time.Millisecond, nil)
	assert.Zero(t, c.Snapshot().Compiled)
	require.NoError(t, c.Flush(context.Background()))

	var nilCollector *Collector
	assert.False(t, nilCollector.Enabled())
	nilCollector.RecordExecute(time.Millisecond, nil)
	assert.Empty(t, nilCollector.Snapshot().ErrorKinds)
	assert.NoError(t, nilCollector.Shutdown(context.Background()))
}

func TestCollectorDisabledByEnv(t *testing.T) {
	t.Setenv(DisableEnv, "true")
	assert.False(t, New(true).Enabled())
}

func TestCollectorFlush(t *testing.T) {
	s := &sink{}
	srv := httptest.NewServer(http.HandlerFunc(s.handler))
	defer srv.Close()

	c := New(true, WithEndpoint(srv.URL), WithVersion("1.2.3"), WithBatchSize(100), WithFlushInterval(time.Hour))
	c.RecordCompile("People", "rownumber", 2*time.Millisecond, nil)
	c.RecordCompile("People", "rownumber", time.Millisecond, translation.UnsupportedOperator("GroupBy"))
	c.RecordExecute(3*time.Millisecond, nil)

	require.NoError(t, c.Flush(context.Background()))

	events := s.events()
	require.Len(t, events, 3)
	assert.Equal(t, EventCompile, events[0].EventType)
	assert.Equal(t, "People", events[0].Table)
	assert.Equal(t, "rownumber", events[0].Paging)
	assert.Equal(t, "1.2.3", events[0].Version)
	assert.NotEmpty(t, events[0].OS)
	assert.Equal(t, "unsupported_operator", events[1].ErrorKind)
	assert.Contains(t, events[1].Error, "GroupBy")
	assert.Equal(t, EventExecute, events[2].EventType)
	require.NotNil(t, events[2].Duration)
	assert.Equal(t, 3*time.Millisecond, *events[2].Duration)
	assert.Equal(t, []string{"tsqlgen/1.2.3"}, s.agents)

	// nothing buffered
	require.NoError(t, c.Flush(context.Background()))
	assert.Len(t, s.batches, 1)

	require.NoError(t, c.Shutdown(context.Background()))
}

func TestCollectorBatchFlush(t *testing.T) {
	s := &sink{}
	srv := httptest.NewServer(http.HandlerFunc(s.handler))
	defer srv.Close()

	c := New(true, WithEndpoint(srv.URL), WithBatchSize(2), WithFlushInterval(time.Hour))
	c.RecordExecute(time.Millisecond, nil)
	c.RecordExecute(time.Millisecond, nil)

	assert.Eventually(t, func() bool { return len(s.events()) == 2 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, c.Shutdown(context.Background()))
}

func TestCollectorShutdownWaitsForBatchFlush(t *testing.T) {
	s := &sink{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		s.handler(w, r)
	}))
	defer srv.Close()

	c := New(true, WithEndpoint(srv.URL), WithBatchSize(2), WithFlushInterval(time.Hour))
	c.RecordExecute(time.Millisecond, nil)
	c.RecordExecute(time.Millisecond, nil)
	require.NoError(t, c.Shutdown(context.Background()))

	assert.Len(t, s.events(), 2)
}

func TestCollectorShutdownFlushes(t *testing.T) {
	s := &sink{}
	srv := httptest.NewServer(http.HandlerFunc(s.handler))
	defer srv.Close()

	c := New(true, WithEndpoint(srv.URL), WithFlushInterval(time.Hour))
	c.RecordExecute(time.Millisecond, nil)
	require.NoError(t, c.Shutdown(context.Background()))
	require.NoError(t, c.Shutdown(context.Background()))

	assert.Len(t, s.events(), 1)
}

func TestCollectorEndpointError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(true, WithEndpoint(srv.URL), WithFlushInterval(time.Hour))
	c.RecordExecute(time.Millisecond, nil)
	err := c.Flush(context.Background())
	assert.ErrorContains(t, err, "500")
	require.NoError(t, c.Shutdown(context.Background()))
}
