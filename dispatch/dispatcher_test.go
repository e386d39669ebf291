package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teotikalki/siridb-server/cluster"
	netpkg "github.com/teotikalki/siridb-server/net"
	"github.com/teotikalki/siridb-server/qpack"
)

type recordedPoint struct {
	handle *cluster.SeriesHandle
	ts     int64
	value  interface{}
}

type fakeRegistry struct {
	mu       sync.Mutex
	handles  map[string]*cluster.SeriesHandle
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{handles: map[string]*cluster.SeriesHandle{}}
}

func (r *fakeRegistry) GetOrCreate(name []byte, inferredType cluster.ValueType) (*cluster.SeriesHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := string(name)
	if h, ok := r.handles[key]; ok {
		return h, nil
	}
	h := &cluster.SeriesHandle{Name: key, Type: inferredType}
	r.handles[key] = h
	return h, nil
}

type fakeStorage struct {
	mu     sync.Mutex
	points []recordedPoint
	failOn string
}

func (s *fakeStorage) Append(handle interface{}, timestampMS int64, value interface{}) error {
	h := handle.(*cluster.SeriesHandle)
	if s.failOn != "" && h.Name == s.failOn {
		return errors.New("storage: write failed for " + h.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points, recordedPoint{handle: h, ts: timestampMS, value: value})
	return nil
}

type fakeTransport struct {
	delay   time.Duration
	failFor map[uint16]bool
	sent    []uint16
	mu      sync.Mutex
}

func (t *fakeTransport) Send(ctx context.Context, poolID uint16, pkg *netpkg.Package) (netpkg.Ack, error) {
	if t.delay > 0 {
		select {
		case <-time.After(t.delay):
		case <-ctx.Done():
			return netpkg.Ack{}, ctx.Err()
		}
	}
	t.mu.Lock()
	t.sent = append(t.sent, poolID)
	t.mu.Unlock()
	if t.failFor[poolID] {
		return netpkg.Ack{}, errors.New("peer rejected sub-batch")
	}
	return netpkg.Ack{PoolID: poolID}, nil
}

type fakeReply struct {
	mu  sync.Mutex
	pkg *netpkg.Package
	n   int
}

func (r *fakeReply) Reply(pkg *netpkg.Package) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pkg = pkg
	r.n++
	return nil
}

func (r *fakeReply) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

func encodeOneSeriesOnePoint(t *testing.T, name string, ts int64, value int64) []byte {
	t.Helper()
	e := qpack.NewEncoder(64)
	e.OpenMap()
	e.PushRawTerm([]byte(name))
	e.OpenArray()
	e.Array(2)
	e.PushInt(ts)
	e.PushInt(value)
	e.CloseArray()
	e.CloseMap()
	e.End()
	return e.Bytes()
}

func TestDispatchLocalOnlySucceeds(t *testing.T) {
	registry := newFakeRegistry()
	storage := &fakeStorage{}
	reply := &fakeReply{}

	job := NewJob(1, reply, 1, map[uint16][]byte{
		0: encodeOneSeriesOnePoint(t, "cpu", 10, 42),
	}, 0)

	d := &Dispatcher{LocalPoolID: 0, Registry: registry, Storage: storage, Timeout: time.Second}
	d.Dispatch(context.Background(), job)

	require.Eventually(t, func() bool { return reply.count() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, StateReleased, job.State())
	assert.Len(t, storage.points, 1)
	assert.Equal(t, int64(10), storage.points[0].ts)
	assert.Nil(t, job.SubBatches)
}

func TestDispatchLocalAndRemoteBothSucceed(t *testing.T) {
	registry := newFakeRegistry()
	storage := &fakeStorage{}
	reply := &fakeReply{}
	transport := &fakeTransport{failFor: map[uint16]bool{}}

	job := NewJob(1, reply, 2, map[uint16][]byte{
		0: encodeOneSeriesOnePoint(t, "local.series", 1, 1),
		1: encodeOneSeriesOnePoint(t, "remote.series", 2, 2),
	}, 0)

	d := &Dispatcher{LocalPoolID: 0, Registry: registry, Storage: storage, Transport: transport, Timeout: time.Second}
	d.Dispatch(context.Background(), job)

	require.Eventually(t, func() bool { return reply.count() == 1 }, time.Second, time.Millisecond)
	assert.Len(t, storage.points, 1)
	assert.Contains(t, transport.sent, uint16(1))
}

func TestDispatchRemoteFailureReportsPartialSuccess(t *testing.T) {
	registry := newFakeRegistry()
	storage := &fakeStorage{}
	reply := &fakeReply{}
	transport := &fakeTransport{failFor: map[uint16]bool{2: true}}

	job := NewJob(1, reply, 2, map[uint16][]byte{
		0: encodeOneSeriesOnePoint(t, "ok.series", 1, 1),
		2: encodeOneSeriesOnePoint(t, "bad.series", 2, 2),
	}, 0)

	d := &Dispatcher{LocalPoolID: 0, Registry: registry, Storage: storage, Transport: transport, Timeout: time.Second}
	d.Dispatch(context.Background(), job)

	require.Eventually(t, func() bool { return reply.count() == 1 }, time.Second, time.Millisecond)
	_, errs := job.snapshot()
	require.Len(t, errs, 1)
	assert.Equal(t, uint16(2), errs[0].PoolID)
}

func TestDispatchTimeoutDropsLateReplyWithoutDoubleRelease(t *testing.T) {
	registry := newFakeRegistry()
	storage := &fakeStorage{}
	reply := &fakeReply{}
	transport := &fakeTransport{delay: 100 * time.Millisecond, failFor: map[uint16]bool{}}

	job := NewJob(1, reply, 1, map[uint16][]byte{
		3: encodeOneSeriesOnePoint(t, "slow.series", 1, 1),
	}, 0)

	d := &Dispatcher{LocalPoolID: 0, Registry: registry, Storage: storage, Transport: transport, Timeout: 10 * time.Millisecond}
	d.Dispatch(context.Background(), job)

	require.Eventually(t, func() bool { return reply.count() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, StateReleased, job.State())

	// let the slow transport call land well after timeout; it must not
	// trigger a second reply or a second release.
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, reply.count())
}

func TestDispatchEmptySubBatchesStillReplies(t *testing.T) {
	reply := &fakeReply{}
	job := NewJob(1, reply, 0, map[uint16][]byte{}, 0)

	d := &Dispatcher{LocalPoolID: 0, Registry: newFakeRegistry(), Storage: &fakeStorage{}}
	d.Dispatch(context.Background(), job)

	assert.Equal(t, 1, reply.count())
	assert.Equal(t, StateReleased, job.State())
}
