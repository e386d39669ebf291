package dispatch

import (
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"

	netpkg "github.com/teotikalki/siridb-server/net"
)

// State is a job's position in its lifecycle:
// CLASSIFIED -> FANOUT -> REPLIED -> RELEASED.
type State int32

const (
	StateClassified State = iota
	StateFanout
	StateReplied
	StateReleased
)

// PoolError records a dispatch-tier failure for one pool: a send
// error, a peer error, a local storage error, or a timeout.
type PoolError struct {
	PoolID uint16
	Err    error
}

// Job is one in-flight insert request, created when classification
// succeeds and destroyed (mutated only by the dispatcher) after its
// single reply is sent. RequestID ties the job to the wire header it
// will eventually reply under; CorrelationID is a fresh id minted for
// peer-facing diagnostics and does not appear on the wire to the
// client.
type Job struct {
	RequestID     uint16
	CorrelationID uuid.UUID
	Reply         netpkg.ReplyChannel

	TotalPointCount int
	SubBatches      map[uint16][]byte
	LocalPoolID     uint16

	mu               sync.Mutex
	state            State
	outstanding      int
	successfulPoints int
	errs             []PoolError
	timer            *time.Timer
	releaseOnce      sync.Once
}

// NewJob constructs a job in the CLASSIFIED state.
func NewJob(requestID uint16, reply netpkg.ReplyChannel, totalPoints int, subBatches map[uint16][]byte, localPoolID uint16) *Job {
	id := uuid.NewV4()
	return &Job{
		RequestID:       requestID,
		CorrelationID:   id,
		Reply:           reply,
		TotalPointCount: totalPoints,
		SubBatches:      subBatches,
		LocalPoolID:     localPoolID,
		state:           StateClassified,
	}
}

// State returns the job's current lifecycle state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

func (j *Job) setState(s State) {
	j.mu.Lock()
	j.state = s
	j.mu.Unlock()
}

// recordOutcome folds one pool's result into the job under lock and
// reports whether every outstanding pool has now reported in.
func (j *Job) recordOutcome(poolID uint16, points int, err error) (allIn bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err != nil {
		j.errs = append(j.errs, PoolError{PoolID: poolID, Err: err})
	} else {
		j.successfulPoints += points
	}
	j.outstanding--
	return j.outstanding <= 0
}

// snapshot returns the data needed to build a reply, taken under lock.
func (j *Job) snapshot() (successfulPoints int, errs []PoolError) {
	j.mu.Lock()
	defer j.mu.Unlock()
	errsCopy := make([]PoolError, len(j.errs))
	copy(errsCopy, j.errs)
	return j.successfulPoints, errsCopy
}

// release frees the job's buffers exactly once, even if called from
// both the completion path and a late timer fire.
func (j *Job) release() {
	j.releaseOnce.Do(func() {
		j.SubBatches = nil
	})
}
