package dispatch

import (
	"context"
	"log"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/hashicorp/go-multierror"
	uuid "github.com/satori/go.uuid"

	"github.com/teotikalki/siridb-server/cluster"
	"github.com/teotikalki/siridb-server/insert"
	netpkg "github.com/teotikalki/siridb-server/net"
)

// Dispatcher fans a classified job's sub-batches out to the local pool's
// storage and to remote pools' transport, then aggregates the outcomes
// into the job's single reply. It holds no per-job state itself; all
// job state lives on the Job.
type Dispatcher struct {
	LocalPoolID uint16
	Registry    cluster.SeriesRegistry
	Storage     netpkg.Storage
	Transport   netpkg.Transport
	Timeout     time.Duration
}

type poolOutcome struct {
	poolID uint16
	points int
	err    error
}

// Dispatch moves job from CLASSIFIED to FANOUT, issues the local write
// and the remote sends, and arranges for exactly one reply to be sent
// when every pool has reported in or the timeout fires — whichever
// comes first.
func (d *Dispatcher) Dispatch(ctx context.Context, job *Job) {
	if len(job.SubBatches) == 0 {
		d.complete(job)
		return
	}

	job.mu.Lock()
	job.state = StateFanout
	job.outstanding = len(job.SubBatches)
	job.mu.Unlock()

	outcomes := make(chan poolOutcome, len(job.SubBatches))

	for poolID, subBatch := range job.SubBatches {
		poolID, subBatch := poolID, subBatch
		if poolID == job.LocalPoolID {
			go d.runLocal(job, poolID, subBatch, outcomes)
		} else {
			go d.runRemote(ctx, job, poolID, subBatch, outcomes)
		}
	}

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	timer := time.NewTimer(timeout)
	job.timer = timer

	go d.await(job, outcomes, timer)
}

func (d *Dispatcher) await(job *Job, outcomes chan poolOutcome, timer *time.Timer) {
	remaining := cap(outcomes)
	for remaining > 0 {
		select {
		case outcome := <-outcomes:
			if job.recordOutcome(outcome.poolID, outcome.points, outcome.err) {
				timer.Stop()
				d.complete(job)
				return
			}
			remaining--
		case <-timer.C:
			d.timeoutJob(job, outcomes)
			d.complete(job)
			return
		}
	}
}

// timeoutJob records a synthetic failure for every pool that has not
// yet reported in, so the reply's failing-pool list is complete even
// though those goroutines are still in flight.
func (d *Dispatcher) timeoutJob(job *Job, outcomes chan poolOutcome) {
	job.mu.Lock()
	remaining := job.outstanding
	job.mu.Unlock()

	seen := map[uint16]bool{}
	job.mu.Lock()
	for _, pe := range job.errs {
		seen[pe.PoolID] = true
	}
	job.mu.Unlock()

drain:
	for i := 0; i < remaining; i++ {
		select {
		case outcome := <-outcomes:
			job.mu.Lock()
			if outcome.err == nil {
				job.successfulPoints += outcome.points
			} else {
				job.errs = append(job.errs, PoolError{PoolID: outcome.poolID, Err: outcome.err})
			}
			job.mu.Unlock()
			seen[outcome.poolID] = true
		default:
			break drain
		}
	}

	job.mu.Lock()
	for poolID := range job.SubBatches {
		if !seen[poolID] {
			job.errs = append(job.errs, PoolError{PoolID: poolID, Err: context.DeadlineExceeded})
		}
	}
	job.mu.Unlock()
}

// complete transitions FANOUT -> REPLIED -> RELEASED exactly once and
// sends the job's single reply.
func (d *Dispatcher) complete(job *Job) {
	job.mu.Lock()
	if job.state == StateReplied || job.state == StateReleased {
		job.mu.Unlock()
		return
	}
	job.state = StateReplied
	job.mu.Unlock()

	successfulPoints, errs := job.snapshot()

	var body []byte
	if len(errs) == 0 {
		body = insert.PackSuccess(job.TotalPointCount)
	} else {
		merr := &multierror.Error{}
		failingPools := make([]uint16, 0, len(errs))
		for _, pe := range errs {
			failingPools = append(failingPools, pe.PoolID)
			merr = multierror.Append(merr, pe.Err)
		}
		log.Printf("[dispatch] job %s failed on %d pool(s): %s", job.CorrelationID, len(errs), merr.Error())
		body = insert.PackError(insert.PartialFailureMessage(successfulPoints, failingPools))
	}

	pkgType := netpkg.TypeResInsertSuccess
	if len(errs) != 0 {
		pkgType = netpkg.TypeResInsertError
	}
	pkg := netpkg.NewPackage(job.RequestID, pkgType, body)

	if err := job.Reply.Reply(pkg); err != nil {
		log.Printf("[dispatch] job %s: client gone, dropping reply: %s", job.CorrelationID, err)
	}

	job.setState(StateReleased)
	job.release()
}

func (d *Dispatcher) runLocal(job *Job, poolID uint16, subBatch []byte, outcomes chan poolOutcome) {
	count, err := walkSubBatch(subBatch, func(name []byte, ts int64, value interface{}) error {
		handle, getErr := d.Registry.GetOrCreate(name, inferValueType(value))
		if getErr != nil {
			return getErr
		}
		return d.Storage.Append(handle, ts, value)
	})
	d.deliver(job, outcomes, poolOutcome{poolID: poolID, points: count, err: err})
}

func (d *Dispatcher) runRemote(ctx context.Context, job *Job, poolID uint16, subBatch []byte, outcomes chan poolOutcome) {
	count, walkErr := walkSubBatch(subBatch, nil)
	if walkErr != nil {
		d.deliver(job, outcomes, poolOutcome{poolID: poolID, err: walkErr})
		return
	}

	pkg := netpkg.NewPackage(requestIDFromCorrelation(job.CorrelationID), netpkg.TypeReqInsert, subBatch)
	_, err := d.Transport.Send(ctx, poolID, pkg)
	d.deliver(job, outcomes, poolOutcome{poolID: poolID, points: count, err: err})
}

// deliver drops an outcome once the job has already replied: late peer
// replies are logged and dropped. The channel is sized to accept every
// outcome without blocking, so this is purely about not letting a
// stale result corrupt an already-sent reply; it never leaks the
// sending goroutine.
func (d *Dispatcher) deliver(job *Job, outcomes chan poolOutcome, outcome poolOutcome) {
	if job.State() == StateReleased {
		log.Printf("[dispatch] dropping late outcome for released job %s: %s", job.CorrelationID, spew.Sdump(outcome))
		return
	}
	outcomes <- outcome
}

func inferValueType(value interface{}) cluster.ValueType {
	switch value.(type) {
	case float64:
		return cluster.ValueTypeFloat
	case []byte:
		return cluster.ValueTypeString
	default:
		return cluster.ValueTypeInteger
	}
}

// requestIDFromCorrelation derives a compact peer-facing request id
// from a job's correlation uuid, so a remote pool's reply can be
// matched without exposing the full uuid on the wire.
func requestIDFromCorrelation(id uuid.UUID) uint16 {
	b := id.Bytes()
	return uint16(b[0])<<8 | uint16(b[1])
}
