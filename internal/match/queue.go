package match

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

type jobKind string

const (
	jobRematchCompany jobKind = "rematch_company"
	jobRematchGrant   jobKind = "rematch_grant"
)

type job struct {
	kind jobKind
	id   uuid.UUID
}

// Queue decouples recompute work from the mutation that triggered it. Profile
// and rule handlers enqueue a job and return; a single worker drains the
// queue, retries a failed job once, and logs every terminal outcome. Jobs are
// dropped (with a log line) when the buffer is full rather than blocking the
// caller.
type Queue struct {
	svc        *Service
	jobs       chan job
	done       chan struct{}
	jobTimeout time.Duration
}

const (
	queueDepth  = 256
	maxAttempts = 2
)

func NewQueue(svc *Service) *Queue {
	q := &Queue{
		svc:        svc,
		jobs:       make(chan job, queueDepth),
		done:       make(chan struct{}),
		jobTimeout: 10 * time.Minute,
	}
	go q.run()
	return q
}

// EnqueueCompanyRematch schedules a recompute of one company across all
// active grants (profile saved).
func (q *Queue) EnqueueCompanyRematch(companyID uuid.UUID) {
	q.enqueue(job{kind: jobRematchCompany, id: companyID})
}

// EnqueueGrantRematch schedules a recompute of one grant across all
// companies (rules changed). MarkMatchesStale is the caller's job, before
// the mutation commits.
func (q *Queue) EnqueueGrantRematch(grantID uuid.UUID) {
	q.enqueue(job{kind: jobRematchGrant, id: grantID})
}

func (q *Queue) enqueue(j job) {
	select {
	case q.jobs <- j:
	default:
		log.Printf("match queue full, dropping %s id=%s", j.kind, j.id)
	}
}

// Close stops accepting jobs and blocks until queued work has drained.
func (q *Queue) Close() {
	close(q.jobs)
	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)
	for j := range q.jobs {
		var err error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			if err = q.process(j); err == nil {
				break
			}
		}
		if err != nil {
			log.Printf("match queue: %s id=%s failed after %d attempts: %v", j.kind, j.id, maxAttempts, err)
			continue
		}
		log.Printf("match queue: %s id=%s done", j.kind, j.id)
	}
}

func (q *Queue) process(j job) error {
	ctx, cancel := context.WithTimeout(context.Background(), q.jobTimeout)
	defer cancel()

	switch j.kind {
	case jobRematchCompany:
		return q.svc.ComputeMatchesForCompany(ctx, j.id)
	case jobRematchGrant:
		return q.svc.ComputeMatchesForAllCompanies(ctx, j.id)
	}
	return nil
}
