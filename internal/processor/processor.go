// Package processor drives created jobs through the prediction step and on
// to a terminal state. It is the only writer past the pending state.
package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/thermoters/jobd/internal/db"
	"github.com/thermoters/jobd/internal/db/models"
	"github.com/thermoters/jobd/internal/predictor"
	"gorm.io/gorm"
)

// Config tunes the processor loops.
type Config struct {
	Workers        int           // concurrent prediction workers
	QueueSize      int           // creation-event buffer
	PredictTimeout time.Duration // per-job bound on the prediction call
	MaxProcessing  time.Duration // watchdog cutoff for jobs stuck in processing
	SweepInterval  time.Duration // backlog re-delivery and watchdog period
}

func (c *Config) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	if c.PredictTimeout <= 0 {
		c.PredictTimeout = 5 * time.Minute
	}
	if c.MaxProcessing <= 0 {
		c.MaxProcessing = 10 * time.Minute
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
}

type event struct {
	accountKey string
	jobID      string
}

// Processor consumes job-creation events and runs the external prediction
// step. Deliveries are at-least-once: the channel is best effort and the
// sweep re-delivers any pending backlog, while the pending guard in the job
// store collapses duplicates to a single execution.
type Processor struct {
	db        *gorm.DB
	predictor predictor.Predictor
	queue     chan event
	cfg       Config
}

func New(database *gorm.DB, p predictor.Predictor, cfg Config) *Processor {
	cfg.applyDefaults()
	return &Processor{
		db:        database,
		predictor: p,
		queue:     make(chan event, cfg.QueueSize),
		cfg:       cfg,
	}
}

// Notify enqueues a job-created event. A full queue only delays the job
// until the next pending sweep, it never loses it.
func (p *Processor) Notify(accountKey, jobID string) {
	select {
	case p.queue <- event{accountKey: accountKey, jobID: jobID}:
	default:
		log.Printf("⚠️ processor queue full, job %s waits for the pending sweep", jobID)
	}
}

// Start launches the worker and sweep loops until ctx is cancelled.
func (p *Processor) Start(ctx context.Context) {
	for i := 0; i < p.cfg.Workers; i++ {
		go p.run(ctx)
	}
	go p.sweepLoop(ctx)
	log.Printf("⚙️ Job processor started (workers: %d, timeout: %s, sweep: %s)",
		p.cfg.Workers, p.cfg.PredictTimeout, p.cfg.SweepInterval)
}

func (p *Processor) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.queue:
			p.handle(ctx, ev)
		}
	}
}

func (p *Processor) sweepLoop(ctx context.Context) {
	p.deliverPending()

	ticker := time.NewTicker(p.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.deliverPending()
			p.failStuck()
		}
	}
}

// deliverPending re-delivers every pending job. Harmless for jobs already
// queued: the first delivery to win the pending transition owns them.
func (p *Processor) deliverPending() {
	jobs, err := db.ListJobsByStatus(p.db, models.StatusPending)
	if err != nil {
		log.Printf("⚠️ pending sweep: %v", err)
		return
	}
	for _, job := range jobs {
		p.Notify(job.AccountKey, job.ID)
	}
}

// failStuck forces jobs that have been processing longer than MaxProcessing
// into the error state so they cannot hang forever.
func (p *Processor) failStuck() {
	cutoff := time.Now().Add(-p.cfg.MaxProcessing)
	jobs, err := db.ListStuckProcessing(p.db, cutoff)
	if err != nil {
		log.Printf("⚠️ watchdog sweep: %v", err)
		return
	}
	for _, job := range jobs {
		message := fmt.Sprintf("processing exceeded the maximum duration of %s", p.cfg.MaxProcessing)
		if err := db.FailJob(p.db, job.AccountKey, job.ID, message); err != nil {
			log.Printf("⚠️ watchdog: job %s: %v", job.ID, err)
			continue
		}
		log.Printf("⏱️ job %s forced to error by watchdog", job.ID)
	}
}

// handle is one delivery attempt for one job.
func (p *Processor) handle(ctx context.Context, ev event) {
	applied, err := db.BeginProcessing(p.db, ev.accountKey, ev.jobID)
	if err != nil {
		log.Printf("⚠️ job %s: %v", ev.jobID, err)
		return
	}
	if !applied {
		return // duplicate delivery, another attempt owns the job
	}

	job, err := db.GetJob(p.db, ev.accountKey, ev.jobID)
	if err != nil {
		log.Printf("⚠️ job %s: %v", ev.jobID, err)
		return
	}

	var opts predictor.Options
	if err := json.Unmarshal([]byte(job.Options), &opts); err != nil {
		p.fail(ev, fmt.Sprintf("invalid stored options: %v", err))
		return
	}

	predictCtx, cancel := context.WithTimeout(ctx, p.cfg.PredictTimeout)
	defer cancel()

	result, err := p.predictor.Predict(predictCtx, job.Sequence, opts)
	if err != nil {
		p.fail(ev, err.Error())
		return
	}

	if err := db.CompleteJob(p.db, ev.accountKey, ev.jobID, db.JobResult{
		Image:    result.Image,
		Analysis: result.Analysis,
	}); err != nil {
		log.Printf("⚠️ job %s: %v", ev.jobID, err)
		return
	}
	if err := db.SetLastJob(p.db, ev.accountKey, ev.jobID); err != nil {
		log.Printf("⚠️ job %s: record last job: %v", ev.jobID, err)
	}
	log.Printf("✅ job %s completed", ev.jobID)
}

func (p *Processor) fail(ev event, message string) {
	if err := db.FailJob(p.db, ev.accountKey, ev.jobID, message); err != nil {
		log.Printf("⚠️ job %s: record failure: %v", ev.jobID, err)
		return
	}
	log.Printf("❌ job %s failed: %s", ev.jobID, message)
}
