package ingestion

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"robot-dispatch/internal/logger"
	"robot-dispatch/internal/metrics"
	"robot-dispatch/internal/usecase/common"
	"robot-dispatch/internal/usecase/fleet"
	"robot-dispatch/internal/usecase/robot"
	appErrors "robot-dispatch/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PhaseHandler applies a phase report for a robot.
type PhaseHandler interface {
	ReportPhase(ctx context.Context, robotID, orderID uuid.UUID, req *fleet.PhaseReport) (*fleet.PhaseResult, error)
}

// StatusHandler applies a robot's self-reported status.
type StatusHandler interface {
	UpdateStatus(ctx context.Context, robotID uuid.UUID, req *robot.StatusReport) (*common.RobotResponse, error)
}

const handleTimeout = 10 * time.Second

// Processor fans jobs out to workers. Every robot hashes to one worker so
// its messages are applied in arrival order.
type Processor struct {
	phases  PhaseHandler
	status  StatusHandler
	metrics *metrics.DispatchMetrics
	log     *zap.Logger

	shards []chan *Job

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu guards closed so Submit never sends on a closed shard.
	mu     sync.RWMutex
	closed bool

	tracker *MetricsTracker
}

func NewProcessor(phases PhaseHandler, status StatusHandler, m *metrics.DispatchMetrics, workerCount, bufferSize int) *Processor {
	if workerCount <= 0 {
		workerCount = 1
	}
	perShard := bufferSize / workerCount
	if perShard <= 0 {
		perShard = 1
	}

	shards := make([]chan *Job, workerCount)
	for i := range shards {
		shards[i] = make(chan *Job, perShard)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Processor{
		phases:  phases,
		status:  status,
		metrics: m,
		log:     logger.Named("ingestion"),
		shards:  shards,
		ctx:     ctx,
		cancel:  cancel,
		tracker: NewMetricsTracker(),
	}
}

// Start launches one worker per shard.
func (p *Processor) Start() {
	for i, shard := range p.shards {
		p.wg.Add(1)
		go p.worker(i, shard)
	}
	p.log.Info("Ingestion processor started", zap.Int("workers", len(p.shards)))
}

// Stop refuses new jobs, lets workers drain what is queued and waits.
func (p *Processor) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for _, shard := range p.shards {
		close(shard)
	}
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()

	snap := p.tracker.Snapshot()
	p.log.Info("Ingestion processor stopped",
		zap.Int64("received", snap.MessagesReceived),
		zap.Int64("processed", snap.MessagesProcessed),
		zap.Int64("failed", snap.MessagesFailed),
		zap.Int64("dropped", snap.MessagesDropped),
	)
}

// Submit queues job without blocking. It reports false when the robot's
// shard is full or the processor is stopped.
func (p *Processor) Submit(job *Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.drop(job, "processor stopped")
		return false
	}

	select {
	case p.shardFor(job.RobotID) <- job:
		p.tracker.received()
		return true
	default:
		p.drop(job, "buffer full")
		return false
	}
}

func (p *Processor) drop(job *Job, reason string) {
	p.tracker.dropped()
	p.metrics.IncIngestion(string(job.Kind), metrics.OutcomeDropped)
	p.log.Warn("Dropping message",
		zap.String("robot_id", job.RobotID.String()),
		zap.String("kind", string(job.Kind)),
		zap.String("reason", reason),
	)
}

func (p *Processor) shardFor(robotID uuid.UUID) chan *Job {
	h := fnv.New32a()
	_, _ = h.Write(robotID[:])
	return p.shards[h.Sum32()%uint32(len(p.shards))]
}

func (p *Processor) worker(id int, jobs <-chan *Job) {
	defer p.wg.Done()

	for job := range jobs {
		start := time.Now()
		err := p.handle(job)
		elapsed := time.Since(start)

		if err != nil {
			p.metrics.IncIngestion(string(job.Kind), metrics.OutcomeFailure)
			p.tracker.failed()

			fields := []zap.Field{
				zap.Int("worker", id),
				zap.String("robot_id", job.RobotID.String()),
				zap.String("kind", string(job.Kind)),
				zap.Error(err),
			}
			// business rejections are the robot's problem, not ours
			if _, ok := appErrors.As(err); ok {
				p.log.Warn("Message rejected", fields...)
			} else {
				p.log.Error("Message failed", fields...)
			}
			continue
		}

		p.metrics.IncIngestion(string(job.Kind), metrics.OutcomeSuccess)
		p.tracker.processed(time.Now(), elapsed)
	}
}

func (p *Processor) handle(job *Job) error {
	ctx, cancel := context.WithTimeout(p.ctx, handleTimeout)
	defer cancel()

	switch job.Kind {
	case KindPhase:
		_, err := p.phases.ReportPhase(ctx, job.RobotID, job.Phase.OrderID, job.Phase.report())
		return err
	case KindStatus:
		_, err := p.status.UpdateStatus(ctx, job.RobotID, job.Status)
		return err
	default:
		return &ValidationError{Field: "kind", Message: "unknown message kind " + string(job.Kind)}
	}
}

// GetMetrics returns current metrics
func (p *Processor) GetMetrics() IngestMetrics {
	return p.tracker.Snapshot()
}
