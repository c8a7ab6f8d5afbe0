package judge

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Pool schedules judge jobs across a fixed worker set with two classes:
// priority jobs (paying users) are preferred, but after priorityBurst
// consecutive priority jobs a worker drains one standard job, so nothing
// starves indefinitely.
type Pool struct {
	priority chan job
	standard chan job
	burst    int
	workers  int
	logger   zerolog.Logger

	group  *errgroup.Group
	cancel context.CancelFunc
}

type job struct {
	ctx    context.Context
	req    Request
	result chan Result
}

// PoolOptions configures the judge pool.
type PoolOptions struct {
	Workers       int
	PriorityBurst int
	QueueDepth    int
}

// NewPool creates a stopped pool; call Start before submitting.
func NewPool(opts PoolOptions, logger zerolog.Logger) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.PriorityBurst <= 0 {
		opts.PriorityBurst = 8
	}
	if opts.QueueDepth <= 0 {
		opts.QueueDepth = 64
	}
	return &Pool{
		priority: make(chan job, opts.QueueDepth),
		standard: make(chan job, opts.QueueDepth),
		burst:    opts.PriorityBurst,
		workers:  opts.Workers,
		logger:   logger.With().Str("component", "judge_pool").Logger(),
	}
}

type judgeFunc func(ctx context.Context, req Request) Result

// Start launches the worker set.
func (p *Pool) Start(ctx context.Context, run judgeFunc) {
	poolCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.group, poolCtx = errgroup.WithContext(poolCtx)

	for i := 0; i < p.workers; i++ {
		p.group.Go(func() error {
			p.worker(poolCtx, run)
			return nil
		})
	}
}

// Stop cancels the workers and waits for them to drain.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	if p.group != nil {
		_ = p.group.Wait()
	}
}

// Submit enqueues a job in its scheduling class and waits for the result.
func (p *Pool) Submit(ctx context.Context, req Request, run judgeFunc) (Result, error) {
	j := job{ctx: ctx, req: req, result: make(chan Result, 1)}

	queue := p.standard
	if req.Priority {
		queue = p.priority
	}

	select {
	case queue <- j:
	case <-ctx.Done():
		return Result{}, fmt.Errorf("judge queue: %w", ctx.Err())
	}

	select {
	case res := <-j.result:
		return res, nil
	case <-ctx.Done():
		return Result{}, fmt.Errorf("judge wait: %w", ctx.Err())
	}
}

func (p *Pool) worker(ctx context.Context, run judgeFunc) {
	consecutivePriority := 0
	for {
		// Anti-starvation: force one standard job after a priority burst.
		if consecutivePriority >= p.burst {
			select {
			case j := <-p.standard:
				p.run(j, run)
				consecutivePriority = 0
				continue
			default:
			}
		}

		select {
		case j := <-p.priority:
			p.run(j, run)
			consecutivePriority++
		default:
			select {
			case j := <-p.priority:
				p.run(j, run)
				consecutivePriority++
			case j := <-p.standard:
				p.run(j, run)
				consecutivePriority = 0
			case <-ctx.Done():
				return
			}
		}
	}
}

func (p *Pool) run(j job, run judgeFunc) {
	if err := j.ctx.Err(); err != nil {
		// Caller gave up while queued; nobody is reading the result.
		return
	}
	j.result <- run(j.ctx, j.req)
}
