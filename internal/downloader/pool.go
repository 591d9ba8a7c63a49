package downloader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vscodl/pkg/logger"
)

// Downloadable is anything the pool can fetch
type Downloadable interface {
	Download(ctx context.Context) error
}

// Job represents a single download task
type Job struct {
	// Index is the job's position in the batch passed to Run
	Index int
	Key   string
	Item  Downloadable
}

// Result represents the outcome of a job
type Result struct {
	Job      Job
	WorkerID int
	Error    error
	Duration time.Duration
}

// WorkerPool runs download jobs on a fixed number of workers. Workers
// share nothing but the job and result queues.
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	logger      logger.Logger
}

// NewWorkerPool creates a pool of numWorkers workers. numWorkers below 1
// is treated as 1.
func NewWorkerPool(numWorkers int, log logger.Logger) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		logger:      logger.OrDefault(log),
	}
}

// Start launches the workers. Jobs started after ctx is cancelled fail
// with the context's error without being downloaded.
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.ctx, wp.cancel = context.WithCancel(ctx)

	wp.logger.DebugWithFields("starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the job queue, waits for in-flight jobs and closes Results
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("worker pool stopped")
}

// Submit queues a job, blocking while the queue is full
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the result channel. It must be drained concurrently
// with Submit.
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

// Size returns the number of workers
func (wp *WorkerPool) Size() int {
	return wp.numWorkers
}

// Run starts the pool, submits jobs, waits for every one of them and
// returns their results in submission order.
func (wp *WorkerPool) Run(ctx context.Context, jobs []Job) []Result {
	wp.Start(ctx)

	results := make([]Result, len(jobs))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range wp.Results() {
			results[r.Job.Index] = r
		}
	}()

	for i := range jobs {
		jobs[i].Index = i
		if err := wp.Submit(jobs[i]); err != nil {
			// Unsubmitted jobs are not touched by any worker.
			results[i] = Result{Job: jobs[i], WorkerID: -1, Error: err}
		}
	}

	wp.Stop()
	<-done
	return results
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		wp.resultQueue <- wp.process(job, id)
	}
}

func (wp *WorkerPool) process(job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job, WorkerID: workerID}

	if err := wp.ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	result.Error = job.Item.Download(wp.ctx)
	result.Duration = time.Since(start)

	if result.Error != nil {
		wp.logger.DebugWithFields("job failed", map[string]interface{}{
			"worker_id": workerID,
			"key":       job.Key,
			"error":     result.Error.Error(),
			"duration":  result.Duration,
		})
	} else {
		wp.logger.DebugWithFields("job completed", map[string]interface{}{
			"worker_id": workerID,
			"key":       job.Key,
			"duration":  result.Duration,
		})
	}
	return result
}
