package upload

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Task represents a unit of work to be processed by the worker pool
type Task func(ctx context.Context) error

// WorkerPool runs upload tasks concurrently. The first failing task cancels
// the pool; later tasks see a cancelled context and are skipped.
type WorkerPool struct {
	workerCount int
	taskQueue   chan Task
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	log         *zap.Logger

	closed   bool
	closeMux sync.Mutex

	errOnce  sync.Once
	firstErr error
}

// NewWorkerPool creates a pool bound to ctx with the given number of workers.
func NewWorkerPool(ctx context.Context, workerCount int, log *zap.Logger) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	poolCtx, cancel := context.WithCancel(ctx)
	return &WorkerPool{
		workerCount: workerCount,
		taskQueue:   make(chan Task, workerCount*2),
		ctx:         poolCtx,
		cancel:      cancel,
		log:         log,
	}
}

// Start launches worker goroutines
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Submit queues a task. It returns false once the pool has been cancelled.
func (wp *WorkerPool) Submit(task Task) bool {
	select {
	case <-wp.ctx.Done():
		return false
	default:
	}
	select {
	case wp.taskQueue <- task:
		return true
	case <-wp.ctx.Done():
		return false
	}
}

// Wait closes the queue, blocks until all workers finish and returns the
// first task error, or the parent context error if the pool was cancelled
// from outside.
func (wp *WorkerPool) Wait() error {
	wp.closeMux.Lock()
	if !wp.closed {
		close(wp.taskQueue)
		wp.closed = true
	}
	wp.closeMux.Unlock()

	wp.wg.Wait()
	defer wp.cancel()

	if wp.firstErr != nil {
		return wp.firstErr
	}
	return wp.ctx.Err()
}

// Shutdown cancels all workers and waits for completion
func (wp *WorkerPool) Shutdown() {
	wp.cancel()
	_ = wp.Wait()
}

func (wp *WorkerPool) fail(err error) {
	wp.errOnce.Do(func() {
		wp.firstErr = err
		wp.cancel()
	})
}

// worker processes tasks from the queue
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		if wp.ctx.Err() != nil {
			continue // drain
		}
		if err := task(wp.ctx); err != nil {
			wp.log.Debug("upload task failed", zap.Int("worker", id), zap.Error(err))
			wp.fail(err)
		}
	}
}
