package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tanq16/gdfetch/internal/utils"
)

// Executor runs one task to completion and reports the outcome in the result.
type Executor interface {
	Execute(ctx context.Context, task utils.DownloadTask) utils.DownloadResult
}

type ExecutorFunc func(ctx context.Context, task utils.DownloadTask) utils.DownloadResult

func (f ExecutorFunc) Execute(ctx context.Context, task utils.DownloadTask) utils.DownloadResult {
	return f(ctx, task)
}

// Reporter is told when a worker picks up a task and when it is done with it.
type Reporter interface {
	Started(task utils.DownloadTask)
	Finished(result utils.DownloadResult)
}

type nopReporter struct{}

func (nopReporter) Started(utils.DownloadTask)    {}
func (nopReporter) Finished(utils.DownloadResult) {}

// Run executes tasks on a fixed pool of workers and returns once every task
// has produced exactly one result. A failing task never stops the others.
func Run(ctx context.Context, tasks []utils.DownloadTask, numWorkers int, exec Executor, reporter Reporter) *Aggregator {
	if reporter == nil {
		reporter = nopReporter{}
	}
	agg := NewAggregator(len(tasks))
	if len(tasks) == 0 {
		return agg
	}
	numWorkers = max(1, min(numWorkers, len(tasks)))
	log.Debug().Str("op", "scheduler/scheduler").Msgf("running %d tasks on %d workers", len(tasks), numWorkers)

	jobCh := make(chan utils.DownloadTask, len(tasks))
	for _, task := range tasks {
		jobCh <- task
	}
	close(jobCh)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			processJobs(ctx, jobCh, exec, reporter, agg)
		}()
	}
	wg.Wait()
	return agg
}

func processJobs(ctx context.Context, jobCh <-chan utils.DownloadTask, exec Executor, reporter Reporter, agg *Aggregator) {
	for task := range jobCh {
		reporter.Started(task)
		result := runOne(ctx, exec, task)
		agg.Add(result)
		reporter.Finished(result)
	}
}

// runOne turns a panicking executor into a failed result for that task.
func runOne(ctx context.Context, exec Executor, task utils.DownloadTask) (result utils.DownloadResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("op", "scheduler/scheduler").Str("task", task.ID).
				Str("stack", string(debug.Stack())).Msgf("worker panic: %v", r)
			de := utils.NewError(utils.ErrKindFilesystem, utils.ReasonIO, fmt.Sprintf("unexpected failure: %v", r), nil)
			result = utils.DownloadResult{
				TaskID:      task.ID,
				OriginalURL: task.OriginalURL,
				Message:     de.Error(),
				Err:         de,
			}
		}
	}()
	result = exec.Execute(ctx, task)
	result.TaskID = task.ID
	result.OriginalURL = task.OriginalURL
	return result
}
