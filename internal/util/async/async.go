package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Task is a named operation.
type Task struct {
	Name string
	Func func(context.Context) error
}

// Result is the outcome of one task.
type Result struct {
	Name string
	Err  error
}

// RunAll executes tasks concurrently, at most limit at a time (limit <= 0
// means no limit), and waits for all of them. A failing task does not
// cancel the others. Results are returned in task order.
func RunAll(ctx context.Context, tasks []Task, limit int) []Result {
	results := make([]Result, len(tasks))
	if len(tasks) == 0 {
		return results
	}
	if limit <= 0 || limit > len(tasks) {
		limit = len(tasks)
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = Result{Name: task.Name, Err: task.Func(ctx)}
		}()
	}
	wg.Wait()
	return results
}

// RunParallel executes all tasks concurrently and returns every failure
// joined, each prefixed with its task name.
func RunParallel(ctx context.Context, tasks []Task) error {
	var errs []error
	for _, r := range RunAll(ctx, tasks, 0) {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name, r.Err))
		}
	}
	return errors.Join(errs...)
}
