package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sensefold/sensefold/internal/extract"
	"github.com/sensefold/sensefold/internal/model"
	"github.com/sensefold/sensefold/internal/reduce"
)

// Reducer is the part of the reduction pipeline a batch job needs.
type Reducer interface {
	Reduce(ctx context.Context, doc *extract.Document, opts reduce.Options) (*model.Result, error)
}

// ReduceJob reduces one term document file.
type ReduceJob struct {
	Path    string
	Reducer Reducer
	Options reduce.Options
}

// Execute loads and reduces the document at Path.
func (j *ReduceJob) Execute(ctx context.Context) Result {
	f, err := os.Open(j.Path)
	if err != nil {
		return &ReduceResult{Path: j.Path, Error: fmt.Errorf("open document: %w", err)}
	}
	defer func() { _ = f.Close() }()

	doc, err := extract.ParseDocument(f)
	if err != nil {
		return &ReduceResult{Path: j.Path, Error: err}
	}

	result, err := j.Reducer.Reduce(ctx, doc, j.Options)
	if err != nil {
		return &ReduceResult{Path: j.Path, Error: err}
	}
	return &ReduceResult{Path: j.Path, Result: result}
}

// ReduceResult is the outcome of one batch reduction.
type ReduceResult struct {
	Path   string
	Result *model.Result
	Error  error
}

// GetError returns the job error, if any.
func (r *ReduceResult) GetError() error {
	return r.Error
}

// BatchProcessor reduces many term documents concurrently.
type BatchProcessor struct {
	reducer     Reducer
	concurrency int
}

// NewBatchProcessor creates a batch processor.
func NewBatchProcessor(reducer Reducer, concurrency int) *BatchProcessor {
	return &BatchProcessor{reducer: reducer, concurrency: concurrency}
}

// ProcessPaths reduces the given document files concurrently. Results
// are re-sorted by path so batch output order is stable regardless of
// which worker finished first.
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string, opts reduce.Options) []*ReduceResult {
	if len(paths) == 0 {
		return []*ReduceResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	// Submit from a separate goroutine: the pool's channels are bounded,
	// so queueing every path before draining deadlocks on large batches.
	go func() {
		for _, path := range paths {
			pool.Submit(&ReduceJob{Path: path, Reducer: b.reducer, Options: opts})
		}
		pool.Close()
	}()

	out := make([]*ReduceResult, 0, len(paths))
	for r := range pool.Results() {
		out = append(out, r.(*ReduceResult))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// CollectPaths expands a batch input into document paths. A directory
// yields its *.json files sorted by name; a file is read as a list of
// paths, one per line, with blank lines and # comments skipped.
func CollectPaths(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("stat batch input: %w", err)
	}

	if info.IsDir() {
		matches, err := filepath.Glob(filepath.Join(input, "*.json"))
		if err != nil {
			return nil, fmt.Errorf("list documents: %w", err)
		}
		sort.Strings(matches)
		return matches, nil
	}

	f, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("open batch list: %w", err)
	}
	defer func() { _ = f.Close() }()

	var paths []string
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read batch list: %w", err)
	}
	return paths, nil
}
