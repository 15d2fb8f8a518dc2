package pipeline

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/ppiankov/landlock/internal/worker"
	"github.com/rotisserie/eris"
)

// RegionRunner replays one region from the registry
type RegionRunner interface {
	RunFromRegistry(ctx context.Context, regionID string) (*Result, error)
}

// regionJob runs one region
type regionJob struct {
	regionID string
	runner   RegionRunner
}

func (j *regionJob) Execute(ctx context.Context) worker.Result {
	result, err := j.runner.RunFromRegistry(ctx, j.regionID)
	return &RegionResult{RegionID: j.regionID, Result: result, Err: err}
}

// RegionResult is one region's outcome in a batch
type RegionResult struct {
	RegionID string
	Result   *Result
	Err      error
}

// GetError returns the run error
func (r *RegionResult) GetError() error {
	return r.Err
}

// BatchProcessor replays many regions concurrently. Each run is independent.
type BatchProcessor struct {
	runner RegionRunner
	pool   *worker.Pool
}

// NewBatchProcessor creates a processor with the given number of workers
func NewBatchProcessor(runner RegionRunner, workers int) *BatchProcessor {
	return &BatchProcessor{runner: runner, pool: worker.NewPool(workers)}
}

// ProcessRegions runs every region and returns results in input order.
// Regions skipped by cancellation report the context error.
func (b *BatchProcessor) ProcessRegions(ctx context.Context, regionIDs []string) []*RegionResult {
	jobs := make([]worker.Job, len(regionIDs))
	for i, id := range regionIDs {
		jobs[i] = &regionJob{regionID: id, runner: b.runner}
	}

	results := b.pool.Run(ctx, jobs)
	out := make([]*RegionResult, len(results))
	for i, r := range results {
		if r == nil {
			out[i] = &RegionResult{RegionID: regionIDs[i], Err: eris.Wrap(context.Cause(ctx), "pipeline: batch cancelled")}
			continue
		}
		out[i] = r.(*RegionResult)
	}
	return out
}

// ReadRegionsFromFile reads region ids one per line, skipping blanks, comments and repeats
func ReadRegionsFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: open region list")
	}
	defer func() { _ = file.Close() }()

	var regions []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || seen[line] {
			continue
		}
		seen[line] = true
		regions = append(regions, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: read region list")
	}
	return regions, nil
}
