// Package pipeline runs incremental ingestion: it discovers session logs,
// resumes each file from its stored cursor, and commits parsed events per
// file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/theirongolddev/cxburn/internal/model"
	"github.com/theirongolddev/cxburn/internal/pricing"
	"github.com/theirongolddev/cxburn/internal/source"
	"github.com/theirongolddev/cxburn/internal/store"
)

// ErrRunInProgress is returned when an ingest run for the same home is
// already underway in this process.
var ErrRunInProgress = errors.New("ingest run already in progress")

const timingEnv = "CXBURN_INGEST_TIMING"

// Engine orchestrates ingest runs. Runs for different homes may proceed
// concurrently; runs for the same home are refused while one is active.
type Engine struct {
	store *store.Store

	mu      sync.Mutex
	running map[int64]bool
}

func New(st *store.Store) *Engine {
	return &Engine{store: st, running: make(map[int64]bool)}
}

func (e *Engine) acquire(homeID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running[homeID] {
		return ErrRunInProgress
	}
	e.running[homeID] = true
	return nil
}

func (e *Engine) release(homeID int64) {
	e.mu.Lock()
	delete(e.running, homeID)
	e.mu.Unlock()
}

// fileTask is one file due for parsing, with the resume state loaded from its
// cursor.
type fileTask struct {
	file       source.DiscoveredFile
	offset     uint64
	seedModel  *string
	seedEffort *string
	seedTotals model.TokenTotals
}

// fileResult is the parsed output of one file, ready to commit.
type fileResult struct {
	batch     store.FileBatch
	bytesRead uint64
	issues    []model.IngestIssue
	skipped   bool
}

// Run ingests every new byte under the home's sessions directory. Line-level
// problems are recorded as issues and skipped; a file that cannot be read is
// abandoned at its last safe offset; a store error aborts the run.
func (e *Engine) Run(ctx context.Context, homeID int64) (model.IngestStats, error) {
	var stats model.IngestStats

	if err := e.acquire(homeID); err != nil {
		return stats, err
	}
	defer e.release(homeID)

	started := time.Now()
	timing := os.Getenv(timingEnv) != ""

	home, err := e.store.GetHome(homeID)
	if err != nil {
		return stats, err
	}
	if err := e.store.TouchHome(homeID); err != nil {
		return stats, err
	}

	rules, err := e.store.ListPricingRules()
	if err != nil {
		return stats, err
	}

	files, scanIssues, err := source.Scan(home.Path)
	if err != nil {
		return stats, fmt.Errorf("scanning %s: %w", home.Path, err)
	}
	stats.Issues = append(stats.Issues, scanIssues...)

	var tasks []fileTask
	for _, f := range files {
		stats.FilesScanned++

		cursor, ok, err := e.store.GetCursor(homeID, f.Path)
		if err != nil {
			return stats, err
		}
		task := fileTask{file: f}
		if ok && cursor.ByteOffset <= f.Size && sameInode(cursor.Inode, f.Inode) {
			task.offset = cursor.ByteOffset
			task.seedModel = cursor.SeedModel
			task.seedEffort = cursor.SeedEffort
			task.seedTotals = cursor.SeedTotals
		}
		if task.offset >= f.Size {
			stats.FilesSkipped++
			continue
		}
		tasks = append(tasks, task)
	}

	results := make([]fileResult, len(tasks))
	workers := runtime.GOMAXPROCS(0)
	if workers > len(tasks) {
		workers = len(tasks)
	}
	if workers > 0 {
		work := make(chan int, len(tasks))
		for i := range tasks {
			work <- i
		}
		close(work)

		var wg sync.WaitGroup
		wg.Add(workers)
		for w := 0; w < workers; w++ {
			go func() {
				defer wg.Done()
				for idx := range work {
					results[idx] = parseFile(homeID, tasks[idx], rules, timing)
				}
			}()
		}
		wg.Wait()
	}

	for _, res := range results {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.BytesRead += res.bytesRead
		stats.Issues = append(stats.Issues, res.issues...)
		if res.skipped {
			stats.FilesSkipped++
			continue
		}
		inserted, err := e.store.InsertFileBatch(res.batch)
		if err != nil {
			return stats, err
		}
		stats.EventsInserted += inserted
	}

	if timing {
		fmt.Fprintf(os.Stderr, "ingest total: scanned=%d skipped=%d events=%d bytes=%d total=%s\n",
			stats.FilesScanned, stats.FilesSkipped, stats.EventsInserted, stats.BytesRead,
			time.Since(started).Round(time.Millisecond))
	}
	return stats, nil
}

// parseFile reads one file from its resume offset and folds every line into
// events. Usage totals arrive cumulative per session; the running previous
// totals (seeded from the cursor) turn them into per-event deltas before they
// are stored.
func parseFile(homeID int64, task fileTask, rules []model.PricingRule, timing bool) fileResult {
	started := time.Now()
	var res fileResult

	chunk, readErr := source.ReadLines(task.file.Path, task.offset)
	if readErr != nil {
		res.issues = append(res.issues, model.IngestIssue{
			FilePath: task.file.Path,
			Message:  readErr.Error(),
		})
		if len(chunk.Lines) == 0 {
			res.skipped = true
			return res
		}
	}
	res.bytesRead = chunk.NextOffset - task.offset

	parser := source.NewLineParser(task.file.Path, task.seedModel, task.seedEffort)
	prev := task.seedTotals

	var (
		events   []model.UsageEvent
		messages []model.MessageEvent
		limits   []model.LimitSnapshot
		lastKey  *string
	)
	for _, line := range chunk.Lines {
		parsed := parser.Parse(line)
		if parsed.Err != nil {
			res.issues = append(res.issues, model.IngestIssue{
				FilePath: task.file.Path,
				Message:  parsed.Err.Error(),
			})
			continue
		}
		if parsed.Usage != nil {
			ev := *parsed.Usage
			cumulative := ev.Tokens
			ev.Tokens = cumulative.DeltaFrom(prev)
			prev = cumulative
			if len(rules) > 0 {
				if rule := pricing.Resolve(rules, ev.Model, ev.TS); rule != nil {
					cost := pricing.Cost(rule, ev.Tokens).TotalUSD
					ev.CostUSD = &cost
				}
			}
			events = append(events, ev)
			id := ev.ID
			lastKey = &id
		}
		if parsed.Message != nil {
			messages = append(messages, *parsed.Message)
		}
		limits = append(limits, parsed.Limits...)
	}

	mtime := task.file.Mtime
	res.batch = store.FileBatch{
		HomeID:   homeID,
		Events:   events,
		Messages: messages,
		Limits:   limits,
		Cursor: model.Cursor{
			HomeID:       homeID,
			FilePath:     task.file.Path,
			Inode:        task.file.Inode,
			Mtime:        &mtime,
			ByteOffset:   chunk.NextOffset,
			LastEventKey: lastKey,
			UpdatedAt:    model.FormatTS(time.Now()),
			SeedModel:    parser.Model(),
			SeedEffort:   parser.Effort(),
			SeedTotals:   prev,
		},
	}
	if timing {
		fmt.Fprintf(os.Stderr, "ingest file: %s read=%s events=%d bytes=%d\n",
			task.file.Path, time.Since(started).Round(time.Millisecond), len(events), res.bytesRead)
	}
	return res
}

func sameInode(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
