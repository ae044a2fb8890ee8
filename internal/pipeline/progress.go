package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Summary describes a finished invocation.
type Summary struct {
	ExecutionID string        `json:"executionId" yaml:"executionId"`
	Items       int           `json:"items" yaml:"items"`
	Outputs     int           `json:"outputs" yaml:"outputs"`
	Failed      int           `json:"failed" yaml:"failed"`
	Elapsed     time.Duration `json:"elapsed" yaml:"elapsed"`
}

// ProgressCallback receives item-level progress from Execute. Calls come
// from the goroutine running Execute.
type ProgressCallback interface {
	// OnStart is called once with the number of input items.
	OnStart(total int)
	// OnProgress is called after each item with the number of items done.
	OnProgress(done, total int)
	// OnError is called for every failed item, before the failure policy
	// is applied.
	OnError(index int, err error)
	// OnComplete is called when all items were handled, also after a
	// failure stopped the run.
	OnComplete(summary Summary)
}

// NoOpProgressCallback ignores all progress.
type NoOpProgressCallback struct{}

func (NoOpProgressCallback) OnStart(int)         {}
func (NoOpProgressCallback) OnProgress(int, int) {}
func (NoOpProgressCallback) OnError(int, error)  {}
func (NoOpProgressCallback) OnComplete(Summary)  {}

// ConsoleProgressCallback draws a progress bar, typically on stderr.
type ConsoleProgressCallback struct {
	mu             sync.Mutex
	writer         io.Writer
	prefix         string
	width          int
	updateInterval time.Duration
	lastUpdate     time.Time
	start          time.Time
}

// NewConsoleProgressCallback writes to writer, or stderr when nil.
func NewConsoleProgressCallback(writer io.Writer, prefix string) *ConsoleProgressCallback {
	if writer == nil {
		writer = os.Stderr
	}
	return &ConsoleProgressCallback{
		writer:         writer,
		prefix:         prefix,
		width:          40,
		updateInterval: 100 * time.Millisecond,
	}
}

// WithWidth sets the bar width in cells.
func (c *ConsoleProgressCallback) WithWidth(width int) *ConsoleProgressCallback {
	if width > 0 {
		c.width = width
	}
	return c
}

// WithUpdateInterval limits how often the bar is redrawn. The last item
// is always drawn.
func (c *ConsoleProgressCallback) WithUpdateInterval(interval time.Duration) *ConsoleProgressCallback {
	c.updateInterval = interval
	return c
}

func (c *ConsoleProgressCallback) OnStart(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = time.Now()
	c.lastUpdate = time.Time{}
	_, _ = fmt.Fprintf(c.writer, "%s0/%d items\n", c.prefix, total)
}

func (c *ConsoleProgressCallback) OnProgress(done, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if done < total && now.Sub(c.lastUpdate) < c.updateInterval {
		return
	}
	c.lastUpdate = now
	if total <= 0 {
		return
	}
	filled := c.width * done / total
	line := fmt.Sprintf("\r%s[%s%s] %d/%d (%.1f%%)", c.prefix,
		strings.Repeat("█", filled), strings.Repeat("░", c.width-filled),
		done, total, float64(done)*100/float64(total))
	if elapsed := now.Sub(c.start); elapsed > 0 && done > 0 {
		line += fmt.Sprintf(" %.1f items/s", float64(done)/elapsed.Seconds())
	}
	_, _ = fmt.Fprint(c.writer, line)
}

func (c *ConsoleProgressCallback) OnError(index int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.writer, "\n%sitem %d failed: %v\n", c.prefix, index, err)
}

func (c *ConsoleProgressCallback) OnComplete(s Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.writer, "\n%s%d items, %d outputs, %d failed in %v\n",
		c.prefix, s.Items, s.Outputs, s.Failed, s.Elapsed.Round(time.Millisecond))
}

// LogProgressCallback reports progress through slog.
type LogProgressCallback struct {
	logger   *slog.Logger
	level    slog.Level
	interval int
	last     int
}

// NewLogProgressCallback logs at level every item; see WithInterval.
func NewLogProgressCallback(logger *slog.Logger, level slog.Level) *LogProgressCallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProgressCallback{logger: logger, level: level, interval: 1}
}

// WithInterval logs only every n items, plus the last one.
func (l *LogProgressCallback) WithInterval(n int) *LogProgressCallback {
	if n > 0 {
		l.interval = n
	}
	return l
}

func (l *LogProgressCallback) OnStart(total int) {
	l.last = 0
	l.logger.Log(context.Background(), l.level, "Processing items", "total", total)
}

func (l *LogProgressCallback) OnProgress(done, total int) {
	if done-l.last < l.interval && done != total {
		return
	}
	l.last = done
	l.logger.Log(context.Background(), l.level, "Item progress", "done", done, "total", total)
}

func (l *LogProgressCallback) OnError(index int, err error) {
	l.logger.Warn("Item failed", "item", index, "error", err)
}

func (l *LogProgressCallback) OnComplete(s Summary) {
	l.logger.Log(context.Background(), l.level, "Processing completed",
		"execution_id", s.ExecutionID,
		"items", s.Items,
		"outputs", s.Outputs,
		"failed", s.Failed,
		"elapsed", s.Elapsed.Round(time.Millisecond),
	)
}

// MultiProgressCallback fans progress out to several callbacks.
type MultiProgressCallback []ProgressCallback

func (m MultiProgressCallback) OnStart(total int) {
	for _, cb := range m {
		cb.OnStart(total)
	}
}

func (m MultiProgressCallback) OnProgress(done, total int) {
	for _, cb := range m {
		cb.OnProgress(done, total)
	}
}

func (m MultiProgressCallback) OnError(index int, err error) {
	for _, cb := range m {
		cb.OnError(index, err)
	}
}

func (m MultiProgressCallback) OnComplete(s Summary) {
	for _, cb := range m {
		cb.OnComplete(s)
	}
}
