package download

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// ConsoleReporter prints a progress line at most once per interval, plus
// a final summary.
type ConsoleReporter struct {
	out      io.Writer
	interval time.Duration
	now      func() time.Time

	mu        sync.Mutex
	total     int64
	position  int64
	started   time.Time
	lastPrint time.Time
}

func NewConsoleReporter(out io.Writer, interval time.Duration) *ConsoleReporter {
	return &ConsoleReporter{
		out:      out,
		interval: interval,
		now:      time.Now,
	}
}

func (r *ConsoleReporter) Start(url string, total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.total = total
	r.position = 0
	r.started = r.now()
	r.lastPrint = time.Time{}
	fmt.Fprintf(r.out, "Downloading %s (%s)\n", url, humanize.Bytes(uint64(total)))
}

func (r *ConsoleReporter) Advance(position int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.position = position
	now := r.now()
	if position < r.total && now.Sub(r.lastPrint) < r.interval {
		return
	}
	r.lastPrint = now
	fmt.Fprintln(r.out, r.line(now))
}

func (r *ConsoleReporter) Finish(url, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := r.now().Sub(r.started).Round(time.Millisecond)
	fmt.Fprintf(r.out, "Downloaded %s to %s (%s in %s)\n", url, path, humanize.Bytes(uint64(r.position)), elapsed)
}

func (r *ConsoleReporter) line(now time.Time) string {
	percent := 100.0
	if r.total > 0 {
		percent = float64(r.position) / float64(r.total) * 100
	}

	elapsed := now.Sub(r.started).Seconds()
	if elapsed <= 0 {
		return fmt.Sprintf("Downloaded %s of %s (%.1f%%)",
			humanize.Bytes(uint64(r.position)), humanize.Bytes(uint64(r.total)), percent)
	}

	bytesPerSec := float64(r.position) / elapsed
	eta := "calculating..."
	if bytesPerSec > 0 {
		remaining := time.Duration(float64(r.total-r.position) / bytesPerSec * float64(time.Second))
		eta = remaining.Round(time.Second).String()
	}

	return fmt.Sprintf("Downloaded %s of %s (%.1f%%) | %s/s | ETA %s",
		humanize.Bytes(uint64(r.position)), humanize.Bytes(uint64(r.total)), percent,
		humanize.Bytes(uint64(bytesPerSec)), eta)
}
