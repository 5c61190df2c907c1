// Package botlog captures recent error records for operator retrieval.
package botlog

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const defaultKeep = 50

// Record is one captured diagnostic.
type Record struct {
	Time    time.Time
	Source  string
	Message string
}

// Collector keeps a bounded list of the most recent error records so the
// operator can fetch them over chat. Transient transport errors are only
// counted, not recorded verbatim; they are noise during normal operation.
type Collector struct {
	mu      sync.Mutex
	records []Record
	ignored int
	keep    int
}

func NewCollector(keep int) *Collector {
	if keep <= 0 {
		keep = defaultKeep
	}
	return &Collector{keep: keep}
}

// Record captures one diagnostic, evicting the oldest once full.
func (c *Collector) Record(source, format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, Record{
		Time:    time.Now(),
		Source:  source,
		Message: fmt.Sprintf(format, args...),
	})
	if len(c.records) > c.keep {
		c.records = c.records[len(c.records)-c.keep:]
	}
}

// RecordIgnored counts an error of a class not worth reporting verbatim.
func (c *Collector) RecordIgnored() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ignored++
}

// Recent returns a copy of the captured records, oldest first.
func (c *Collector) Recent() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Render formats the captured records for delivery in a chat message.
func (c *Collector) Render() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.records) == 0 && c.ignored == 0 {
		return "No errors recorded."
	}

	var b strings.Builder
	b.WriteString("The following errors occurred:\n")
	for _, r := range c.records {
		fmt.Fprintf(&b, "\n%s [%s] %s", r.Time.Format("2006-01-02 15:04:05"), r.Source, r.Message)
	}
	if c.ignored > 0 {
		fmt.Fprintf(&b, "\n\n(%d transient transport errors ignored)", c.ignored)
	}
	return b.String()
}
