package sched

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"
)

// CSVSink writes every event as one CSV record.
type CSVSink struct {
	w     *csv.Writer
	close func() error
	err   error
}

// NewCSVSink writes the header and returns a sink writing to w.
func NewCSVSink(w io.Writer) *CSVSink {
	c := &CSVSink{w: csv.NewWriter(w), close: func() error { return nil }}
	c.write([]string{"timestamp", "tick", "event", "task_id", "task", "slice", "score", "detail"})
	return c
}

// OpenCSVSink creates (or truncates) path for CSV logging of events.
func OpenCSVSink(path string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	c := NewCSVSink(f)
	c.close = f.Close
	return c, nil
}

func (c *CSVSink) HandleEvent(ev StatusEvent) {
	c.write([]string{
		time.Now().Format(time.RFC3339Nano),
		strconv.FormatInt(ev.Now, 10),
		ev.Kind.String(),
		strconv.FormatUint(uint64(ev.TaskID), 10),
		ev.Name,
		strconv.FormatInt(ev.Slice, 10),
		strconv.FormatInt(ev.Score, 10),
		ev.Detail,
	})
}

func (c *CSVSink) write(rec []string) {
	if c.err != nil {
		return
	}
	if err := c.w.Write(rec); err != nil {
		c.err = err
		return
	}
	c.w.Flush()
	c.err = c.w.Error()
}

// Err reports the first write error, if any.
func (c *CSVSink) Err() error { return c.err }

// Close flushes and closes the underlying file.
func (c *CSVSink) Close() error {
	c.w.Flush()
	if err := c.close(); err != nil {
		return err
	}
	return c.err
}
