package singer

import (
	"bufio"
	"fmt"
	"io"
	"sync"
)

// Writer emits Singer messages as newline-delimited JSON.
type Writer struct {
	mu sync.Mutex
	w  *bufio.Writer
}

// NewWriter creates a Writer on out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(out)}
}

func (w *Writer) write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal singer message: %w", err)
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.w.Write(data); err != nil {
		return fmt.Errorf("write singer message: %w", err)
	}
	return nil
}

// WriteSchema writes a SCHEMA message.
func (w *Writer) WriteSchema(m SchemaMessage) error {
	return w.write(m)
}

// WriteRecord writes a RECORD message.
func (w *Writer) WriteRecord(m RecordMessage) error {
	return w.write(m)
}

// WriteState writes a STATE message and flushes so the target sees it immediately.
func (w *Writer) WriteState(m StateMessage) error {
	if err := w.write(m); err != nil {
		return err
	}
	return w.Flush()
}

// WriteCatalog writes an indented catalog document (discovery mode) and flushes.
func (w *Writer) WriteCatalog(c *Catalog) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	data = append(data, '\n')

	w.mu.Lock()
	_, err = w.w.Write(data)
	w.mu.Unlock()
	if err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return w.Flush()
}

// Flush writes buffered messages to the underlying writer.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Flush()
}
