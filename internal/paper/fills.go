package paper

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"meanrev-go/internal/execution"
)

// Ledger stores paper fills in memory and tallies traded volume per symbol.
type Ledger struct {
	mu     sync.Mutex
	fills  []execution.Fill
	volume map[string]int
}

// NewLedger creates an empty ledger optionally pre-sizing storage.
func NewLedger(capacity int) *Ledger {
	if capacity < 0 {
		capacity = 0
	}
	return &Ledger{fills: make([]execution.Fill, 0, capacity), volume: make(map[string]int)}
}

// Record appends a fill to the ledger.
func (l *Ledger) Record(fill execution.Fill) {
	l.mu.Lock()
	l.fills = append(l.fills, fill)
	l.volume[fill.Symbol] += fill.Qty
	l.mu.Unlock()
}

// Fills returns a copy of the recorded fills.
func (l *Ledger) Fills() []execution.Fill {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]execution.Fill, len(l.fills))
	copy(out, l.fills)
	return out
}

// Volume reports total filled quantity for symbol, both sides.
func (l *Ledger) Volume(symbol string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.volume[symbol]
}

// JSONLRecorder appends fills as JSON lines for later analysis.
type JSONLRecorder struct {
	mu   sync.Mutex
	file *os.File
	buf  *bufio.Writer
	enc  *json.Encoder
}

// NewJSONLRecorder creates/opens the target file and returns a recorder.
func NewJSONLRecorder(path string) (*JSONLRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriter(file)
	return &JSONLRecorder{file: file, buf: buf, enc: json.NewEncoder(buf)}, nil
}

// Record writes a single fill; output is buffered until Close.
func (r *JSONLRecorder) Record(fill execution.Fill) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return
	}
	_ = r.enc.Encode(fill)
}

// Close flushes and closes the file handle.
func (r *JSONLRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	flushErr := r.buf.Flush()
	err := r.file.Close()
	r.file = nil
	if flushErr != nil {
		return flushErr
	}
	return err
}
