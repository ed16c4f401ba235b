package tracker

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DeadLetterEntry records one tracking poll that produced no usable
// provider answer.
type DeadLetterEntry struct {
	At              time.Time `json:"at"`
	CallID          uint64    `json:"call_id"`
	ContractAddress string    `json:"contract_address"`
	TokenSymbol     string    `json:"token_symbol,omitempty"`
	Reason          string    `json:"reason"`
}

// DeadLetter is an append-only JSONL file of failed polls, capped at a
// fixed number of entries with the oldest evicted first. It exists so a
// stretch of provider downtime is auditable without digging through logs.
type DeadLetter struct {
	mu    sync.Mutex
	path  string
	limit int
}

func NewDeadLetter(path string, limit int) *DeadLetter {
	if limit <= 0 {
		limit = 1000
	}
	return &DeadLetter{path: path, limit: limit}
}

func (d *DeadLetter) Append(entry DeadLetterEntry) error {
	if d == nil || d.path == "" {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	lines, err := d.readLines()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	lines = append(lines, string(raw))
	if len(lines) > d.limit {
		lines = lines[len(lines)-d.limit:]
	}
	return d.writeLines(lines)
}

// Entries returns the retained entries, oldest first. Unparseable lines
// are skipped.
func (d *DeadLetter) Entries() ([]DeadLetterEntry, error) {
	if d == nil || d.path == "" {
		return nil, nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	lines, err := d.readLines()
	if err != nil {
		return nil, err
	}
	out := make([]DeadLetterEntry, 0, len(lines))
	for _, line := range lines {
		var entry DeadLetterEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (d *DeadLetter) readLines() ([]string, error) {
	f, err := os.Open(d.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func (d *DeadLetter) writeLines(lines []string) error {
	if dir := filepath.Dir(d.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := d.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, d.path)
}
