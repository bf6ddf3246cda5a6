package policy

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// FileAuditSink appends violations to a JSON-lines file. The file is a
// write-only mirror; the in-memory log stays authoritative.
type FileAuditSink struct {
	mu             sync.Mutex
	path           string
	redactPatterns []string
}

func NewFileAuditSink(path string, redactPatterns ...string) (*FileAuditSink, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("audit log path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit log dir: %w", err)
	}
	return &FileAuditSink{
		path:           path,
		redactPatterns: redactPatterns,
	}, nil
}

func (s *FileAuditSink) Path() string {
	return s.path
}

func (s *FileAuditSink) Append(v Violation) error {
	v.Target = s.redact(v.Target)

	line, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return err
	}
	return nil
}

func (s *FileAuditSink) redact(target string) string {
	for _, pattern := range s.redactPatterns {
		if pattern == "" {
			continue
		}
		if re, err := regexp.Compile(pattern); err == nil {
			target = re.ReplaceAllString(target, "[REDACTED]")
			continue
		}
		target = strings.ReplaceAll(target, pattern, "[REDACTED]")
	}
	return target
}

// ReadAuditLog parses a file written by FileAuditSink. Malformed lines are
// skipped; a missing file yields an empty slice.
func ReadAuditLog(path string) ([]Violation, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return []Violation{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var entries []Violation
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var v Violation
		if err := json.Unmarshal(line, &v); err != nil {
			slog.Warn("Failed to parse audit entry", "line", string(line), "error", err)
			continue
		}
		entries = append(entries, v)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
