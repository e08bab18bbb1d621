// Package storage keeps the reading history and the latest-reading snapshot
// as semicolon separated text files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mklimuk/ezo/poll"
)

const filePerm = 0o644

var _ poll.Recorder = &Files{}

// Files appends every reading to History and replaces Snapshot with the
// most recent one.
type Files struct {
	History  string
	Snapshot string
}

func NewFiles(history, snapshot string) *Files {
	return &Files{History: history, Snapshot: snapshot}
}

// Record writes both stores. A failure of one does not skip the other.
func (f *Files) Record(ctx context.Context, r poll.Reading) error {
	return errors.Join(f.AppendHistory(r), f.WriteSnapshot(r))
}

func (f *Files) AppendHistory(r poll.Reading) error {
	line := encode(r)
	file, err := os.OpenFile(f.History, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("could not open history: %w", err)
	}
	if _, err = file.Write(line); err != nil {
		_ = file.Close()
		return fmt.Errorf("could not append to history: %w", err)
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("could not close history: %w", err)
	}
	return nil
}

// WriteSnapshot replaces the snapshot through a rename so a reader sees
// either the previous or the new record, never a partial one.
func (f *Files) WriteSnapshot(r poll.Reading) error {
	line := encode(r)
	tmp, err := os.CreateTemp(filepath.Dir(f.Snapshot), "."+filepath.Base(f.Snapshot)+".*")
	if err != nil {
		return fmt.Errorf("could not create snapshot: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err = tmp.Write(line); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("could not write snapshot: %w", err)
	}
	if err = tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("could not set snapshot mode: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("could not close snapshot: %w", err)
	}
	if err = os.Rename(tmp.Name(), f.Snapshot); err != nil {
		return fmt.Errorf("could not replace snapshot: %w", err)
	}
	return nil
}

// encode renders the reading exactly as Reading.Line, so the stores match
// what the console and plot sinks show. Fields are never quoted.
func encode(r poll.Reading) []byte {
	return []byte(r.Line() + "\n")
}
