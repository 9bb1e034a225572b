// Package recorder persists a failed measurement cycle's raw ADC
// frames to disk for offline inspection, the Go counterpart of the
// original firmware's dump_error_measurement.
package recorder

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// CSVDumper writes the four channels' raw ADC frames from a failed
// measurement cycle to a timestamped CSV file under Dir. Writes are
// retried until they succeed or ctx is cancelled, generalized from the
// original's bounded Stop-and-Wait retry (internal/protocol.Transport.
// SendFrame) into an unbounded, cancellable retry appropriate for a
// local filesystem write that should never be abandoned early.
type CSVDumper struct {
	Dir        string
	RetryDelay time.Duration
	MaxRetries int // 0 means unlimited, matching the original's unbounded retry-until-success
}

// NewCSVDumper builds a dumper writing under dir with a 1ms retry
// delay, matching the original's rt_thread_delay(1) backoff.
func NewCSVDumper(dir string) *CSVDumper {
	return &CSVDumper{Dir: dir, RetryDelay: time.Millisecond}
}

// Dump writes north/south/east/west raw frames to
// <Dir>/YYYYMMDD_HHMMSS_<errCount>_err.csv, retrying the write until it
// succeeds or ctx is cancelled.
func (d *CSVDumper) Dump(ctx context.Context, errCount uint64, frames [4][]uint16) error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("create dump dir: %w", err)
	}

	name := time.Now().UTC().Format("20060102_150405") + "_" + strconv.FormatUint(errCount, 10) + "_err.csv"
	path := filepath.Join(d.Dir, name)

	var attempt int
	for {
		err := d.writeOnce(path, frames)
		if err == nil {
			return nil
		}
		attempt++
		if d.MaxRetries > 0 && attempt >= d.MaxRetries {
			return fmt.Errorf("write %s: %w", path, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.RetryDelay):
		}
	}
}

func (d *CSVDumper) writeOnce(path string, frames [4][]uint16) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"North", "South", "East", "West"}); err != nil {
		return err
	}
	n := len(frames[0])
	row := make([]string, 4)
	for i := 0; i < n; i++ {
		for ch := 0; ch < 4; ch++ {
			row[ch] = strconv.FormatUint(uint64(frames[ch][i]), 10)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
