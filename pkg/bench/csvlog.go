package bench

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	strftime "github.com/ncruces/go-strftime"
)

// ErrMalformedLog is returned by ReadCSV for files it did not write.
var ErrMalformedLog = errors.New("malformed benchmark log")

// CSVLog appends one row per record to a timestamped CSV file. The header
// is size followed by the strategy names.
type CSVLog struct {
	Path  string
	names []string
	f     *os.File
	w     *csv.Writer
}

// LogName returns benchmark_<YYYY_MM_DD_HHMMSS>.csv for t.
func LogName(t time.Time) string {
	return "benchmark_" + strftime.Format("%Y_%m_%d_%H%M%S", t) + ".csv"
}

// NewCSVLog creates dir if needed and opens a new log file in it.
func NewCSVLog(dir string, names []string, now time.Time) (*CSVLog, error) {
	if len(names) == 0 {
		return nil, ErrNoStrategies
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(dir, LogName(now))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open benchmark log: %w", err)
	}
	l := &CSVLog{Path: path, names: names, f: f, w: csv.NewWriter(f)}
	if err := l.write(append([]string{"size"}, names...)); err != nil {
		f.Close()
		return nil, err
	}
	return l, nil
}

func (l *CSVLog) write(row []string) error {
	if err := l.w.Write(row); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

// WriteRecord appends rec and flushes it to disk.
func (l *CSVLog) WriteRecord(rec Record) error {
	row := make([]string, 0, len(l.names)+1)
	row = append(row, strconv.Itoa(rec.Size))
	for _, name := range l.names {
		secs, ok := rec.Seconds[name]
		if !ok {
			return fmt.Errorf("record N=%d has no time for %q", rec.Size, name)
		}
		row = append(row, strconv.FormatFloat(secs, 'g', -1, 64))
	}
	return l.write(row)
}

func (l *CSVLog) Close() error {
	return l.f.Close()
}

// ReadCSV loads a benchmark log written by CSVLog.
func ReadCSV(path string) ([]string, []Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return DecodeCSV(f)
}

// DecodeCSV parses a benchmark log stream.
func DecodeCSV(r io.Reader) ([]string, []Record, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedLog, err)
	}
	if len(rows) == 0 || len(rows[0]) < 2 || rows[0][0] != "size" {
		return nil, nil, fmt.Errorf("%w: missing size header", ErrMalformedLog)
	}
	names := rows[0][1:]
	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		size, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, nil, fmt.Errorf("%w: row %d: %v", ErrMalformedLog, i+2, err)
		}
		rec := Record{Size: size, Seconds: make(map[string]float64, len(names))}
		for j, name := range names {
			secs, err := strconv.ParseFloat(row[j+1], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: row %d %s: %v", ErrMalformedLog, i+2, name, err)
			}
			rec.Seconds[name] = secs
		}
		records = append(records, rec)
	}
	return names, records, nil
}
