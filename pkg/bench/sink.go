package bench

import "errors"

// Sink receives records while a benchmark runs.
type Sink interface {
	WriteRecord(Record) error
	Close() error
}

// MultiSink writes every record to all of its sinks.
type MultiSink []Sink

func (m MultiSink) WriteRecord(rec Record) error {
	var errs []error
	for _, s := range m {
		if err := s.WriteRecord(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
