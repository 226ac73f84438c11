// Package diag carries import diagnostics from the decoding core to whatever
// sink the caller provides. Nothing in the core writes to a global logger.
package diag

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

type Code string

const (
	CodeInfo                  Code = "Info"
	CodeAmbiguousReference    Code = "AmbiguousReference"
	CodeUnresolvedReference   Code = "UnresolvedReference"
	CodeUnsupportedTopology   Code = "UnsupportedTopology"
	CodeMissingRequiredStream Code = "MissingRequiredStream"
	CodeMixedTopologyConflict Code = "MixedTopologyConflict"
	CodeSkinWithoutSkeleton   Code = "SkinWithoutSkeleton"
)

type Record struct {
	Level   Level
	Code    Code
	Object  string
	Message string
}

func (r Record) String() string {
	if r.Object != "" {
		return fmt.Sprintf("%s [%s] %s: %s", r.Level, r.Code, r.Object, r.Message)
	}
	return fmt.Sprintf("%s [%s] %s", r.Level, r.Code, r.Message)
}

type Sink interface {
	Report(r Record)
}

// Discard drops every record.
var Discard Sink = discard{}

type discard struct{}

func (discard) Report(Record) {}

func Infof(s Sink, object string, format string, a ...interface{}) {
	s.Report(Record{Level: LevelInfo, Code: CodeInfo, Object: object, Message: fmt.Sprintf(format, a...)})
}

func Warnf(s Sink, code Code, object string, format string, a ...interface{}) {
	s.Report(Record{Level: LevelWarning, Code: code, Object: object, Message: fmt.Sprintf(format, a...)})
}

func Errorf(s Sink, code Code, object string, format string, a ...interface{}) {
	s.Report(Record{Level: LevelError, Code: code, Object: object, Message: fmt.Sprintf(format, a...)})
}

// Log collects records in arrival order. Safe for concurrent use.
type Log struct {
	lock    sync.Mutex
	records []Record
}

func NewLog() *Log {
	return &Log{records: make([]Record, 0)}
}

func (l *Log) Report(r Record) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.records = append(l.records, r)
}

func (l *Log) Records() []Record {
	l.lock.Lock()
	defer l.lock.Unlock()
	result := make([]Record, len(l.records))
	copy(result, l.records)
	return result
}

func (l *Log) Len() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return len(l.records)
}

// Count returns how many collected records carry the code.
func (l *Log) Count(code Code) int {
	l.lock.Lock()
	defer l.lock.Unlock()
	n := 0
	for _, r := range l.records {
		if r.Code == code {
			n++
		}
	}
	return n
}

// FlushTo replays collected records into another sink and resets the log.
func (l *Log) FlushTo(s Sink) {
	l.lock.Lock()
	records := l.records
	l.records = make([]Record, 0)
	l.lock.Unlock()

	for _, r := range records {
		s.Report(r)
	}
}

type tee []Sink

func (t tee) Report(r Record) {
	for _, s := range t {
		s.Report(r)
	}
}

func Tee(sinks ...Sink) Sink {
	result := make(tee, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			result = append(result, s)
		}
	}
	return result
}

type logrusSink struct {
	logger logrus.FieldLogger
}

// NewLogrusSink writes each record as a structured logrus entry.
func NewLogrusSink(logger logrus.FieldLogger) Sink {
	return &logrusSink{logger: logger}
}

func (s *logrusSink) Report(r Record) {
	entry := s.logger.WithField("code", string(r.Code))
	if r.Object != "" {
		entry = entry.WithField("object", r.Object)
	}
	switch r.Level {
	case LevelInfo:
		entry.Info(r.Message)
	case LevelWarning:
		entry.Warn(r.Message)
	default:
		entry.Error(r.Message)
	}
}

// FuncSink adapts a plain function, handy for status broadcasting.
type FuncSink func(r Record)

func (f FuncSink) Report(r Record) {
	f(r)
}
