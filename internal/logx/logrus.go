package logx

import "github.com/sirupsen/logrus"

// LogrusAdapter adapts a logrus entry to the Logger interface.
type LogrusAdapter struct {
	e *logrus.Entry
}

// NewLogrusAdapter returns a Logger backed by l.
func NewLogrusAdapter(l *logrus.Logger) Logger {
	return &LogrusAdapter{e: logrus.NewEntry(l)}
}

func (a *LogrusAdapter) Debug(msg string, fields ...Field) { a.e.WithFields(toLogrus(fields)).Debug(msg) }
func (a *LogrusAdapter) Info(msg string, fields ...Field)  { a.e.WithFields(toLogrus(fields)).Info(msg) }
func (a *LogrusAdapter) Warn(msg string, fields ...Field)  { a.e.WithFields(toLogrus(fields)).Warn(msg) }
func (a *LogrusAdapter) Error(msg string, fields ...Field) { a.e.WithFields(toLogrus(fields)).Error(msg) }

// With returns a logger that attaches fields to every entry.
func (a *LogrusAdapter) With(fields ...Field) Logger {
	return &LogrusAdapter{e: a.e.WithFields(toLogrus(fields))}
}

// Sync is a no-op; logrus writes synchronously.
func (a *LogrusAdapter) Sync() error { return nil }

func toLogrus(fields []Field) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		if err, ok := f.Value.(error); ok && err != nil {
			out[f.Key] = err.Error()
			continue
		}
		out[f.Key] = f.Value
	}
	return out
}
