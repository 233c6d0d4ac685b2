// Package logx is the structured logging facade shared by the dispatch
// service. Backends are slog (default) and logrus.
package logx

import "time"

// Logger writes leveled entries carrying key-value fields.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	Sync() error
}

// Field is one key-value pair attached to an entry.
type Field struct {
	Key   string
	Value any
}

func Any(key string, v any) Field                { return Field{key, v} }
func String(key, v string) Field                 { return Field{key, v} }
func Int(key string, v int) Field                { return Field{key, v} }
func Int64(key string, v int64) Field            { return Field{key, v} }
func Float64(key string, v float64) Field        { return Field{key, v} }
func Bool(key string, v bool) Field              { return Field{key, v} }
func Time(key string, v time.Time) Field         { return Field{key, v} }
func Duration(key string, v time.Duration) Field { return Field{key, v} }

// Err records err under "error". A nil error stays nil.
func Err(err error) Field { return Field{"error", err} }
