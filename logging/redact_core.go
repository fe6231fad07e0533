package logging

import (
	"go.uber.org/zap/zapcore"
)

// redactCore wraps a zapcore.Core and scrubs every entry before it is
// encoded. Loggers handed to library packages through Logger.Zap share it,
// so redaction does not depend on callers using the wrapper methods.
type redactCore struct {
	zapcore.Core
}

// NewRedactingCore returns a Core that redacts sensitive fields and
// credential patterns in messages and string values.
func NewRedactingCore(core zapcore.Core) zapcore.Core {
	return &redactCore{Core: core}
}

func (c *redactCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactCore{Core: c.Core.With(redactFields(fields))}
}

func (c *redactCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *redactCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	ent.Message = RedactSensitiveData(ent.Message)
	return c.Core.Write(ent, redactFields(fields))
}

func redactFields(fields []zapcore.Field) []zapcore.Field {
	if len(fields) == 0 {
		return fields
	}
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		out[i] = redactField(f)
	}
	return out
}

func redactField(f zapcore.Field) zapcore.Field {
	if IsSensitiveField(f.Key) {
		return zapcore.Field{Key: f.Key, Type: zapcore.StringType, String: RedactedPlaceholder}
	}
	switch f.Type {
	case zapcore.StringType:
		f.String = RedactSensitiveData(f.String)
	case zapcore.ErrorType:
		if err, ok := f.Interface.(error); ok && err != nil {
			msg := err.Error()
			if ContainsSensitiveData(msg) {
				return zapcore.Field{Key: f.Key, Type: zapcore.StringType, String: RedactSensitiveData(msg)}
			}
		}
	}
	return f
}
