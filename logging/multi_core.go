package logging

import (
	"go.uber.org/zap/zapcore"
)

// NewMultiCore tees log output to a console writer and a file writer.
// The file always receives JSON. The console receives colored text in
// development mode and JSON otherwise. A nil fileWriter disables the file.
func NewMultiCore(level zapcore.LevelEnabler, consoleWriter, fileWriter zapcore.WriteSyncer, isDev bool) zapcore.Core {
	consoleEncoder := zapcore.NewJSONEncoder(NewEncoderConfig())
	if isDev {
		consoleEncoder = zapcore.NewConsoleEncoder(NewConsoleEncoderConfig())
	}
	consoleCore := zapcore.NewCore(consoleEncoder, consoleWriter, level)

	if fileWriter == nil {
		return consoleCore
	}

	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(NewEncoderConfig()), fileWriter, level)
	return zapcore.NewTee(consoleCore, fileCore)
}
