// Package logging provides the structured logger used by the driver,
// the local engine and the run executor.
package logging

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap logger with the event vocabulary the orchestrator
// needs: resource-group warnings, worker lifecycle, dispatch warnings.
type Logger struct {
	zap *zap.Logger
}

// New creates a Logger writing to logPath. If logPath is empty,
// logging is disabled (a no-op logger is returned). If development is
// true, a human-readable encoder is used instead of JSON.
func New(logPath string, development bool) (*Logger, error) {
	if logPath == "" {
		return &Logger{zap: zap.NewNop()}, nil
	}

	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	var encoder zapcore.Encoder
	if development {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	core := zapcore.NewCore(
		encoder,
		zapcore.AddSync(logFile),
		zapcore.InfoLevel,
	)

	return &Logger{zap: zap.New(core)}, nil
}

// NewStderr builds a console-encoded logger writing to stderr (with
// development or production encoder settings per development),
// used by the CLI when no log file was configured but diagnostics
// should still be visible.
func NewStderr(development bool) *Logger {
	var encoderConfig zapcore.EncoderConfig
	if development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stderr),
		zapcore.InfoLevel,
	)
	return &Logger{zap: zap.New(core)}
}

// Close syncs the underlying logger.
func (l *Logger) Close() error {
	return l.zap.Sync()
}

// ResourceGroupWarning logs a degraded-but-continuing resource-group
// condition (§7 "Executor faults").
func (l *Logger) ResourceGroupWarning(msg string, runIdentifier string, err error) {
	if err != nil {
		l.zap.Warn(msg, zap.String("run", runIdentifier), zap.Error(err))
		return
	}
	l.zap.Warn(msg, zap.String("run", runIdentifier))
}

// WorkerStarted logs a worker beginning to drain the queue.
func (l *Logger) WorkerStarted(workerIndex int, cores []int) {
	l.zap.Info("worker started", zap.Int("worker", workerIndex), zap.Ints("cores", cores))
}

// WorkerStopped logs a worker exiting.
func (l *Logger) WorkerStopped(workerIndex int) {
	l.zap.Info("worker stopped", zap.Int("worker", workerIndex))
}

// DispatchWarning logs a non-fatal remote-dispatch condition (§7
// "Remote mode").
func (l *Logger) DispatchWarning(msg string, err error) {
	if err != nil {
		l.zap.Warn(msg, zap.Error(err))
		return
	}
	l.zap.Warn(msg)
}

// LeftoverProcess logs the graduated-kill per-PID warning ported from
// killAllTasksInCgroup.
func (l *Logger) LeftoverProcess(pid int, signal string, attempt int) {
	l.zap.Warn("run has left-over process",
		zap.Int("pid", pid),
		zap.String("signal", signal),
		zap.Int("attempt", attempt),
	)
}

// Error logs an error with a message.
func (l *Logger) Error(msg string, err error) {
	l.zap.Error(msg, zap.Error(err))
}

// Info logs an informational message.
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zap.Info(msg, fields...)
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.zap.Debug(msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.zap.Warn(msg, fields...)
}

// Elapsed is a small helper for timing log statements, matching the
// teacher's use of time.Duration fields throughout agent/logger.go.
func Elapsed(start time.Time) time.Duration {
	return time.Since(start)
}
