package store

import (
	"log"
	"os"
)

// --------------------------------------------------------------------------
// Leveled Logger
// --------------------------------------------------------------------------

// logLevel mirrors the teacher's dragonboat-adapter logger levels, without
// the dragonboat ILogger coupling this package has no use for.
type logLevel int

const (
	levelDebug logLevel = iota
	levelInfo
	levelWarn
	levelError
)

// pkgLogger is a namespaced, leveled wrapper around the standard logger.
type pkgLogger struct {
	name  string
	level logLevel
	std   *log.Logger
}

func newPkgLogger(name string) *pkgLogger {
	return &pkgLogger{
		name:  name,
		level: levelInfo,
		std:   log.New(os.Stderr, "", log.Ldate|log.Ltime),
	}
}

func (l *pkgLogger) SetLevel(level logLevel) {
	l.level = level
}

func (l *pkgLogger) Debugf(format string, args ...interface{}) {
	if l.level <= levelDebug {
		l.log("DEBUG", format, args...)
	}
}

func (l *pkgLogger) Infof(format string, args ...interface{}) {
	if l.level <= levelInfo {
		l.log("INFO", format, args...)
	}
}

func (l *pkgLogger) Warnf(format string, args ...interface{}) {
	if l.level <= levelWarn {
		l.log("WARN", format, args...)
	}
}

func (l *pkgLogger) Errorf(format string, args ...interface{}) {
	if l.level <= levelError {
		l.log("ERROR", format, args...)
	}
}

func (l *pkgLogger) log(levelStr, format string, args ...interface{}) {
	l.std.Printf("%-5s | %-15s | "+format, append([]interface{}{levelStr, l.name}, args...)...)
}

// --------------------------------------------------------------------------
// Package-level loggers
// --------------------------------------------------------------------------

var (
	logStore  = newPkgLogger("store")
	logExpiry = newPkgLogger("expiry")
)
