package netchan

import (
	"fmt"
	"log"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/netchan-dev/go-netchan/pkg/netchan/types"
)

const (
	calldepth = 2
	info      = "INFO"
	warn      = "WARN"
	errorl    = "ERROR"
	debug     = "DEBUG"
)

// Use the given log level as prefix.
func level(prefix, message string) string {
	return fmt.Sprintf("[%s]: %s", prefix, message)
}

// The default logger used if the user does not provide its
// own implementation.
type DefaultLogger struct {
	*log.Logger
	debug bool
}

func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{
		Logger: log.New(os.Stderr, "netchan", log.LstdFlags),
		debug:  false,
	}
}

func (l *DefaultLogger) Info(v ...interface{}) {
	l.Output(calldepth, level(info, fmt.Sprint(v...)))
}

func (l *DefaultLogger) Infof(format string, v ...interface{}) {
	l.Output(calldepth, level(info, fmt.Sprintf(format, v...)))
}

func (l *DefaultLogger) Warn(v ...interface{}) {
	l.Output(calldepth, level(warn, fmt.Sprint(v...)))
}

func (l *DefaultLogger) Warnf(format string, v ...interface{}) {
	l.Output(calldepth, level(warn, fmt.Sprintf(format, v...)))
}

func (l *DefaultLogger) Error(v ...interface{}) {
	l.Output(calldepth, level(errorl, fmt.Sprint(v...)))
}

func (l *DefaultLogger) Errorf(format string, v ...interface{}) {
	l.Output(calldepth, level(errorl, fmt.Sprintf(format, v...)))
}

func (l *DefaultLogger) Debug(v ...interface{}) {
	if l.debug {
		l.Output(calldepth, level(debug, fmt.Sprint(v...)))
	}
}

func (l *DefaultLogger) Debugf(format string, v ...interface{}) {
	if l.debug {
		l.Output(calldepth, level(debug, fmt.Sprintf(format, v...)))
	}
}

// Adapter so components configured with an hclog Logger can hand it
// to anything expecting the library Logger interface.
type hcLogger struct {
	delegate hclog.Logger
}

func wrapHCLogger(delegate hclog.Logger) types.Logger {
	return &hcLogger{delegate: delegate}
}

func (l *hcLogger) Info(v ...interface{}) {
	l.delegate.Info(fmt.Sprint(v...))
}

func (l *hcLogger) Infof(format string, v ...interface{}) {
	l.delegate.Info(fmt.Sprintf(format, v...))
}

func (l *hcLogger) Warn(v ...interface{}) {
	l.delegate.Warn(fmt.Sprint(v...))
}

func (l *hcLogger) Warnf(format string, v ...interface{}) {
	l.delegate.Warn(fmt.Sprintf(format, v...))
}

func (l *hcLogger) Error(v ...interface{}) {
	l.delegate.Error(fmt.Sprint(v...))
}

func (l *hcLogger) Errorf(format string, v ...interface{}) {
	l.delegate.Error(fmt.Sprintf(format, v...))
}

func (l *hcLogger) Debug(v ...interface{}) {
	l.delegate.Debug(fmt.Sprint(v...))
}

func (l *hcLogger) Debugf(format string, v ...interface{}) {
	l.delegate.Debug(fmt.Sprintf(format, v...))
}
