package mlog

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Log wraps logrus.Logger and holds information of logging file.
type Log struct {
	*logrus.Logger

	file     *os.File
	location string
	mu       sync.Mutex
}

// New creates Log object.
// TODO: logging with linux logrotate.
func New(location string) (*Log, error) {
	l := &Log{}

	l.Logger = logrus.New()
	l.location = location

	if l.location == "stderr" {
		l.Out = os.Stderr
		l.file = nil
	} else {
		f, err := os.OpenFile(location, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		if err != nil {
			return nil, err
		}
		l.Out = f
		l.file = f
	}

	return l, nil
}

// global is the process-wide log object which is set by Init.
var global *Log

// Init creates the global log object with the given location.
func Init(location string) error {
	l, err := New(location)
	if err != nil {
		return err
	}

	global = l
	return nil
}

// GetPackageLogger returns a logger entry tagged with the given package path.
func GetPackageLogger(pkg string) *logrus.Entry {
	if global == nil {
		// Not initialized yet. Print to stderr.
		global = &Log{Logger: logrus.New()}
		global.Out = os.Stderr
	}

	return global.WithField("package", pkg)
}

// GetFunctionLogger returns a logger entry tagged with the given function name.
func GetFunctionLogger(l *logrus.Entry, function string) *logrus.Entry {
	return l.WithField("function", function)
}

// GetMethodLogger returns a logger entry tagged with the given method name.
func GetMethodLogger(l *logrus.Entry, method string) *logrus.Entry {
	return l.WithField("method", method)
}
