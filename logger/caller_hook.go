package logger

import (
	"reflect"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// loggerPkg is the import path of this package, resolved at runtime so the
// hook keeps working if the module is renamed.
var loggerPkg = reflect.TypeOf(callerHook{}).PkgPath()

// callerHook points entry.Caller at the first frame outside logrus and the
// Entry wrappers in this package.
type callerHook struct{}

func (h *callerHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *callerHook) Fire(entry *logrus.Entry) error {
	var pcs [24]uintptr
	n := runtime.Callers(4, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !isLoggingFrame(frame.Function) {
			entry.Caller = &frame
			return nil
		}
		if !more {
			return nil
		}
	}
}

func isLoggingFrame(fn string) bool {
	if strings.Contains(fn, "sirupsen/logrus") {
		return true
	}
	// Test binaries live in the same package; only skip the wrapper methods.
	return strings.HasPrefix(fn, loggerPkg+".") && !strings.Contains(fn, ".Test")
}
