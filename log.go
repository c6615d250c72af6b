package etwtrace

import (
	"os"

	plog "github.com/phuslu/log"
)

// log is the default logger of every Registry. Writes to stderr at warn
// level.
var log = &plog.Logger{
	Level:   plog.WarnLevel,
	Writer:  &plog.IOWriter{Writer: os.Stderr},
	Context: plog.NewContext(nil).Str("component", "etwtrace").Value(),
}

// SetLogLevel changes the level of the package logger. Accepted values are
// the phuslu/log level names (trace, debug, info, warn, error, fatal).
func SetLogLevel(level string) {
	log.SetLevel(plog.ParseLevel(level))
}

// Logger returns the package logger so callers can redirect it.
func Logger() *plog.Logger {
	return log
}
