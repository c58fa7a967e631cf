// Package logflags configures logging for the rest of the module. Loggers
// are handed to the components that use them at construction time, there is
// no ambient logging state besides the flags set by Setup.
package logflags

import (
	"errors"
	"io/ioutil"
	"log"
	"strings"

	"github.com/sirupsen/logrus"
)

var microblaze = false
var unwind = false
var symtab = false

func makeLogger(flag bool, fields logrus.Fields) *logrus.Entry {
	logger := logrus.New().WithFields(fields)
	logger.Logger.Level = logrus.DebugLevel
	if !flag {
		logger.Logger.Level = logrus.PanicLevel
	}
	return logger
}

// Microblaze returns true if the MicroBlaze prologue scanner should log
// every instruction it examines.
func Microblaze() bool {
	return microblaze
}

// MicroblazeLogger returns a logger for the MicroBlaze prologue scanner.
func MicroblazeLogger() *logrus.Entry {
	return makeLogger(microblaze, logrus.Fields{"layer": "arch", "arch": "microblaze"})
}

// Unwind returns true if frame unwinding should be logged.
func Unwind() bool {
	return unwind
}

// UnwindLogger returns a logger for the stack unwinder.
func UnwindLogger() *logrus.Entry {
	return makeLogger(unwind, logrus.Fields{"layer": "unwind"})
}

// Symtab returns true if symbol table loading should be logged.
func Symtab() bool {
	return symtab
}

// SymtabLogger returns a logger for symbol table loading.
func SymtabLogger() *logrus.Entry {
	return makeLogger(symtab, logrus.Fields{"layer": "symtab"})
}

var errLogstrWithoutLog = errors.New("--log-output specified without --log")

// Setup sets logging flags based on the contents of logstr.
func Setup(logFlag bool, logstr string) error {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	if !logFlag {
		log.SetOutput(ioutil.Discard)
		if logstr != "" {
			return errLogstrWithoutLog
		}
		return nil
	}
	if logstr == "" {
		logstr = "unwind"
	}
	for _, logcmd := range strings.Split(logstr, ",") {
		switch logcmd {
		case "microblaze":
			microblaze = true
		case "unwind":
			unwind = true
		case "symtab":
			symtab = true
		}
	}
	return nil
}
