package cmd

import (
	"fmt"
	"log"
	"os"
)

// infoLogger is used for indirection when testing output produced by commands
var infoLogger = log.New(os.Stdout, "INFO: ", 0)

// swapped out in tests
var (
	logFatalln = log.Fatalln
	logFatalf  = log.Fatalf
	osExit     = os.Exit
)

func wrapFatalln(msg string, err error) {
	if err == nil {
		logFatalln(msg)
		return
	}
	logFatalln(fmt.Errorf("%s: %w", msg, err))
}

func wrapFatalWithCodef(code int, format string, args ...interface{}) {
	log.Printf(format, args...)
	osExit(code)
}
