package handlers

import (
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/mattn/go-isatty"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// newLogger returns the process logger. Development mode (console encoder,
// debug level) is used on a terminal or when debug is set; otherwise JSON.
func newLogger(w io.Writer, debug bool) logr.Logger {
	opts := zap.Options{
		Development: debug || isTerminal(w),
		DestWriter:  w,
	}
	return zap.New(zap.UseFlagOptions(&opts))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
