package handlers

import (
	"fmt"
	"io"
	"sync"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// NewLogger returns the CLI logger. Each entry is one line prefixed with
// the logger name in brackets, so pipeline stages read "[plan] ...".
func NewLogger(w io.Writer, verbose bool) logr.Logger {
	var mu sync.Mutex
	verbosity := 0
	if verbose {
		verbosity = 1
	}
	return funcr.New(func(prefix, args string) {
		if prefix == "" {
			prefix = "k3sforge"
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "[%s] %s\n", prefix, args)
	}, funcr.Options{Verbosity: verbosity})
}
