package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// newLogger builds the stderr logger. Command output goes to stdout; the
// logger only carries diagnostics.
func newLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Formatter:       log.TextFormatter,
		ReportTimestamp: false,
		ReportCaller:    false,
		Prefix:          "grillo",
	}), nil
}
