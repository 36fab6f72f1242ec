package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/bttglc/grillo/internal/task"
)

// Column widths of the task table, in terminal cells.
const (
	colID          = 6
	colStatus      = 2
	colDescription = 30
	colScheduled   = 10
)

const separatorWidth = 50

// renderTable writes the header, the separator and one row per task. Cells
// are padded to their column width but never truncated.
func renderTable(w io.Writer, tasks []task.Task, ascii bool) {
	statusHeader := task.Done.Symbol()
	if ascii {
		statusHeader = task.Done.ASCIISymbol()
	}
	writeRow(w, "ID", statusHeader, "Description", "Scheduled")
	fmt.Fprintln(w, strings.Repeat("-", separatorWidth))
	for _, t := range tasks {
		sym := t.Status.Symbol()
		if ascii {
			sym = t.Status.ASCIISymbol()
		}
		writeRow(w, strconv.FormatUint(t.IDValue(), 10), sym, t.Description, t.Scheduled.String())
	}
}

func writeRow(w io.Writer, id, status, description, scheduled string) {
	fmt.Fprintf(w, "%s %s %s %s\n",
		runewidth.FillRight(id, colID),
		runewidth.FillRight(status, colStatus),
		runewidth.FillRight(description, colDescription),
		runewidth.FillRight(scheduled, colScheduled),
	)
}
