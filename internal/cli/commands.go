package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bttglc/grillo/internal/store"
	"github.com/bttglc/grillo/internal/task"
)

const selectionPrompt = "Enter task IDs (space-separated): "

// dateFlag is an optional YYYY-MM-DD flag value.
type dateFlag struct {
	date task.Date
	set  bool
}

func (d *dateFlag) String() string { return d.date.String() }

func (d *dateFlag) Set(v string) error {
	parsed, err := task.ParseDate(v)
	if err != nil {
		return err
	}
	d.date = parsed
	d.set = true
	return nil
}

// optionalInt is an int64 flag that distinguishes "not given" from zero.
type optionalInt struct {
	value *int64
}

func (o *optionalInt) String() string {
	if o.value == nil {
		return ""
	}
	return strconv.FormatInt(*o.value, 10)
}

func (o *optionalInt) Set(v string) error {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", v)
	}
	o.value = &n
	return nil
}

func fail(app *App, cmd string, err error) int {
	fmt.Fprintf(app.Err, "%s: %v\n", cmd, err)
	return ExitInternal
}

func cmdAdd(app *App, args []string) int {
	args = reorderFlags(args, map[string]bool{
		"--scheduled": true,
		"--deadline":  true,
		"--context":   true,
		"--project":   true,
	})
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(app.Err)
	var scheduled, deadline dateFlag
	var contextID, projectID optionalInt
	fs.Var(&scheduled, "scheduled", "Scheduled date (YYYY-MM-DD, default today)")
	fs.Var(&deadline, "deadline", "Deadline (YYYY-MM-DD)")
	fs.Var(&contextID, "context", "Context id")
	fs.Var(&projectID, "project", "Project id")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	description := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(description) == "" {
		fmt.Fprintln(app.Err, "Usage: grillo add \"<description>\" [--scheduled YYYY-MM-DD] [--deadline YYYY-MM-DD] [--context N] [--project N]")
		return ExitUsage
	}

	t := task.New()
	t.Description = description
	if scheduled.set {
		t.Scheduled = scheduled.date
	}
	if deadline.set {
		d := deadline.date
		t.Deadline = &d
	}
	t.Context = contextID.value
	t.Project = projectID.value

	s, err := app.Store()
	if err != nil {
		return fail(app, "add", err)
	}
	if err := s.Save(t); err != nil {
		return fail(app, "add", err)
	}
	fmt.Fprintf(app.Out, "Added task: %s\n", t.Description)
	return ExitOK
}

func cmdList(app *App, args []string) int {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	fs.SetOutput(app.Err)
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(app.Err, "Usage: grillo ls")
		return ExitUsage
	}

	s, err := app.Store()
	if err != nil {
		return fail(app, "ls", err)
	}
	tasks, err := s.ListAll()
	if err != nil {
		return fail(app, "ls", err)
	}

	if app.Flags.JSON || app.Flags.NDJSON {
		path, err := exportTasks(app, tasks)
		if err != nil {
			return fail(app, "ls", err)
		}
		if path != "" && !app.Flags.Quiet {
			format := "JSON"
			if app.Flags.NDJSON {
				format = "NDJSON"
			}
			fmt.Fprintf(app.Out, "Wrote %s to: %s\n", format, path)
		}
		return ExitOK
	}

	if len(tasks) == 0 {
		fmt.Fprintln(app.Out, "No tasks found.")
		return ExitOK
	}
	renderTable(app.Out, tasks, app.Config.ASCII)
	return ExitOK
}

// batchCommand is a command that applies one store operation to a list of
// task ids, taken from the arguments or picked interactively.
type batchCommand struct {
	name    string
	header  string
	empty   string
	confirm string
	// offer selects the tasks shown in the interactive list.
	offer func(task.Task) bool
	apply func(s *store.Store, id uint64) error
}

var deleteCommand = batchCommand{
	name:    "del",
	header:  "Select tasks to delete:",
	empty:   "No tasks to delete.",
	confirm: "Deleted task %d",
	offer:   func(task.Task) bool { return true },
	apply:   (*store.Store).Delete,
}

var doneCommand = batchCommand{
	name:    "done",
	header:  "Select tasks to mark as done:",
	empty:   "No active tasks to mark as done.",
	confirm: "Marked task %d as done",
	offer:   func(t task.Task) bool { return t.Status == task.Active },
	apply:   (*store.Store).Complete,
}

func (c batchCommand) run(app *App, args []string) int {
	fs := flag.NewFlagSet(c.name, flag.ContinueOnError)
	fs.SetOutput(app.Err)
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	ids, err := parseIDArgs(fs.Args())
	if err != nil {
		fmt.Fprintf(app.Err, "%s: %v\n", c.name, err)
		fmt.Fprintf(app.Err, "Usage: grillo %s [id...]\n", c.name)
		return ExitUsage
	}

	s, err := app.Store()
	if err != nil {
		return fail(app, c.name, err)
	}

	if len(ids) == 0 {
		var done bool
		ids, done, err = c.choose(app, s)
		if err != nil {
			return fail(app, c.name, err)
		}
		if done {
			return ExitOK
		}
	}

	for _, id := range ids {
		if err := c.apply(s, id); err != nil {
			return fail(app, c.name, err)
		}
		fmt.Fprintf(app.Out, c.confirm+"\n", id)
	}
	return ExitOK
}

// choose lists the candidate tasks and reads one line of ids from stdin.
// done is true when there was nothing to offer.
func (c batchCommand) choose(app *App, s *store.Store) (ids []uint64, done bool, err error) {
	all, err := s.ListAll()
	if err != nil {
		return nil, false, err
	}
	candidates := make([]task.Task, 0, len(all))
	for _, t := range all {
		if c.offer(t) {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		fmt.Fprintln(app.Out, c.empty)
		return nil, true, nil
	}

	fmt.Fprintln(app.Out, c.header)
	renderTable(app.Out, candidates, app.Config.ASCII)
	fmt.Fprint(app.Out, selectionPrompt)

	line, err := app.In.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, false, fmt.Errorf("%w: %v", ErrInput, err)
	}
	return parseSelection(line), false, nil
}

// parseIDArgs parses positional ids strictly.
func parseIDArgs(args []string) ([]uint64, error) {
	ids := make([]uint64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseUint(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid task id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseSelection parses whitespace-separated ids, skipping tokens that are
// not unsigned integers. Order and duplicates are kept.
func parseSelection(line string) []uint64 {
	var ids []uint64
	for _, tok := range strings.Fields(line) {
		id, err := strconv.ParseUint(tok, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func reorderFlags(args []string, takesValue map[string]bool) []string {
	if len(args) == 0 {
		return args
	}
	var flags []string
	var rest []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			if i+1 < len(args) {
				rest = append(rest, args[i+1:]...)
			}
			break
		}
		if strings.HasPrefix(a, "-") && len(a) > 1 {
			flags = append(flags, a)
			if takesValue[a] && !strings.Contains(a, "=") {
				if i+1 < len(args) {
					flags = append(flags, args[i+1])
					i++
				}
			}
			continue
		}
		rest = append(rest, a)
	}
	if len(rest) > 0 {
		flags = append(flags, "--")
	}
	return append(flags, rest...)
}
