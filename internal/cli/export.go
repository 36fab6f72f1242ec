package cli

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/bttglc/grillo/internal/task"
)

var exportNow = func() time.Time { return time.Now().UTC() }

// taskView is the JSON shape of a task in exports.
type taskView struct {
	ID          uint64 `json:"id"`
	Description string `json:"description"`
	Created     string `json:"created"`
	Scheduled   string `json:"scheduled"`
	Deadline    string `json:"deadline,omitempty"`
	Status      string `json:"status"`
	Context     *int64 `json:"context,omitempty"`
	Project     *int64 `json:"project,omitempty"`
}

type exportDoc struct {
	ExportID string     `json:"export_id"`
	Tasks    []taskView `json:"tasks"`
}

// exportLine is one NDJSON record: the task fields plus the export id.
type exportLine struct {
	ExportID string `json:"export_id"`
	taskView
}

func viewOf(t task.Task) taskView {
	v := taskView{
		ID:          t.IDValue(),
		Description: t.Description,
		Created:     t.Created.UTC().Format(task.TimestampLayout),
		Scheduled:   t.Scheduled.String(),
		Status:      t.Status.String(),
		Context:     t.Context,
		Project:     t.Project,
	}
	if t.Deadline != nil {
		v.Deadline = t.Deadline.String()
	}
	return v
}

// exportTasks handles --json/--ndjson for ls. It returns the written path,
// or "" when the document went to stdout.
func exportTasks(app *App, tasks []task.Task) (string, error) {
	id := newULID(exportNow())
	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, viewOf(t))
	}

	if app.Flags.NDJSON {
		data, err := encodeNDJSON(id, views)
		if err != nil {
			return "", err
		}
		if app.Flags.StdoutNDJSON {
			_, err := app.Out.Write(data)
			return "", err
		}
		return writeExportFile(app.Config.ExportDir, "tasks", id, "ndjson", data)
	}

	doc := exportDoc{ExportID: id, Tasks: views}
	if app.Flags.StdoutJSON {
		return "", writeJSON(app.Out, doc)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return writeExportFile(app.Config.ExportDir, "tasks", id, "json", append(data, '\n'))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func encodeNDJSON(id string, views []taskView) ([]byte, error) {
	var b strings.Builder
	for _, v := range views {
		line, err := json.Marshal(exportLine{ExportID: id, taskView: v})
		if err != nil {
			return nil, err
		}
		b.Write(line)
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}

// writeExportFile writes data to <dir>/<base>-<id>.<ext> through a temp file
// and rename, so readers never see a partial export.
func writeExportFile(dir, base, id, ext string, data []byte) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("export directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s-%s.%s", base, strings.ToLower(id), ext)
	path := filepath.Join(dir, name)
	for i := 1; ; i++ {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			break
		}
		name = fmt.Sprintf("%s-%s-%d.%s", base, strings.ToLower(id), i, ext)
		path = filepath.Join(dir, name)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return "", err
	}
	return path, nil
}

func newULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		// fallback
		return fmt.Sprintf("%d", t.UnixNano())
	}
	return id.String()
}
