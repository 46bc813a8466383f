package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	goform "github.com/reoring/goform"
	"github.com/reoring/goform/schemafile"
	"github.com/reoring/goform/signal"
)

const debounce = 100 * time.Millisecond

// watcher keeps a live form in sync with a data file and its schema. The
// form is only touched from the goroutine running Run.
type watcher struct {
	schemaPath string
	dataPath   string
	out        io.Writer
	logger     *zap.Logger
	form       *goform.Form
	printer    *signal.Effect
	fs         *fsnotify.Watcher
}

func newWatcher(schemaPath, dataPath string, out io.Writer, logger *zap.Logger) (*watcher, error) {
	schemaPath, dataPath = filepath.Clean(schemaPath), filepath.Clean(dataPath)
	schema, err := schemafile.Load(schemaPath)
	if err != nil {
		return nil, err
	}
	tree, err := readData(dataPath, nil)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// editors replace files on save, so the directories are watched
	dirs := map[string]bool{filepath.Dir(schemaPath): true, filepath.Dir(dataPath): true}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w := &watcher{
		schemaPath: schemaPath,
		dataPath:   dataPath,
		out:        out,
		logger:     logger.With(zap.String("data", dataPath), zap.String("schema", schemaPath)),
		fs:         fsw,
	}
	w.form = goform.NewForm(
		goform.WithSchema(schema),
		goform.WithDefaultData(tree),
		goform.WithLogger(w.logger),
	)
	if _, err := w.form.Validate(context.Background()); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	w.printer = w.form.Runtime().Effect(func() {
		fmt.Fprintf(w.out, "--- %s\n%s\n", filepath.Base(w.dataPath), errorLines(w.form.Errors().Get()))
	})
	return w, nil
}

// Run processes file events until ctx is done.
func (w *watcher) Run(ctx context.Context) error {
	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending = map[string]bool{}
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			name := filepath.Clean(ev.Name)
			if name != w.dataPath && name != w.schemaPath {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			w.logger.Debug("file changed", zap.String("file", name), zap.String("op", ev.Op.String()))
			pending[name] = true
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		case <-fire:
			fire = nil
			if pending[w.schemaPath] {
				w.reloadSchema()
			}
			if pending[w.dataPath] {
				w.reloadData()
			}
			clear(pending)
		}
	}
}

func (w *watcher) reloadSchema() {
	schema, err := schemafile.Load(w.schemaPath)
	if err != nil {
		w.logger.Error("reload schema", zap.Error(err))
		fmt.Fprintf(w.out, "--- %s\nerror: %v\n", filepath.Base(w.schemaPath), err)
		return
	}
	w.form.SetSchema(schema)
}

func (w *watcher) reloadData() {
	tree, err := readData(w.dataPath, nil)
	if err != nil {
		w.logger.Error("reload data", zap.Error(err))
		fmt.Fprintf(w.out, "--- %s\nerror: %v\n", filepath.Base(w.dataPath), err)
		return
	}
	w.form.Reset(tree)
}

// Close stops watching.
func (w *watcher) Close() error {
	w.printer.Dispose()
	return w.fs.Close()
}
