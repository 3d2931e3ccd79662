package internal

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	tt "github.com/gnoswap-labs/apigate/internal/types"
)

// watchSettle is how long a burst of writes to one file is coalesced.
const watchSettle = 100 * time.Millisecond

// ReportFunc receives the issues of a file re-checked by the watcher.
type ReportFunc func(filename string, issues []tt.Issue)

// StartWatching re-checks Go files under dirs whenever they are written.
// The package of a changed file is re-analyzed, since a sibling edit can
// change the verdicts of every file in it.
func (e *Engine) StartWatching(dirs []string, report ReportFunc) error {
	e.watchMu.Lock()
	defer e.watchMu.Unlock()

	if e.isWatching {
		return fmt.Errorf("already watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}

	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if e.isIgnoredPath(path) {
					return filepath.SkipDir
				}
				return watcher.Add(path)
			}
			return nil
		})
		if err != nil {
			watcher.Close()
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
	}

	e.watcher = watcher
	e.isWatching = true
	go e.watchLoop(watcher, report)
	return nil
}

// StopWatching closes the watcher. It is a no-op when not watching.
func (e *Engine) StopWatching() error {
	e.watchMu.Lock()
	defer e.watchMu.Unlock()

	if !e.isWatching {
		e.logger.Debug("not watching")
		return nil
	}

	e.isWatching = false
	return e.watcher.Close()
}

func (e *Engine) watchLoop(watcher *fsnotify.Watcher, report ReportFunc) {
	pending := make(map[string]*time.Timer)
	changed := make(chan string)
	done := make(chan struct{})
	defer close(done)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !isGoWrite(event) {
				continue
			}
			name := event.Name
			if t, ok := pending[name]; ok {
				t.Reset(watchSettle)
				continue
			}
			pending[name] = time.AfterFunc(watchSettle, func() {
				select {
				case changed <- name:
				case <-done:
				}
			})
		case name := <-changed:
			delete(pending, name)
			e.recheck(name, report)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			e.logger.Error("watcher error", zap.Error(err))
		}
	}
}

func isGoWrite(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	return strings.HasSuffix(event.Name, ".go")
}

func (e *Engine) recheck(filename string, report ReportFunc) {
	e.Invalidate(filepath.Dir(filename))

	issues, err := e.Run(filename)
	if err != nil {
		e.logger.Error("error checking file", zap.String("file", filename), zap.Error(err))
		return
	}
	if report != nil {
		report(filename, issues)
		return
	}
	e.logIssues(filename, issues)
}

func (e *Engine) logIssues(filename string, issues []tt.Issue) {
	if len(issues) == 0 {
		e.logger.Info("no issues found", zap.String("file", filename))
		return
	}

	e.logger.Info("found issues", zap.String("file", filename), zap.Int("count", len(issues)))
	for _, issue := range issues {
		e.logger.Info(issue.Message, zap.String("rule", issue.Rule), zap.Int("line", issue.Start.Line))
	}
}
