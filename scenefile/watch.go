// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenefile

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/compose"
)

// DebounceInterval is how long Watch waits after the last change before
// reloading. Editors often write a file in several steps.
var DebounceInterval = 100 * time.Millisecond

// Watch calls fn with the reloaded scene, or the load error, every time the
// file at path changes. It watches the parent directory so that editors
// replacing the file by rename are followed. Watch blocks until ctx is
// done and then returns ctx.Err().
//
// fn runs on the watching goroutine; a compositor shared with a render loop
// must be updated from that loop, for example by sending the scene over a
// channel.
func Watch(ctx context.Context, path string, fn func(*Scene, error)) error {
	path = filepath.Clean(path)
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("scenefile: watch: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("scenefile: watch %s: %w", path, err)
	}
	log := compose.Logger()
	log.Info("scenefile: watching", "path", path)

	timer := time.NewTimer(DebounceInterval)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			log.Debug("scenefile: change", "op", ev.Op.String())
			timer.Reset(DebounceInterval)

		case <-timer.C:
			s, err := Load(path)
			if err != nil {
				log.Warn("scenefile: reload failed", "path", path, "error", err)
			}
			fn(s, err)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("scenefile: watcher error", "error", err)
		}
	}
}
