package assets

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/vetro-engine/vetro/engine/core"
)

// ShaderWatcher watches a directory of compiled shaders and fires
// EVENT_CODE_SHADER_MODIFIED whenever a .spv file is written. Events are
// delivered on the watcher's goroutine; listeners must be safe to call off
// the render thread.
type ShaderWatcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

func NewShaderWatcher(dir string) (*ShaderWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	sw := &ShaderWatcher{
		watcher: watcher,
		done:    make(chan struct{}),
	}
	go sw.run()

	core.LogInfo("Watching '%s' for shader changes.", dir)
	return sw, nil
}

func (sw *ShaderWatcher) run() {
	for {
		select {
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".spv") {
				continue
			}
			core.LogDebug("Shader binary changed: %s", event.Name)
			core.EventFire(core.EVENT_CODE_SHADER_MODIFIED, sw, core.EventContext{Path: event.Name})
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			core.LogWarn("Shader watcher error: %s", err.Error())
		case <-sw.done:
			return
		}
	}
}

func (sw *ShaderWatcher) Close() error {
	close(sw.done)
	return sw.watcher.Close()
}
