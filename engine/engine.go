package engine

import (
	"fmt"

	"github.com/vetro-engine/vetro/engine/assets"
	"github.com/vetro-engine/vetro/engine/core"
	"github.com/vetro-engine/vetro/engine/platform"
	"github.com/vetro-engine/vetro/engine/renderer"
)

// Engine wires the platform, event system and renderer together and drives
// the main loop.
type Engine struct {
	config   Config
	platform *platform.Platform
	renderer *renderer.Renderer
	watcher  *assets.ShaderWatcher

	clock    *core.Clock
	lastTime float64

	isRunning   bool
	isSuspended bool
	width       uint32
	height      uint32
}

func New(config Config) (*Engine, error) {
	core.SetLogLevel(config.Logging.Level)

	p := platform.New()
	return &Engine{
		config:    config,
		platform:  p,
		clock:     core.NewClock(),
		isRunning: true,
		width:     config.Application.Width,
		height:    config.Application.Height,
		renderer: renderer.New(p, renderer.Config{
			AppName:           config.Application.Name,
			FramesInFlight:    config.Renderer.FramesInFlight,
			DesiredImageCount: config.Renderer.DesiredImageCount,
			VSync:             config.Renderer.VSync,
			Validation:        config.Renderer.Validation,
			ShaderDir:         config.Renderer.ShaderDir,
		}),
	}, nil
}

func (e *Engine) Initialize() error {
	if !core.EventInitialize() {
		return fmt.Errorf("%w: event system", core.ErrInitialization)
	}
	if err := core.MetricsInitialize(); err != nil {
		return err
	}

	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	core.EventRegister(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	core.EventRegister(core.EVENT_CODE_RESIZED, e, e.onResized)
	core.EventRegister(core.EVENT_CODE_SHADER_MODIFIED, e, e.onShaderModified)

	if err := e.platform.Startup(e.config.Application.Name, e.width, e.height); err != nil {
		return err
	}

	// The framebuffer may differ from the requested window size on high-DPI
	// displays; the swapchain must use pixel dimensions.
	fbWidth, fbHeight := e.platform.FramebufferSize()
	if err := e.renderer.Initialize(fbWidth, fbHeight); err != nil {
		return err
	}

	if e.config.Renderer.WatchShaders {
		watcher, err := assets.NewShaderWatcher(e.config.Renderer.ShaderDir)
		if err != nil {
			core.LogWarn("Shader watching disabled: %s", err.Error())
		} else {
			e.watcher = watcher
		}
	}

	core.LogInfo("Engine initialized.")
	return nil
}

func (e *Engine) Run() error {
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning {
		if !e.platform.PumpMessages() {
			e.isRunning = false
			break
		}

		if e.isSuspended {
			continue
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStartTime := platform.GetAbsoluteTime()

		if err := e.renderer.DrawFrame(delta); err != nil {
			core.LogError("Frame draw failed, shutting down: %s", err.Error())
			e.isRunning = false
			break
		}

		frameElapsedTime := platform.GetAbsoluteTime() - frameStartTime
		core.MetricsUpdate(frameElapsedTime)

		if e.renderer.FrameNumber%240 == 0 && e.renderer.FrameNumber > 0 {
			fps, frameTime := core.MetricsFrame()
			core.LogDebug("%.1f fps, %.2f ms/frame", fps, frameTime*1000)
		}

		e.lastTime = currentTime
	}

	return nil
}

// RequestShutdown asks the main loop to exit after the current frame.
func (e *Engine) RequestShutdown() {
	core.EventFire(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{})
}

func (e *Engine) Shutdown() error {
	if e.watcher != nil {
		if err := e.watcher.Close(); err != nil {
			core.LogWarn("Closing shader watcher: %s", err.Error())
		}
		e.watcher = nil
	}
	e.renderer.Shutdown()
	if err := e.platform.Shutdown(); err != nil {
		return err
	}
	if err := core.EventShutdown(); err != nil {
		return err
	}
	core.LogInfo("Engine shut down.")
	return nil
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, data core.EventContext) bool {
	if code == core.EVENT_CODE_APPLICATION_QUIT {
		core.LogInfo("Application quit requested, shutting down.")
		e.isRunning = false
		return true
	}
	return false
}

func (e *Engine) onKey(code core.SystemEventCode, sender interface{}, data core.EventContext) bool {
	switch data.KeyCode {
	case platform.KeyEscape:
		core.EventFire(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{})
		return true
	case platform.KeySpace:
		e.renderer.TogglePipeline()
		return true
	}
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender interface{}, data core.EventContext) bool {
	width, height := data.WindowWidth, data.WindowHeight
	if width == e.width && height == e.height {
		return false
	}
	e.width = width
	e.height = height

	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending rendering.")
		e.isSuspended = true
		return true
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming rendering.")
		e.isSuspended = false
	}
	e.renderer.Resized(width, height)
	return true
}

func (e *Engine) onShaderModified(code core.SystemEventCode, sender interface{}, data core.EventContext) bool {
	e.renderer.MarkShadersDirty()
	return true
}
