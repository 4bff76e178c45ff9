package renderer

import (
	"fmt"
	"math"
	"path/filepath"
	"sync/atomic"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/vetro-engine/vetro/engine/core"
	"github.com/vetro-engine/vetro/engine/platform"
	"github.com/vetro-engine/vetro/engine/renderer/vulkan"
)

// Config is the renderer's slice of the application configuration.
type Config struct {
	AppName           string
	FramesInFlight    uint32
	DesiredImageCount uint32
	VSync             bool
	Validation        bool
	ShaderDir         string
}

// pipelineNames are the shader base names of the toggleable pipelines, in
// toggle order. Each expects <name>.vert.spv and <name>.frag.spv under the
// shader directory.
var pipelineNames = [2]string{"triangle", "flat"}

// fenceWaitTimeoutNs bounds every fence and acquire wait so an unresponsive
// device surfaces as an error instead of a hang.
const fenceWaitTimeoutNs uint64 = 10 * 1_000_000_000

// frameViewport covers the full swapchain extent. The extent is the clamped
// size the framebuffers were built at, which can differ from the raw
// framebuffer size when the surface bounds the requested extent.
func frameViewport(extent vk.Extent2D) vk.Viewport {
	return vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
}

func frameScissor(extent vk.Extent2D) vk.Rect2D {
	return vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: extent,
	}
}

// Renderer owns the full Vulkan state and drives the per-frame
// acquire/record/submit/present cycle over it.
type Renderer struct {
	platform *platform.Platform
	config   Config
	context  *vulkan.Context
	id       core.ResourceID

	FrameNumber uint64

	mainRenderPass *vulkan.RenderPass
	frameSync      *vulkan.FrameSynchronizer
	vertexBuffer   *vulkan.VertexBuffer
	pipelines      [2]*vulkan.Pipeline

	// Index into pipelines of the pipeline used for the next frame.
	activePipeline int32

	recreatingSwapchain bool
	// Set from the shader watcher goroutine, consumed at frame boundaries.
	shaderDirty atomic.Bool
}

func New(p *platform.Platform, config Config) *Renderer {
	return &Renderer{
		platform: p,
		config:   config,
		id:       core.NewResourceID("renderer"),
		context: &vulkan.Context{
			Device: &vulkan.Device{QueueFamilyIndex: -1},
		},
	}
}

// Initialize brings up the whole Vulkan stack: instance, surface, device,
// swapchain, render pass, framebuffers, frame synchronization, pipelines and
// the triangle's vertex buffer.
func (r *Renderer) Initialize(width, height uint32) error {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return fmt.Errorf("%w: Vulkan loader not available", core.ErrInitialization)
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return fmt.Errorf("%w: initializing Vulkan bindings: %v", core.ErrInitialization, err)
	}

	r.context.FramebufferWidth = width
	r.context.FramebufferHeight = height

	if err := vulkan.CreateInstance(r.context, &vulkan.InstanceConfig{
		AppName:            r.config.AppName,
		RequiredExtensions: r.platform.GetRequiredExtensionNames(),
		Validation:         r.config.Validation,
	}); err != nil {
		return err
	}

	core.LogDebug("[%s] Creating Vulkan surface...", r.id)
	surface, err := r.platform.Window.CreateWindowSurface(r.context.Instance, nil)
	if err != nil {
		return fmt.Errorf("%w: creating window surface: %v", core.ErrInitialization, err)
	}
	r.context.Surface = vk.SurfaceFromPointer(surface)

	if err := vulkan.DeviceCreate(r.context); err != nil {
		return err
	}

	swapchain, err := vulkan.SwapchainCreate(r.context, r.swapchainConfig())
	if err != nil {
		return err
	}
	r.context.Swapchain = swapchain

	renderPass, err := vulkan.RenderPassCreate(
		r.context,
		0, 0, float32(swapchain.Extent.Width), float32(swapchain.Extent.Height),
		0.0, 0.0, 0.2, 1.0,
		1.0,
		0)
	if err != nil {
		return err
	}
	r.mainRenderPass = renderPass

	if err := r.regenerateFramebuffers(); err != nil {
		return err
	}

	frameSync, err := vulkan.NewFrameSynchronizer(r.context, r.config.FramesInFlight, r.context.Swapchain.ImageCount)
	if err != nil {
		return err
	}
	r.frameSync = frameSync

	if err := r.buildPipelines(); err != nil {
		return err
	}

	vertexBuffer, err := vulkan.NewVertexBuffer(r.context, triangleVertices())
	if err != nil {
		return err
	}
	r.vertexBuffer = vertexBuffer

	core.LogInfo("[%s] Renderer initialized.", r.id)
	return nil
}

// triangleVertices is the one piece of geometry this core draws.
func triangleVertices() []vulkan.Vertex {
	return []vulkan.Vertex{
		{Position: [3]float32{0.0, -0.5, 0.0}, Color: [3]float32{1.0, 0.0, 0.0}},
		{Position: [3]float32{0.5, 0.5, 0.0}, Color: [3]float32{0.0, 1.0, 0.0}},
		{Position: [3]float32{-0.5, 0.5, 0.0}, Color: [3]float32{0.0, 0.0, 1.0}},
	}
}

func (r *Renderer) swapchainConfig() vulkan.SwapchainConfig {
	return vulkan.SwapchainConfig{
		Width:             r.context.FramebufferWidth,
		Height:            r.context.FramebufferHeight,
		DesiredImageCount: r.config.DesiredImageCount,
		FramesInFlight:    r.config.FramesInFlight,
		VSync:             r.config.VSync,
	}
}

// buildPipelines loads each pipeline's shader pair and builds the graphics
// pipelines. Shader modules are destroyed once the pipelines hold them.
func (r *Renderer) buildPipelines() error {
	viewport := frameViewport(r.context.Swapchain.Extent)
	scissor := frameScissor(r.context.Swapchain.Extent)

	for i, name := range pipelineNames {
		vertStage, err := vulkan.LoadShaderStage(r.context, filepath.Join(r.config.ShaderDir, name+".vert.spv"), vk.ShaderStageVertexBit)
		if err != nil {
			return err
		}
		fragStage, err := vulkan.LoadShaderStage(r.context, filepath.Join(r.config.ShaderDir, name+".frag.spv"), vk.ShaderStageFragmentBit)
		if err != nil {
			vertStage.Destroy(r.context)
			return err
		}

		pipeline, err := vulkan.NewGraphicsPipeline(r.context, &vulkan.PipelineConfig{
			RenderPass: r.mainRenderPass,
			Stride:     vulkan.VertexStride,
			Attributes: vulkan.VertexAttributes(),
			Stages: []vk.PipelineShaderStageCreateInfo{
				vertStage.StageCreateInfo,
				fragStage.StageCreateInfo,
			},
			Viewport:   viewport,
			Scissor:    scissor,
			CullMode:   vk.CullModeNone,
			DepthTest:  true,
			DepthWrite: true,
		})
		vertStage.Destroy(r.context)
		fragStage.Destroy(r.context)
		if err != nil {
			return fmt.Errorf("building pipeline %q: %w", name, err)
		}
		r.pipelines[i] = pipeline
	}
	return nil
}

func (r *Renderer) destroyPipelines() {
	for i, pipeline := range r.pipelines {
		if pipeline != nil {
			pipeline.Destroy(r.context)
			r.pipelines[i] = nil
		}
	}
}

// TogglePipeline switches which pipeline records the next frame. Safe to
// call from event handlers; the switch takes effect at the next frame
// boundary.
func (r *Renderer) TogglePipeline() {
	next := (atomic.LoadInt32(&r.activePipeline) + 1) % int32(len(r.pipelines))
	atomic.StoreInt32(&r.activePipeline, next)
	core.LogInfo("[%s] Switched to pipeline '%s'.", r.id, pipelineNames[next])
}

// MarkShadersDirty schedules a pipeline rebuild at the next frame boundary.
// Called from the shader watcher goroutine.
func (r *Renderer) MarkShadersDirty() {
	r.shaderDirty.Store(true)
}

// Resized records the new framebuffer size; the swapchain is rebuilt on the
// next DrawFrame.
func (r *Renderer) Resized(width, height uint32) {
	r.context.NotifyResized(width, height)
	core.LogDebug("[%s] Resize recorded: %dx%d (generation %d).", r.id, width, height, r.context.FramebufferSizeGeneration)
}

// DrawFrame runs one pass of the frame loop. A frame may be skipped without
// error while the swapchain is being recreated or the window has zero area.
func (r *Renderer) DrawFrame(deltaTime float64) error {
	if r.recreatingSwapchain {
		core.LogDebug("[%s] Swapchain recreation in progress, skipping frame.", r.id)
		return nil
	}

	if r.context.FramebufferSizeOutOfDate() {
		if err := r.recreateSwapchain(); err != nil {
			return err
		}
		return nil
	}

	if r.shaderDirty.CompareAndSwap(true, false) {
		if err := r.reloadPipelines(); err != nil {
			core.LogError("[%s] Shader reload failed, keeping previous pipelines: %s", r.id, err.Error())
		}
	}

	imageIndex, err := r.frameSync.AcquireFrame(r.context, r.context.Swapchain, fenceWaitTimeoutNs)
	if err != nil {
		// Suboptimal still delivered a usable image: render this frame, then
		// recreate. Out-of-date delivered nothing; abandon the frame.
		if vulkan.IsRecoverableAcquire(err) {
			r.context.NotifyResized(r.context.FramebufferWidth, r.context.FramebufferHeight)
		} else if core.IsRecoverable(err) {
			r.frameSync.Abort()
			r.context.NotifyResized(r.context.FramebufferWidth, r.context.FramebufferHeight)
			return nil
		} else {
			return err
		}
	}

	commandBuffer, err := r.frameSync.BeginRecording()
	if err != nil {
		r.frameSync.Abort()
		return err
	}

	// Viewport, scissor and the render area all follow the extent the
	// framebuffers were actually built at.
	extent := r.context.Swapchain.Extent
	vk.CmdSetViewport(commandBuffer.Handle, 0, 1, []vk.Viewport{frameViewport(extent)})
	vk.CmdSetScissor(commandBuffer.Handle, 0, 1, []vk.Rect2D{frameScissor(extent)})

	r.mainRenderPass.W = float32(extent.Width)
	r.mainRenderPass.H = float32(extent.Height)
	r.mainRenderPass.B = float32(math.Abs(math.Sin(float64(r.FrameNumber) / 120.0)))

	r.mainRenderPass.RenderPassBegin(commandBuffer, r.context.Swapchain.Framebuffers[imageIndex].Handle)

	pipeline := r.pipelines[atomic.LoadInt32(&r.activePipeline)]
	pipeline.Bind(commandBuffer, vk.PipelineBindPointGraphics)
	r.vertexBuffer.Bind(commandBuffer)
	vk.CmdDraw(commandBuffer.Handle, r.vertexBuffer.VertexCount, 1, 0, 0)

	r.mainRenderPass.RenderPassEnd(commandBuffer)

	if err := r.frameSync.SubmitFrame(r.context, r.context.Device.Queue); err != nil {
		r.frameSync.Abort()
		return err
	}

	if err := r.frameSync.PresentFrame(r.context, r.context.Swapchain, r.context.Device.Queue, imageIndex); err != nil {
		if core.IsRecoverable(err) {
			r.context.NotifyResized(r.context.FramebufferWidth, r.context.FramebufferHeight)
		} else {
			return err
		}
	}

	r.FrameNumber++
	return nil
}

// reloadPipelines drains the device and rebuilds both pipelines from the
// current .spv files on disk.
func (r *Renderer) reloadPipelines() error {
	core.LogInfo("[%s] Reloading shader pipelines...", r.id)
	vk.DeviceWaitIdle(r.context.Device.LogicalDevice)

	old := r.pipelines
	r.pipelines = [2]*vulkan.Pipeline{}
	if err := r.buildPipelines(); err != nil {
		// Rebuild failed; the old pipelines are still valid, keep them.
		r.pipelines = old
		return err
	}
	for _, pipeline := range old {
		if pipeline != nil {
			pipeline.Destroy(r.context)
		}
	}
	core.LogInfo("[%s] Shader pipelines reloaded.", r.id)
	return nil
}

func (r *Renderer) regenerateFramebuffers() error {
	swapchain := r.context.Swapchain
	swapchain.Framebuffers = make([]*vulkan.Framebuffer, swapchain.ImageCount)
	for i := 0; i < int(swapchain.ImageCount); i++ {
		attachments := []vk.ImageView{
			swapchain.Views[i],
			swapchain.DepthAttachment.View,
		}
		framebuffer, err := vulkan.FramebufferCreate(
			r.context,
			r.mainRenderPass,
			swapchain.Extent.Width,
			swapchain.Extent.Height,
			attachments)
		if err != nil {
			return err
		}
		swapchain.Framebuffers[i] = framebuffer
	}
	return nil
}

// recreateSwapchain rebuilds the swapchain and everything sized by it. A
// zero-area framebuffer (minimized window) leaves the out-of-date state in
// place so the rebuild retries once the window has size again.
func (r *Renderer) recreateSwapchain() error {
	if r.context.FramebufferWidth == 0 || r.context.FramebufferHeight == 0 {
		core.LogDebug("[%s] Window has zero area, deferring swapchain recreation.", r.id)
		return nil
	}

	r.recreatingSwapchain = true
	defer func() { r.recreatingSwapchain = false }()

	// No slot may still reference images of the old generation. Fence waits
	// surface an unresponsive device as an error instead of hanging forever.
	if err := r.frameSync.WaitIdle(r.context, fenceWaitTimeoutNs); err != nil {
		return err
	}
	vk.DeviceWaitIdle(r.context.Device.LogicalDevice)

	for _, framebuffer := range r.context.Swapchain.Framebuffers {
		framebuffer.Destroy(r.context)
	}
	r.context.Swapchain.Framebuffers = nil

	oldFormat := r.context.Swapchain.ImageFormat.Format
	swapchain, err := r.context.Swapchain.SwapchainRecreate(r.context, r.swapchainConfig())
	if err != nil {
		return err
	}
	r.context.Swapchain = swapchain

	// A new surface format invalidates the render pass and every pipeline
	// built against it. Pipelines are immutable; rebuild, never mutate.
	if swapchain.ImageFormat.Format != oldFormat {
		core.LogInfo("[%s] Surface format changed, rebuilding render pass and pipelines.", r.id)
		r.mainRenderPass.RenderPassDestroy(r.context)
		renderPass, err := vulkan.RenderPassCreate(
			r.context,
			0, 0, float32(swapchain.Extent.Width), float32(swapchain.Extent.Height),
			r.mainRenderPass.R, r.mainRenderPass.G, r.mainRenderPass.B, r.mainRenderPass.A,
			r.mainRenderPass.Depth,
			r.mainRenderPass.Stencil)
		if err != nil {
			return err
		}
		r.mainRenderPass = renderPass

		r.destroyPipelines()
		if err := r.buildPipelines(); err != nil {
			return err
		}
	}

	r.mainRenderPass.W = float32(swapchain.Extent.Width)
	r.mainRenderPass.H = float32(swapchain.Extent.Height)

	if err := r.regenerateFramebuffers(); err != nil {
		return err
	}

	r.frameSync.ResetImageTracking(r.context.Swapchain.ImageCount)
	r.context.FramebufferSizeLastGeneration = r.context.FramebufferSizeGeneration

	core.LogInfo("[%s] Swapchain recreated at %dx%d.", r.id, r.context.Swapchain.Extent.Width, r.context.Swapchain.Extent.Height)
	return nil
}

// Shutdown drains the device and destroys everything in reverse creation
// order.
func (r *Renderer) Shutdown() {
	if r.context.Device.LogicalDevice == nil {
		return
	}
	vk.DeviceWaitIdle(r.context.Device.LogicalDevice)

	if r.vertexBuffer != nil {
		r.vertexBuffer.Destroy(r.context)
		r.vertexBuffer = nil
	}
	r.destroyPipelines()

	if r.frameSync != nil {
		r.frameSync.Destroy(r.context)
		r.frameSync = nil
	}

	if r.context.Swapchain != nil {
		for _, framebuffer := range r.context.Swapchain.Framebuffers {
			framebuffer.Destroy(r.context)
		}
		r.context.Swapchain.Framebuffers = nil
	}

	if r.mainRenderPass != nil {
		r.mainRenderPass.RenderPassDestroy(r.context)
		r.mainRenderPass = nil
	}

	if r.context.Swapchain != nil {
		r.context.Swapchain.SwapchainDestroy(r.context)
		r.context.Swapchain = nil
	}

	vulkan.DeviceDestroy(r.context)

	if r.context.Surface != vk.NullSurface {
		vk.DestroySurface(r.context.Instance, r.context.Surface, r.context.Allocator)
		r.context.Surface = vk.NullSurface
	}

	vulkan.DestroyInstance(r.context)
	core.LogInfo("[%s] Renderer shut down.", r.id)
}
