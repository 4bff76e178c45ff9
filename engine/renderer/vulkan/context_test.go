package vulkan

import "testing"

func TestFramebufferSizeGenerations(t *testing.T) {
	c := &Context{}
	if c.FramebufferSizeOutOfDate() {
		t.Error("fresh context should not be out of date")
	}

	c.NotifyResized(1920, 1080)
	if !c.FramebufferSizeOutOfDate() {
		t.Error("resize should flag the swapchain out of date")
	}
	if c.FramebufferWidth != 1920 || c.FramebufferHeight != 1080 {
		t.Errorf("dimensions not recorded: %dx%d", c.FramebufferWidth, c.FramebufferHeight)
	}

	// A second resize before recreation just bumps the generation again.
	c.NotifyResized(800, 600)
	if c.FramebufferSizeGeneration != 2 {
		t.Errorf("expected generation 2, got %d", c.FramebufferSizeGeneration)
	}

	c.FramebufferSizeLastGeneration = c.FramebufferSizeGeneration
	if c.FramebufferSizeOutOfDate() {
		t.Error("synced generations should not read as out of date")
	}
}

func TestResourceTallyBalancesAcrossRepeatedRecreation(t *testing.T) {
	c := &Context{}
	const imageCount = 3

	// One creation plus several recreations at an unchanged extent, in the
	// order the swapchain paths record them.
	for cycle := 0; cycle < 4; cycle++ {
		if cycle > 0 {
			c.tally.recordDestroy("framebuffer", imageCount)
			c.tally.recordDestroy("depth-attachment", 1)
			c.tally.recordDestroy("swapchain-image-view", imageCount)
		}
		c.tally.recordCreate("swapchain-image-view", imageCount)
		c.tally.recordCreate("depth-attachment", 1)
		c.tally.recordCreate("framebuffer", imageCount)

		// Exactly one live generation, no matter how many recreations.
		for _, kind := range []string{"swapchain-image-view", "framebuffer"} {
			if got := c.tally.outstanding(kind); got != imageCount {
				t.Fatalf("cycle %d: %d outstanding %s, want %d", cycle, got, kind, imageCount)
			}
		}
		if got := c.tally.outstanding("depth-attachment"); got != 1 {
			t.Fatalf("cycle %d: %d outstanding depth attachments, want 1", cycle, got)
		}
	}

	// Final teardown balances every kind exactly.
	c.tally.recordDestroy("framebuffer", imageCount)
	c.tally.recordDestroy("depth-attachment", 1)
	c.tally.recordDestroy("swapchain-image-view", imageCount)
	if !c.tally.balanced() {
		t.Error("create/destroy counts should balance after teardown")
	}
}

func TestResourceTallyDetectsLeak(t *testing.T) {
	var tally resourceTally
	tally.recordCreate("swapchain-image-view", 3)
	tally.recordDestroy("swapchain-image-view", 2)
	if tally.balanced() {
		t.Error("a leaked image view should unbalance the tally")
	}
	if got := tally.outstanding("swapchain-image-view"); got != 1 {
		t.Errorf("expected 1 outstanding view, got %d", got)
	}
}

func TestFramebufferDestroyWithoutHandleRecordsNothing(t *testing.T) {
	c := &Context{}
	f := &Framebuffer{}
	f.Destroy(c)
	if got := c.tally.outstanding("framebuffer"); got != 0 {
		t.Errorf("destroying an empty framebuffer changed the tally by %d", got)
	}
}
