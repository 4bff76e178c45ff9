package core

import (
	"sync"
	"testing"
)

func TestEventRegisterFireUnregister(t *testing.T) {
	EventInitialize()
	t.Cleanup(func() { EventShutdown() })

	listener := &struct{}{}
	fired := 0
	if !EventRegister(EVENT_CODE_RESIZED, listener, func(code SystemEventCode, sender interface{}, data EventContext) bool {
		fired++
		if data.WindowWidth != 640 || data.WindowHeight != 480 {
			t.Errorf("unexpected payload: %dx%d", data.WindowWidth, data.WindowHeight)
		}
		return true
	}) {
		t.Fatal("registration failed")
	}

	if !EventFire(EVENT_CODE_RESIZED, nil, EventContext{WindowWidth: 640, WindowHeight: 480}) {
		t.Error("fire should report handled")
	}
	if fired != 1 {
		t.Errorf("expected 1 delivery, got %d", fired)
	}

	if !EventUnregister(EVENT_CODE_RESIZED, listener) {
		t.Error("unregister failed")
	}
	EventFire(EVENT_CODE_RESIZED, nil, EventContext{})
	if fired != 1 {
		t.Errorf("event delivered after unregister, count %d", fired)
	}
}

func TestEventRegisterRejectsDuplicateListener(t *testing.T) {
	EventInitialize()
	t.Cleanup(func() { EventShutdown() })

	listener := &struct{}{}
	cb := func(code SystemEventCode, sender interface{}, data EventContext) bool { return false }
	if !EventRegister(EVENT_CODE_KEY_PRESSED, listener, cb) {
		t.Fatal("first registration failed")
	}
	if EventRegister(EVENT_CODE_KEY_PRESSED, listener, cb) {
		t.Error("duplicate registration should be rejected")
	}
}

func TestEventFireStopsAtFirstHandler(t *testing.T) {
	EventInitialize()
	t.Cleanup(func() { EventShutdown() })

	var order []int
	EventRegister(EVENT_CODE_KEY_RELEASED, 1, func(code SystemEventCode, sender interface{}, data EventContext) bool {
		order = append(order, 1)
		return true
	})
	EventRegister(EVENT_CODE_KEY_RELEASED, 2, func(code SystemEventCode, sender interface{}, data EventContext) bool {
		order = append(order, 2)
		return true
	})

	EventFire(EVENT_CODE_KEY_RELEASED, nil, EventContext{})
	if len(order) != 1 || order[0] != 1 {
		t.Errorf("expected only first listener to run, got %v", order)
	}
}

func TestEventFireFromMultipleGoroutines(t *testing.T) {
	EventInitialize()
	t.Cleanup(func() { EventShutdown() })

	var mu sync.Mutex
	count := 0
	EventRegister(EVENT_CODE_SHADER_MODIFIED, t, func(code SystemEventCode, sender interface{}, data EventContext) bool {
		mu.Lock()
		count++
		mu.Unlock()
		return false
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			EventFire(EVENT_CODE_SHADER_MODIFIED, nil, EventContext{Path: "shaders/triangle.frag.spv"})
		}()
	}
	wg.Wait()

	if count != 8 {
		t.Errorf("expected 8 deliveries, got %d", count)
	}
}
