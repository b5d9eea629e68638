package file

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTransferLifecycle(t *testing.T) {
	reg := NewRegistry()

	cancelled, ok := reg.Register("test-transfer-1", 1000)
	if !ok || cancelled == nil {
		t.Fatal("Register rejected a transfer on a running registry")
	}

	if !reg.UpdateProgress("test-transfer-1", 500) {
		t.Fatal("UpdateProgress returned false for a live transfer")
	}

	active := reg.GetActiveTransfers()
	if len(active) != 1 {
		t.Fatalf("Expected 1 active transfer, got %d", len(active))
	}
	if active[0].BytesTransferred != 500 {
		t.Errorf("Expected 500 bytes transferred, got %d", active[0].BytesTransferred)
	}
	if active[0].Status != StatusInProgress {
		t.Errorf("Expected status in_progress, got %s", active[0].Status)
	}
	if active[0].Progress() != 50.0 {
		t.Errorf("Expected 50%% progress, got %.2f", active[0].Progress())
	}

	if !reg.Complete("test-transfer-1") {
		t.Fatal("Complete returned false for a live transfer")
	}
	if isClosed(cancelled) {
		t.Error("Completing a transfer must not fire its cancel signal")
	}

	if removed := reg.CleanupFinished(); removed != 1 {
		t.Errorf("Expected 1 handle removed, got %d", removed)
	}
	if n := len(reg.GetActiveTransfers()); n != 0 {
		t.Errorf("Expected no active transfers, got %d", n)
	}
	if _, ok := reg.Get("test-transfer-1"); ok {
		t.Error("Handle still present after cleanup")
	}
}

func TestCancelTransfer(t *testing.T) {
	reg := NewRegistry()
	cancelled, ok := reg.Register("test-cancel", 0)
	if !ok {
		t.Fatal("Register failed")
	}

	if !reg.Cancel("test-cancel") {
		t.Fatal("Cancel returned false for a live transfer")
	}
	if !isClosed(cancelled) {
		t.Error("Cancel signal was not delivered")
	}

	info, _ := reg.Get("test-cancel")
	if info.Status != StatusCancelled {
		t.Errorf("Expected status cancelled, got %s", info.Status)
	}

	if reg.Cancel("test-cancel") {
		t.Error("Second Cancel should report false")
	}
	if reg.Cancel("missing") {
		t.Error("Cancel of unknown id should report false")
	}
}

func TestCancelSignalObservedByManyListeners(t *testing.T) {
	reg := NewRegistry()
	cancelled, _ := reg.Register("fanout", 0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-cancelled
		}()
	}

	reg.Cancel("fanout")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Listeners did not observe cancellation")
	}
}

func TestTerminalStatusesAreSticky(t *testing.T) {
	terminals := map[string]func(*Registry, string) bool{
		"completed": func(r *Registry, id string) bool { return r.Complete(id) },
		"failed":    func(r *Registry, id string) bool { return r.Fail(id, "boom") },
		"cancelled": func(r *Registry, id string) bool { return r.Cancel(id) },
	}

	for name, finish := range terminals {
		t.Run(name, func(t *testing.T) {
			reg := NewRegistry()
			reg.Register("t", 100)
			reg.UpdateProgress("t", 10)
			if !finish(reg, "t") {
				t.Fatal("Finishing a live transfer failed")
			}
			want, _ := reg.Get("t")

			if reg.UpdateProgress("t", 50) {
				t.Error("UpdateProgress succeeded on a terminal handle")
			}
			if reg.Complete("t") || reg.Fail("t", "again") {
				t.Error("Complete/Fail succeeded on a terminal handle")
			}
			if reg.Pause("t") || reg.Resume("t") {
				t.Error("Pause/Resume succeeded on a terminal handle")
			}

			got, _ := reg.Get("t")
			if got.Status != want.Status || got.BytesTransferred != want.BytesTransferred {
				t.Errorf("Terminal handle changed: %+v -> %+v", want, got)
			}
		})
	}
}

func TestPauseResume(t *testing.T) {
	reg := NewRegistry()
	reg.Register("p", 100)

	if reg.Pause("p") {
		t.Error("Pause should fail while pending")
	}
	reg.UpdateProgress("p", 1)
	if !reg.Pause("p") {
		t.Fatal("Pause failed for in-progress transfer")
	}
	if reg.Pause("p") {
		t.Error("Pause should fail while already paused")
	}
	if !reg.Resume("p") {
		t.Fatal("Resume failed for paused transfer")
	}
	if reg.Resume("p") {
		t.Error("Resume should fail while in progress")
	}
	if reg.Pause("missing") || reg.Resume("missing") {
		t.Error("Pause/Resume of unknown id should report false")
	}
}

func TestResumeRejectedWhileStopping(t *testing.T) {
	reg := NewRegistry()
	reg.Register("p", 100)
	reg.UpdateProgress("p", 1)
	reg.Pause("p")

	reg.Shutdown()
	if reg.Resume("p") {
		t.Error("Resume must be rejected once stopping")
	}
}

func TestShutdownRejectsNewTransfers(t *testing.T) {
	reg := NewRegistry()

	before, ok := reg.Register("before", 0)
	if !ok {
		t.Fatal("Should accept before shutdown")
	}

	reg.Shutdown()
	if !reg.IsStopping() {
		t.Fatal("IsStopping should be true after shutdown")
	}
	if !isClosed(before) {
		t.Error("Shutdown must cancel live transfers")
	}

	if _, ok := reg.Register("after", 0); ok {
		t.Error("Should reject after shutdown")
	}
	if reg.State() != StateStopped {
		t.Errorf("Expected stopped, got %s", reg.State())
	}
}

func TestRuntimeState(t *testing.T) {
	reg := NewRegistry()
	if reg.State() != StateRunning {
		t.Fatalf("Expected running, got %s", reg.State())
	}

	reg.Register("test", 0)
	reg.Shutdown()

	// Shutdown cancels everything, so no handle stays live.
	if reg.State() != StateStopped {
		t.Errorf("Expected stopped, got %s", reg.State())
	}
}

func TestShutdownIdempotent(t *testing.T) {
	reg := NewRegistry()
	sub := reg.SubscribeShutdown()
	if isClosed(sub) {
		t.Fatal("Shutdown channel closed before shutdown")
	}

	reg.Shutdown()
	reg.Shutdown()

	if !isClosed(sub) || !isClosed(reg.SubscribeShutdown()) {
		t.Error("Shutdown subscribers were not notified")
	}
}

func TestCancelAllSkipsTerminal(t *testing.T) {
	reg := NewRegistry()
	done, _ := reg.Register("done", 10)
	reg.Complete("done")
	a, _ := reg.Register("a", 10)
	b, _ := reg.Register("b", 10)

	if n := reg.CancelAll(); n != 2 {
		t.Errorf("Expected 2 cancelled, got %d", n)
	}
	if !isClosed(a) || !isClosed(b) {
		t.Error("Live transfers were not signalled")
	}
	if isClosed(done) {
		t.Error("Completed transfer must not be signalled")
	}
	info, _ := reg.Get("done")
	if info.Status != StatusCompleted {
		t.Errorf("Completed transfer changed to %s", info.Status)
	}
}

func TestRegisterReplacesLiveHandle(t *testing.T) {
	reg := NewRegistry()
	first, _ := reg.Register("dup", 10)
	second, ok := reg.Register("dup", 20)
	if !ok {
		t.Fatal("Re-register failed")
	}
	if !isClosed(first) {
		t.Error("Previous handle was not cancelled")
	}
	if isClosed(second) {
		t.Error("New handle must start uncancelled")
	}
	info, _ := reg.Get("dup")
	if info.TotalBytes != 20 || info.Status != StatusPending {
		t.Errorf("Unexpected replacement handle: %+v", info)
	}
}

func TestRegisterRejectsInvalidID(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"", strings.Repeat("x", 200), "bad\nid"} {
		if _, ok := reg.Register(id, 0); ok {
			t.Errorf("Register accepted invalid id %q", id)
		}
	}
	if reg.Len() != 0 {
		t.Errorf("Rejected ids left %d handles", reg.Len())
	}

	reg.Shutdown()
	if _, ok := reg.Register("valid", 0); ok {
		t.Error("Register accepted a valid id after shutdown")
	}
}

func TestGetActiveTransfersSorted(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"c", "a", "b"} {
		reg.Register(id, 0)
	}
	reg.Fail("b", "x")

	active := reg.GetActiveTransfers()
	if len(active) != 2 || active[0].ID != "a" || active[1].ID != "c" {
		t.Errorf("Unexpected active set: %+v", active)
	}
	if reg.Len() != 3 {
		t.Errorf("Expected 3 handles, got %d", reg.Len())
	}
}

func TestSpeedAndStall(t *testing.T) {
	clock := newMockTimeProvider()
	reg := NewRegistry(WithTimeProvider(clock), WithStallTimeout(10*time.Second))
	reg.Register("s", 10000)

	clock.advance(time.Second)
	reg.UpdateProgress("s", 1000)
	info, _ := reg.Get("s")
	if info.Speed != 1000 {
		t.Errorf("Expected speed 1000, got %.2f", info.Speed)
	}

	clock.advance(time.Second)
	reg.UpdateProgress("s", 3000)
	info, _ = reg.Get("s")
	// 0.7*1000 + 0.3*2000
	if math.Abs(info.Speed-1300) > 1e-6 {
		t.Errorf("Expected smoothed speed 1300, got %.2f", info.Speed)
	}
	if eta := info.EstimatedTimeRemaining(); eta <= 0 {
		t.Errorf("Expected positive ETA, got %v", eta)
	}

	if stalled := reg.Stalled(); len(stalled) != 0 {
		t.Errorf("Expected no stalled transfers, got %v", stalled)
	}
	clock.advance(10 * time.Second)
	stalled := reg.Stalled()
	if len(stalled) != 1 || stalled[0] != "s" {
		t.Errorf("Expected [s] stalled, got %v", stalled)
	}

	reg.Pause("s")
	if len(reg.Stalled()) != 0 {
		t.Error("Paused transfers are never stalled")
	}
}

func TestStallDetectionDisabled(t *testing.T) {
	clock := newMockTimeProvider()
	reg := NewRegistry(WithTimeProvider(clock), WithStallTimeout(0))
	reg.Register("s", 100)
	reg.UpdateProgress("s", 1)
	clock.advance(time.Hour)
	if reg.Stalled() != nil {
		t.Error("Stall detection should be disabled")
	}
}

func TestCommands(t *testing.T) {
	reg := NewRegistry()
	cmds, unsubscribe := reg.SubscribeCommands()
	defer unsubscribe()

	sig, _ := reg.Register("x", 0)
	reg.Register("y", 0)

	reg.SendCommand(CancelTransferCommand("x"))
	if !isClosed(sig) {
		t.Error("CancelTransfer command not applied")
	}
	if got := <-cmds; got.Kind != CommandCancelTransfer || got.TransferID != "x" {
		t.Errorf("Unexpected command %v", got)
	}

	reg.SendCommand(CancelAllCommand())
	if got := <-cmds; got.String() != "CancelAllTransfers" {
		t.Errorf("Unexpected command %v", got)
	}
	if len(reg.GetActiveTransfers()) != 0 {
		t.Error("CancelAll command not applied")
	}

	reg.SendCommand(ShutdownCommand())
	if got := <-cmds; got.Kind != CommandShutdown {
		t.Errorf("Unexpected command %v", got)
	}
	if !reg.IsStopping() {
		t.Error("Shutdown command not applied")
	}
}

func TestCommandSubscriberOverflowDoesNotBlock(t *testing.T) {
	reg := NewRegistry()
	_, unsubscribe := reg.SubscribeCommands()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < CommandBufferSize*2; i++ {
			reg.SendCommand(CancelAllCommand())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("SendCommand blocked on a full subscriber")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	reg := NewRegistry()
	cmds, unsubscribe := reg.SubscribeCommands()
	unsubscribe()
	unsubscribe()

	if _, open := <-cmds; open {
		t.Error("Channel should be closed after unsubscribe")
	}
	reg.SendCommand(CancelAllCommand())
}

func TestConcurrentAccess(t *testing.T) {
	reg := NewRegistry()
	const workers = 16

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			id := fmt.Sprintf("transfer-%d", w)
			reg.Register(id, 1000)
			for b := uint64(0); b <= 1000; b += 100 {
				reg.UpdateProgress(id, b)
				reg.GetActiveTransfers()
			}
			if w%2 == 0 {
				reg.Complete(id)
			} else {
				reg.Cancel(id)
			}
		}(w)
	}
	wg.Wait()

	if n := len(reg.GetActiveTransfers()); n != 0 {
		t.Errorf("Expected no active transfers, got %d", n)
	}
	if removed := reg.CleanupFinished(); removed != workers {
		t.Errorf("Expected %d removed, got %d", workers, removed)
	}
}

func TestStatusStrings(t *testing.T) {
	if StatusInProgress.String() != "in_progress" || Status(99).String() != "Status(99)" {
		t.Error("Unexpected status names")
	}
	if StateStopping.String() != "stopping" {
		t.Error("Unexpected runtime state name")
	}
}
