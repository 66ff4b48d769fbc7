// Package backend provides the platform-facing runners for the core
// emulator: a headless driver for batch/snapshot runs and an interactive
// terminal driver for manual play.
package backend

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/harlowreyes/pocketgb/core"
	"github.com/harlowreyes/pocketgb/core/timing"
	"github.com/harlowreyes/pocketgb/internal/render"
)

// Headless drives an emulator for a fixed number of frames with no
// interactive input, optionally dumping periodic frame snapshots.
type Headless struct {
	emu     *core.Emulator
	limiter timing.Limiter
}

func NewHeadless(emu *core.Emulator) *Headless {
	return &Headless{emu: emu, limiter: timing.NewNoOpLimiter()}
}

// Run executes frames instructions-worth of frames, calling onFrame after
// each completed frame (1-indexed) so the caller can log progress or save a
// snapshot.
func (h *Headless) Run(frames int, onFrame func(frameIndex int)) {
	for i := 0; i < frames; i++ {
		h.limiter.WaitForNextFrame()
		h.emu.RunUntilFrame()
		if onFrame != nil {
			onFrame(i + 1)
		}
	}
}

// SaveSnapshot writes the current frame as half-block text to path,
// creating parent directories as needed.
func SaveSnapshot(emu *core.Emulator, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	defer file.Close()

	fb := emu.GetCurrentFrame()
	render.WriteSnapshotHeader(file, emu.GetFrameCount(), emu.GetInstructionCount())
	for _, line := range render.ToHalfBlocks(fb.ToSlice(), 160, 144) {
		fmt.Fprintln(file, line)
	}
	return nil
}
