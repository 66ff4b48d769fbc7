package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli"

	"github.com/harlowreyes/pocketgb/core"
	"github.com/harlowreyes/pocketgb/internal/backend"
)

func main() {
	app := cli.NewApp()
	app.Name = "pocketgb"
	app.Description = "A Game Boy (DMG) emulator"
	app.Usage = "pocketgb [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run the emulator without a graphical interface",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode (required for headless)",
			Value: 0,
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save frame snapshots every N frames in headless mode (0 = disabled)",
			Value: 0,
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save frame snapshots (default: temp directory)",
		},
		cli.StringFlag{
			Name:  "backend",
			Usage: "Interactive backend to use: terminal or sdl2",
			Value: "terminal",
		},
	}
	app.Action = runEmulator

	if err := app.Run(os.Args); err != nil {
		slog.Error("emulator exited with error", "error", err)
		os.Exit(1)
	}
}

func runEmulator(c *cli.Context) error {
	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
	}

	emu, err := core.NewWithFile(romPath)
	if err != nil {
		return fmt.Errorf("loading rom: %w", err)
	}

	if c.Bool("headless") {
		return runHeadless(emu, c, romPath)
	}

	switch c.String("backend") {
	case "sdl2":
		screen, err := backend.NewSDL2(emu)
		if err != nil {
			return fmt.Errorf("starting sdl2 backend: %w", err)
		}
		return screen.Run()
	case "terminal", "":
		term, err := backend.NewTerminal(emu)
		if err != nil {
			return fmt.Errorf("starting terminal backend: %w", err)
		}
		return term.Run()
	default:
		return fmt.Errorf("unknown backend %q", c.String("backend"))
	}
}

func runHeadless(emu *core.Emulator, c *cli.Context, romPath string) error {
	frames := c.Int("frames")
	if frames <= 0 {
		return errors.New("headless mode requires --frames option with a positive value")
	}

	snapshotInterval := c.Int("snapshot-interval")
	snapshotDir := c.String("snapshot-dir")
	if snapshotInterval > 0 && snapshotDir == "" {
		tempDir, err := os.MkdirTemp("", "pocketgb-snapshots-*")
		if err != nil {
			return fmt.Errorf("creating snapshot directory: %w", err)
		}
		snapshotDir = tempDir
	}

	romName := filepathBase(romPath)

	slog.Info("running headless", "frames", frames, "rom", romPath, "snapshot_interval", snapshotInterval)

	h := backend.NewHeadless(emu)
	h.Run(frames, func(frameIndex int) {
		if snapshotInterval > 0 && frameIndex%snapshotInterval == 0 {
			path := filepath.Join(snapshotDir, fmt.Sprintf("%s_frame_%d.txt", romName, frameIndex))
			if err := backend.SaveSnapshot(emu, path); err != nil {
				slog.Error("failed to save snapshot", "frame", frameIndex, "error", err)
			} else {
				slog.Info("saved frame snapshot", "frame", frameIndex, "path", path)
			}
		}
		if frameIndex%60 == 0 {
			slog.Info("frame progress", "completed", frameIndex, "total", frames)
		}
	})

	slog.Info("headless run completed", "frames", frames, "instructions", emu.GetInstructionCount())
	return nil
}

func filepathBase(path string) string {
	name := filepath.Base(path)
	return name[:len(name)-len(filepath.Ext(name))]
}
