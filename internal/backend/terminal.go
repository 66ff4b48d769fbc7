package backend

import (
	"github.com/gdamore/tcell/v2"

	"github.com/harlowreyes/pocketgb/core"
	"github.com/harlowreyes/pocketgb/core/memory"
	"github.com/harlowreyes/pocketgb/core/timing"
	"github.com/harlowreyes/pocketgb/internal/render"
)

var keymap = map[tcell.Key]memory.JoypadKey{
	tcell.KeyUp:    memory.JoypadUp,
	tcell.KeyDown:  memory.JoypadDown,
	tcell.KeyLeft:  memory.JoypadLeft,
	tcell.KeyRight: memory.JoypadRight,
	tcell.KeyEnter: memory.JoypadStart,
	tcell.KeyTab:   memory.JoypadSelect,
}

var runeKeymap = map[rune]memory.JoypadKey{
	'z': memory.JoypadA,
	'x': memory.JoypadB,
}

// Terminal drives the emulator interactively, rendering each frame as
// half-block glyphs directly onto the terminal screen.
type Terminal struct {
	emu    *core.Emulator
	screen tcell.Screen
}

func NewTerminal(emu *core.Emulator) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.HideCursor()

	return &Terminal{emu: emu, screen: screen}, nil
}

// Run blocks until the user quits (Escape or Ctrl-C), driving the emulator
// at roughly 60 frames per second.
func (t *Terminal) Run() error {
	defer t.screen.Fini()

	events := make(chan tcell.Event, 16)
	go t.screen.ChannelEvents(events, nil)

	limiter := timing.NewTickerLimiter()
	defer limiter.Stop()

	ticks := make(chan struct{})
	go func() {
		for {
			limiter.WaitForNextFrame()
			ticks <- struct{}{}
		}
	}()

	for {
		select {
		case ev := <-events:
			switch e := ev.(type) {
			case *tcell.EventKey:
				if e.Key() == tcell.KeyEscape || e.Key() == tcell.KeyCtrlC {
					return nil
				}
				if gbKey, ok := keymap[e.Key()]; ok {
					t.emu.HandleKeyPress(gbKey)
					t.emu.HandleKeyRelease(gbKey)
				} else if gbKey, ok := runeKeymap[e.Rune()]; ok {
					t.emu.HandleKeyPress(gbKey)
					t.emu.HandleKeyRelease(gbKey)
				}
			case *tcell.EventResize:
				t.screen.Sync()
			}
		case <-ticks:
			t.emu.RunUntilFrame()
			t.draw()
		}
	}
}

func (t *Terminal) draw() {
	fb := t.emu.GetCurrentFrame()
	lines := render.ToHalfBlocks(fb.ToSlice(), 160, 144)
	for y, line := range lines {
		for x, r := range line {
			t.screen.SetContent(x, y, r, nil, tcell.StyleDefault)
		}
	}
	t.screen.Show()
}
