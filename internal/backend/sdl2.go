package backend

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/harlowreyes/pocketgb/core"
	"github.com/harlowreyes/pocketgb/core/memory"
	"github.com/harlowreyes/pocketgb/core/timing"
	"github.com/harlowreyes/pocketgb/core/video"
)

var sdlKeymap = map[sdl.Keycode]memory.JoypadKey{
	sdl.K_UP:     memory.JoypadUp,
	sdl.K_DOWN:   memory.JoypadDown,
	sdl.K_LEFT:   memory.JoypadLeft,
	sdl.K_RIGHT:  memory.JoypadRight,
	sdl.K_RETURN: memory.JoypadStart,
	sdl.K_TAB:    memory.JoypadSelect,
	sdl.K_z:      memory.JoypadA,
	sdl.K_x:      memory.JoypadB,
}

const audioSampleRate = 44100

// SDL2 drives the emulator in a native window, using SDL for video output,
// keyboard input and queued audio playback.
type SDL2 struct {
	emu     *core.Emulator
	screen  *video.Screen
	audioID sdl.AudioDeviceID
}

func NewSDL2(emu *core.Emulator) (*SDL2, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("initializing SDL: %w", err)
	}

	screen, err := video.NewScreen("pocketgb")
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("creating window: %w", err)
	}

	audioID, err := sdl.OpenAudioDevice("", false, &sdl.AudioSpec{
		Freq:     audioSampleRate,
		Format:   sdl.AUDIO_F32SYS,
		Channels: 2,
		Samples:  1024,
	}, nil, 0)
	if err != nil {
		screen.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("opening audio device: %w", err)
	}
	sdl.PauseAudioDevice(audioID, false)

	return &SDL2{emu: emu, screen: screen, audioID: audioID}, nil
}

// Run blocks until the window is closed, driving the emulator at ~60fps.
func (s *SDL2) Run() error {
	defer s.screen.Destroy()
	defer sdl.CloseAudioDevice(s.audioID)
	defer sdl.Quit()

	limiter := timing.NewAdaptiveLimiter()

	for {
		limiter.WaitForNextFrame()

		quit := false
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				quit = true
			case *sdl.KeyboardEvent:
				gbKey, ok := sdlKeymap[e.Keysym.Sym]
				if !ok {
					continue
				}
				if e.Type == sdl.KEYDOWN {
					s.emu.HandleKeyPress(gbKey)
				} else if e.Type == sdl.KEYUP {
					s.emu.HandleKeyRelease(gbKey)
				}
			}
		}
		if quit {
			return nil
		}

		s.emu.RunUntilFrame()
		if err := s.screen.Draw(s.emu.GetCurrentFrame()); err != nil {
			return fmt.Errorf("drawing frame: %w", err)
		}
		s.queueAudio()
	}
	return nil
}

// queueAudio moves up to audioSampleRate/60 frames produced by the APU into
// the SDL audio queue. It does not check how much audio is already queued.
func (s *SDL2) queueAudio() {
	samples := s.emu.GetMMU().APU.ConsumeSamples(audioSampleRate / 60)
	if len(samples) == 0 {
		return
	}
	buf := make([]byte, len(samples)*4)
	for i, sample := range samples {
		bits := math.Float32bits(sample)
		binary.LittleEndian.PutUint32(buf[i*4:], bits)
	}
	sdl.QueueAudio(s.audioID, buf)
}
