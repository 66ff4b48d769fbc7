package video

import (
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"
)

const renderScale = 3

// Screen encapsulates an SDL2 window used to present FrameBuffer contents.
type Screen struct {
	window   *sdl.Window
	renderer *sdl.Renderer
}

// NewScreen initializes and returns a screen sized for the DMG resolution.
func NewScreen(title string) (*Screen, error) {
	window, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		FramebufferWidth*renderScale,
		FramebufferHeight*renderScale,
		sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return nil, err
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		window.Destroy()
		return nil, err
	}

	return &Screen{window: window, renderer: renderer}, nil
}

// Draw presents the given frame, scaled to fill the window.
func (s *Screen) Draw(fb *FrameBuffer) error {
	pixels := fb.ToSlice()

	surface, err := sdl.CreateRGBSurfaceFrom(
		unsafe.Pointer(&pixels[0]),
		FramebufferWidth,
		FramebufferHeight,
		32,
		4*FramebufferWidth,
		0xFF000000,
		0x00FF0000,
		0x0000FF00,
		0x000000FF)
	if err != nil {
		return err
	}
	defer surface.Free()

	tex, err := s.renderer.CreateTextureFromSurface(surface)
	if err != nil {
		return err
	}
	defer tex.Destroy()

	s.renderer.Clear()
	s.renderer.Copy(tex, nil, nil)
	s.renderer.Present()
	return nil
}

// Destroy releases the window and renderer.
func (s *Screen) Destroy() {
	s.renderer.Destroy()
	s.window.Destroy()
}
