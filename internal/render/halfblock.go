// Package render converts a Game Boy framebuffer into half-block terminal
// text, shared between the interactive terminal backend and headless
// snapshot dumps.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/harlowreyes/pocketgb/core/video"
)

// shadeOf maps a packed RGBA pixel back to one of the 4 DMG shades.
func shadeOf(pixel uint32) int {
	switch video.GBColor(pixel) {
	case video.BlackColor:
		return 0
	case video.DarkGreyColor:
		return 1
	case video.LightGreyColor:
		return 2
	case video.WhiteColor:
		return 3
	default:
		return 0
	}
}

var shadeGlyph = [4]rune{' ', '░', '▒', '█'}

// halfBlockChar picks a terminal glyph for a vertically stacked pixel pair.
// Equal shades get a shade glyph (white is blank, black a full block);
// differing shades get '▀' when the top pixel is lighter, otherwise '▄'.
func halfBlockChar(top, bottom int) rune {
	if top == bottom {
		return shadeGlyph[3-top]
	}
	if top >= bottom {
		return '▀'
	}
	return '▄'
}

// ToHalfBlocks renders a width x height pixel slice (as returned by
// FrameBuffer.ToSlice) into height/2 lines of half-block glyphs.
func ToHalfBlocks(pixels []uint32, width, height int) []string {
	lines := make([]string, 0, height/2)
	var b strings.Builder
	for y := 0; y < height; y += 2 {
		b.Reset()
		for x := 0; x < width; x++ {
			top := shadeOf(pixels[y*width+x])
			bottom := shadeOf(pixels[(y+1)*width+x])
			b.WriteRune(halfBlockChar(top, bottom))
		}
		lines = append(lines, b.String())
	}
	return lines
}

// WriteSnapshotHeader writes the common metadata comment block shared by
// every snapshot output format.
func WriteSnapshotHeader(w io.Writer, frame, instructions uint64) {
	fmt.Fprintf(w, "# Game Boy frame snapshot (half-block rendering)\n")
	fmt.Fprintf(w, "# frame=%d instructions=%d\n", frame, instructions)
	fmt.Fprintf(w, "# resolution: %dx%d pixels -> %dx%d text rows\n", video.FramebufferWidth, video.FramebufferHeight, video.FramebufferWidth, video.FramebufferHeight/2)
}
