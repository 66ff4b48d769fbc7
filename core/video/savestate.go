package video

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const gpuSaveStateVersion uint8 = 1

// Serialize captures PPU scanline/mode timing state not already covered by
// the MMU's flat memory snapshot (LCDC/STAT/LY/palettes live in memory and
// are restored separately).
func (g *GPU) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(gpuSaveStateVersion)
	binary.Write(&buf, binary.LittleEndian, int32(g.mode))
	binary.Write(&buf, binary.LittleEndian, int32(g.line))
	binary.Write(&buf, binary.LittleEndian, int32(g.cycles))
	binary.Write(&buf, binary.LittleEndian, int32(g.modeCounterAux))
	binary.Write(&buf, binary.LittleEndian, int32(g.vBlankLine))
	binary.Write(&buf, binary.LittleEndian, int32(g.pixelCounter))
	binary.Write(&buf, binary.LittleEndian, int32(g.tileCycleCounter))
	binary.Write(&buf, binary.LittleEndian, int32(g.windowLine))
	if g.isScanLineTransfered {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	buf.Write(g.framebuffer.ToBinaryData())
	return buf.Bytes(), nil
}

// Deserialize restores PPU state from a Serialize snapshot.
func (g *GPU) Deserialize(data []byte) error {
	r := bytes.NewReader(data)
	version, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("gpu: truncated snapshot: %w", err)
	}
	if version != gpuSaveStateVersion {
		return fmt.Errorf("gpu: unsupported snapshot version %d", version)
	}

	var mode, line, cycles, modeCounterAux, vBlankLine, pixelCounter, tileCycleCounter, windowLine int32
	for _, field := range []*int32{&mode, &line, &cycles, &modeCounterAux, &vBlankLine, &pixelCounter, &tileCycleCounter, &windowLine} {
		if err := binary.Read(r, binary.LittleEndian, field); err != nil {
			return fmt.Errorf("gpu: truncated timing state: %w", err)
		}
	}
	g.mode = GpuMode(mode)
	g.line, g.cycles = int(line), int(cycles)
	g.modeCounterAux, g.vBlankLine = int(modeCounterAux), int(vBlankLine)
	g.pixelCounter, g.tileCycleCounter = int(pixelCounter), int(tileCycleCounter)
	g.windowLine = int(windowLine)

	transfered, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("gpu: truncated scanline flag: %w", err)
	}
	g.isScanLineTransfered = transfered != 0

	pixels := make([]byte, FramebufferSize*4)
	if _, err := io.ReadFull(r, pixels); err != nil {
		return fmt.Errorf("gpu: truncated framebuffer: %w", err)
	}
	for i := 0; i < FramebufferSize; i++ {
		p := pixels[i*4:]
		color := uint32(p[0])<<24 | uint32(p[1])<<16 | uint32(p[2])<<8 | uint32(p[3])
		g.framebuffer.SetPixel(uint(i)%FramebufferWidth, uint(i)/FramebufferWidth, GBColor(color))
	}
	return nil
}
