package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/harlowreyes/pocketgb/core/bit"
)

// saveStateVersion is written as the first byte of every APU snapshot so a
// future format change can be detected on load instead of silently
// misreading the payload.
const saveStateVersion uint8 = 1

// Serialize captures the registers and raw channel counters needed to
// resume playback exactly where it left off. It does not persist the
// output ring buffer: pending audio is allowed to drop across a save/load,
// only the generator state must be exact.
func (a *APU) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(saveStateVersion)

	regs := []uint8{
		a.NR10, a.NR11, a.NR12, a.NR13, a.NR14,
		a.NR21, a.NR22, a.NR23, a.NR24,
		a.NR30, a.NR31, a.NR32, a.NR33, a.NR34,
		a.NR41, a.NR42, a.NR43, a.NR44,
		a.NR50, a.NR51, a.NR52,
	}
	buf.Write(regs)
	buf.Write(a.waveRAM[:])

	binary.Write(&buf, binary.LittleEndian, int32(a.step))
	binary.Write(&buf, binary.LittleEndian, int32(a.cycles))

	for i := range a.ch {
		ch := &a.ch[i]
		binary.Write(&buf, binary.LittleEndian, ch.length)
		binary.Write(&buf, binary.LittleEndian, ch.period)
		binary.Write(&buf, binary.LittleEndian, ch.shadowFreq)
		binary.Write(&buf, binary.LittleEndian, int32(ch.freqTimer))
		binary.Write(&buf, binary.LittleEndian, int32(ch.noiseTimer))
		binary.Write(&buf, binary.LittleEndian, ch.lfsr)
		flags := []uint8{
			bit.ToByte(ch.enabled), bit.ToByte(ch.left), bit.ToByte(ch.right),
			ch.duty, ch.volume, bit.ToByte(ch.dacEnabled),
			ch.dutyStep, ch.waveIndex, ch.waveSample,
			bit.ToByte(ch.lengthEnable), bit.ToByte(ch.sweepEnabled), ch.sweepTimer,
			bit.ToByte(ch.sweepNegUsed), ch.envelopeCounter, bit.ToByte(ch.envelopeLatched),
		}
		buf.Write(flags)
	}

	return buf.Bytes(), nil
}

// Deserialize restores APU state from a snapshot produced by Serialize.
// The output ring buffer is reset; Deserialize is the APU's one fallible
// operation, matching the save-state contract for every subsystem.
func (a *APU) Deserialize(data []byte) error {
	r := bytes.NewReader(data)

	version, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("audio: truncated snapshot: %w", err)
	}
	if version != saveStateVersion {
		return fmt.Errorf("audio: unsupported snapshot version %d", version)
	}

	regs := make([]uint8, 21)
	if _, err := io.ReadFull(r, regs); err != nil {
		return fmt.Errorf("audio: truncated register block: %w", err)
	}
	a.NR10, a.NR11, a.NR12, a.NR13, a.NR14 = regs[0], regs[1], regs[2], regs[3], regs[4]
	a.NR21, a.NR22, a.NR23, a.NR24 = regs[5], regs[6], regs[7], regs[8]
	a.NR30, a.NR31, a.NR32, a.NR33, a.NR34 = regs[9], regs[10], regs[11], regs[12], regs[13]
	a.NR41, a.NR42, a.NR43, a.NR44 = regs[14], regs[15], regs[16], regs[17]
	a.NR50, a.NR51, a.NR52 = regs[18], regs[19], regs[20]

	if _, err := io.ReadFull(r, a.waveRAM[:]); err != nil {
		return fmt.Errorf("audio: truncated wave RAM: %w", err)
	}

	var step32, cycles32 int32
	if err := binary.Read(r, binary.LittleEndian, &step32); err != nil {
		return fmt.Errorf("audio: truncated sequencer state: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &cycles32); err != nil {
		return fmt.Errorf("audio: truncated sequencer state: %w", err)
	}
	a.step = int(step32)
	a.cycles = int(cycles32)

	for i := range a.ch {
		ch := &a.ch[i]
		if err := binary.Read(r, binary.LittleEndian, &ch.length); err != nil {
			return fmt.Errorf("audio: truncated channel %d: %w", i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &ch.period); err != nil {
			return fmt.Errorf("audio: truncated channel %d: %w", i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &ch.shadowFreq); err != nil {
			return fmt.Errorf("audio: truncated channel %d: %w", i, err)
		}
		var freqTimer, noiseTimer int32
		if err := binary.Read(r, binary.LittleEndian, &freqTimer); err != nil {
			return fmt.Errorf("audio: truncated channel %d: %w", i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &noiseTimer); err != nil {
			return fmt.Errorf("audio: truncated channel %d: %w", i, err)
		}
		ch.freqTimer, ch.noiseTimer = int(freqTimer), int(noiseTimer)
		if err := binary.Read(r, binary.LittleEndian, &ch.lfsr); err != nil {
			return fmt.Errorf("audio: truncated channel %d: %w", i, err)
		}
		flags := make([]uint8, 15)
		if _, err := io.ReadFull(r, flags); err != nil {
			return fmt.Errorf("audio: truncated channel %d flags: %w", i, err)
		}
		ch.enabled, ch.left, ch.right = flags[0] != 0, flags[1] != 0, flags[2] != 0
		ch.duty, ch.volume, ch.dacEnabled = flags[3], flags[4], flags[5] != 0
		ch.dutyStep, ch.waveIndex, ch.waveSample = flags[6], flags[7], flags[8]
		ch.lengthEnable, ch.sweepEnabled, ch.sweepTimer = flags[9] != 0, flags[10] != 0, flags[11]
		ch.sweepNegUsed, ch.envelopeCounter, ch.envelopeLatched = flags[12] != 0, flags[13], flags[14] != 0
	}

	// rebuild the register-derived fields that the snapshot does not carry
	a.enabled = bit.IsSet(7, a.NR52)
	a.vinLeft, a.vinRight = bit.IsSet(7, a.NR50), bit.IsSet(3, a.NR50)
	a.volLeft, a.volRight = bit.ExtractBits(a.NR50, 6, 4), bit.ExtractBits(a.NR50, 2, 0)
	a.ch[0].sweepPeriod = bit.ExtractBits(a.NR10, 6, 4)
	a.ch[0].sweepDown = bit.IsSet(3, a.NR10)
	a.ch[0].sweepStep = bit.ExtractBits(a.NR10, 2, 0)
	for i, nrx2 := range [4]uint8{a.NR12, a.NR22, 0, a.NR42} {
		a.ch[i].envelopeUp = bit.IsSet(3, nrx2)
		a.ch[i].envelopePace = bit.ExtractBits(nrx2, 2, 0)
	}
	a.ch[3].shift = bit.ExtractBits(a.NR43, 7, 4)
	a.ch[3].use7bitLFSR = bit.IsSet(3, a.NR43)
	a.ch[3].divider = bit.ExtractBits(a.NR43, 2, 0)

	a.ringHead, a.ringLen = 0, 0
	return nil
}
