package pocketgb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Save-state section order. Every section is length-prefixed so a reader
// can skip sections it doesn't understand without parsing their contents.
const (
	sectionCPU = iota
	sectionMemory
	sectionTimer
	sectionJoypad
	sectionCartridge
	sectionAPU
	sectionGPU
	sectionCount
)

const saveStateMagic = "PGBSAVE1"

// SaveState serializes the full emulator state - CPU, flat memory, timer,
// joypad latch, cartridge RAM, APU and PPU - into a single versioned blob.
func (e *Emulator) SaveState() ([]byte, error) {
	sections, err := e.serializeSections()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(saveStateMagic)
	for _, section := range sections {
		binary.Write(&buf, binary.LittleEndian, uint32(len(section)))
		buf.Write(section)
	}
	return buf.Bytes(), nil
}

func (e *Emulator) serializeSections() ([][]byte, error) {
	sections := make([][]byte, sectionCount)
	var err error

	if sections[sectionCPU], err = e.cpu.Serialize(); err != nil {
		return nil, fmt.Errorf("cpu section: %w", err)
	}
	if sections[sectionMemory], err = e.mem.MemorySerialize(); err != nil {
		return nil, fmt.Errorf("memory section: %w", err)
	}
	if sections[sectionTimer], err = e.mem.TimerSerialize(); err != nil {
		return nil, fmt.Errorf("timer section: %w", err)
	}
	if sections[sectionJoypad], err = e.mem.JoypadSerialize(); err != nil {
		return nil, fmt.Errorf("joypad section: %w", err)
	}
	if sections[sectionCartridge], err = e.mem.CartridgeSerialize(); err != nil {
		return nil, fmt.Errorf("cartridge section: %w", err)
	}
	if sections[sectionAPU], err = e.mem.APU.Serialize(); err != nil {
		return nil, fmt.Errorf("apu section: %w", err)
	}
	if sections[sectionGPU], err = e.gpu.Serialize(); err != nil {
		return nil, fmt.Errorf("gpu section: %w", err)
	}
	return sections, nil
}

// deserializeSections applies each section in order, stopping at the first
// failure. The caller is responsible for rolling back on error; this only
// reports which section rejected the data.
func (e *Emulator) deserializeSections(sections [][]byte) error {
	if err := e.cpu.Deserialize(sections[sectionCPU]); err != nil {
		return fmt.Errorf("cpu section: %w", err)
	}
	if err := e.mem.MemoryDeserialize(sections[sectionMemory]); err != nil {
		return fmt.Errorf("memory section: %w", err)
	}
	if err := e.mem.TimerDeserialize(sections[sectionTimer]); err != nil {
		return fmt.Errorf("timer section: %w", err)
	}
	if err := e.mem.JoypadDeserialize(sections[sectionJoypad]); err != nil {
		return fmt.Errorf("joypad section: %w", err)
	}
	if err := e.mem.CartridgeDeserialize(sections[sectionCartridge]); err != nil {
		return fmt.Errorf("cartridge section: %w", err)
	}
	if err := e.mem.APU.Deserialize(sections[sectionAPU]); err != nil {
		return fmt.Errorf("apu section: %w", err)
	}
	if err := e.gpu.Deserialize(sections[sectionGPU]); err != nil {
		return fmt.Errorf("gpu section: %w", err)
	}
	return nil
}

// LoadState restores emulator state from a SaveState blob. Execution is
// paused during restore so a concurrently running frame loop can't observe
// a half-restored state.
func (e *Emulator) LoadState(data []byte) error {
	r := bytes.NewReader(data)
	magic := make([]byte, len(saveStateMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != saveStateMagic {
		return fmt.Errorf("save-state: bad magic header")
	}

	sections := make([][]byte, sectionCount)
	for i := range sections {
		var length uint32
		if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
			return fmt.Errorf("save-state: truncated section %d length: %w", i, err)
		}
		section := make([]byte, length)
		if _, err := io.ReadFull(r, section); err != nil {
			return fmt.Errorf("save-state: truncated section %d: %w", i, err)
		}
		sections[i] = section
	}

	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()

	// Snapshot the live state before touching anything, so a section that
	// fails partway through (corrupt data, version mismatch) can be rolled
	// back instead of leaving the emulator as a hybrid of old and new state.
	backup, err := e.serializeSections()
	if err != nil {
		return fmt.Errorf("save-state: failed to snapshot current state before restore: %w", err)
	}

	if err := e.deserializeSections(sections); err != nil {
		if rerr := e.deserializeSections(backup); rerr != nil {
			return fmt.Errorf("save-state: restore failed (%w) and rollback to prior state also failed: %v", err, rerr)
		}
		return fmt.Errorf("save-state: restore failed, rolled back to prior state: %w", err)
	}
	return nil
}
