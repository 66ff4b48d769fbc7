package memory

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// MemorySerialize captures the flat 64KB address space (VRAM, WRAM, OAM, the
// unused/IO/HRAM tail) plus joypad selection latch. ROM and banked external
// RAM are excluded: ROM is immutable and external RAM is covered separately
// by CartridgeRAM, matching the cartridge section of the save-state format.
func (m *MMU) MemorySerialize() ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(m.memory)
	return buf.Bytes(), nil
}

// MemoryDeserialize restores the flat address space from a MemorySerialize snapshot.
func (m *MMU) MemoryDeserialize(data []byte) error {
	if len(data) != len(m.memory) {
		return fmt.Errorf("memory: snapshot size %d does not match address space size %d", len(data), len(m.memory))
	}
	copy(m.memory, data)
	m.updateJoypadRegister()
	return nil
}

// TimerSerialize exposes the MMU-owned timer's snapshot.
func (m *MMU) TimerSerialize() ([]byte, error) {
	return m.timer.Serialize()
}

// TimerDeserialize restores the MMU-owned timer from a snapshot.
func (m *MMU) TimerDeserialize(data []byte) error {
	return m.timer.Deserialize(data)
}

const joypadSaveStateVersion uint8 = 1

// JoypadSerialize captures button/d-pad latch state.
func (m *MMU) JoypadSerialize() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(joypadSaveStateVersion)
	buf.WriteByte(m.joypadButtons)
	buf.WriteByte(m.joypadDpad)
	buf.WriteByte(m.memory[0xFF00])
	return buf.Bytes(), nil
}

// JoypadDeserialize restores button/d-pad latch state from a snapshot.
func (m *MMU) JoypadDeserialize(data []byte) error {
	r := bytes.NewReader(data)
	version, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("joypad: truncated snapshot: %w", err)
	}
	if version != joypadSaveStateVersion {
		return fmt.Errorf("joypad: unsupported snapshot version %d", version)
	}
	buttons, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("joypad: truncated snapshot: %w", err)
	}
	dpad, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("joypad: truncated snapshot: %w", err)
	}
	p1, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("joypad: truncated snapshot: %w", err)
	}
	m.joypadButtons, m.joypadDpad = buttons, dpad
	m.memory[0xFF00] = p1
	m.updateJoypadRegister()
	return nil
}

const cartridgeSaveStateVersion uint8 = 1

// CartridgeSerialize captures the cartridge's external RAM contents so battery
// saves survive a save-state round trip. The MBC's bank-select, banking-mode
// and RAM-enable registers are not saved, so the banking position in effect
// at save time is not restored on load.
func (m *MMU) CartridgeSerialize() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(cartridgeSaveStateVersion)
	ram := m.mbc.RAM()
	binary.Write(&buf, binary.LittleEndian, uint32(len(ram)))
	buf.Write(ram)
	return buf.Bytes(), nil
}

// CartridgeDeserialize restores external RAM contents from a snapshot.
func (m *MMU) CartridgeDeserialize(data []byte) error {
	r := bytes.NewReader(data)
	version, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("cartridge: truncated snapshot: %w", err)
	}
	if version != cartridgeSaveStateVersion {
		return fmt.Errorf("cartridge: unsupported snapshot version %d", version)
	}
	var ramLen uint32
	if err := binary.Read(r, binary.LittleEndian, &ramLen); err != nil {
		return fmt.Errorf("cartridge: truncated snapshot: %w", err)
	}
	ram := m.mbc.RAM()
	if int(ramLen) != len(ram) {
		return fmt.Errorf("cartridge: snapshot RAM size %d does not match current cartridge RAM size %d", ramLen, len(ram))
	}
	if _, err := io.ReadFull(r, ram); err != nil {
		return fmt.Errorf("cartridge: truncated snapshot: %w", err)
	}
	return nil
}
