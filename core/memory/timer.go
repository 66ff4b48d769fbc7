package memory

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/harlowreyes/pocketgb/core/addr"
	"github.com/harlowreyes/pocketgb/core/bit"
)

// tacBitForClock maps TAC's 2-bit clock select to the system counter bit
// whose falling edge increments TIMA.
var tacBitForClock = [4]uint16{9, 3, 5, 7}

// Timer encapsulates the Game Boy timer/DIV/TIMA/TMA/TAC behavior.
type Timer struct {
	systemCounter uint16 // Internal 16-bit counter, DIV is upper 8 bits
	lastTimerBit  bool   // Previous state of the selected counter bit, for edge detection
	timaOverflow  int    // Cycles remaining until the delayed TMA reload/interrupt fires
	timaDelayInt  bool   // Delayed interrupt flag setting (1 M-cycle after TMA load)

	// Timer registers
	div  byte
	tima byte
	tma  byte
	tac  byte

	// IRQ requester callback
	TimerInterruptHandler func()
}

// SetSeed initializes the internal divider counter and writes DIV accordingly.
func (t *Timer) SetSeed(seed uint16) {
	t.systemCounter = seed
	t.lastTimerBit = false
	t.timaOverflow = 0
	t.timaDelayInt = false
	t.div = byte(t.systemCounter >> 8)
}

func (t *Timer) selectedBit() uint16 {
	return tacBitForClock[t.tac&0x03]
}

func (t *Timer) enabled() bool {
	return t.tac&0x04 != 0
}

// Tick advances the timer by the specified number of CPU cycles.
func (t *Timer) Tick(cycles int) {
	if t.timaDelayInt {
		if t.TimerInterruptHandler != nil {
			t.TimerInterruptHandler()
		}
		t.timaDelayInt = false
	}

	if t.timaOverflow > 0 {
		t.timaOverflow -= cycles
		if t.timaOverflow <= 0 {
			t.tima = t.tma
			t.timaDelayInt = true
			t.timaOverflow = 0
		}
	}

	for range cycles {
		t.systemCounter++
		t.div = byte(t.systemCounter >> 8)

		if t.timaOverflow > 0 {
			continue
		}

		if t.enabled() {
			currentTimerBit := bit.IsSet16(t.selectedBit(), t.systemCounter)
			t.onTimerBitEdge(currentTimerBit)
			t.lastTimerBit = currentTimerBit
		} else {
			t.lastTimerBit = false
		}
	}
}

// onTimerBitEdge increments TIMA (with the 4-cycle delayed reload on
// overflow) whenever the selected system-counter bit falls from 1 to 0.
func (t *Timer) onTimerBitEdge(currentBit bool) {
	if t.lastTimerBit && !currentBit {
		if t.tima == 0xFF {
			t.tima = 0x00
			t.timaOverflow = 4
		} else {
			t.tima++
		}
	}
}

func (t *Timer) Read(address uint16) byte {
	switch address {
	case addr.DIV:
		return t.div
	case addr.TIMA:
		return t.tima
	case addr.TMA:
		return t.tma
	case addr.TAC:
		return t.tac | 0xF8
	default:
		return 0xFF
	}
}

func (t *Timer) Write(address uint16, value byte) {
	switch address {
	case addr.DIV:
		// Writing DIV resets the whole 16-bit counter. If the currently
		// selected multiplexer bit was high, the reset is itself a
		// falling edge and increments TIMA, matching real hardware.
		if t.enabled() && bit.IsSet16(t.selectedBit(), t.systemCounter) {
			t.onTimerBitEdge(false)
		}
		t.systemCounter = 0
		t.div = 0
		t.lastTimerBit = false
	case addr.TIMA:
		if t.timaOverflow > 0 {
			// A write during the delayed-reload window cancels the
			// pending TMA reload and interrupt; the written value sticks.
			t.timaOverflow = 0
			t.timaDelayInt = false
		}
		t.tima = value
	case addr.TMA:
		t.tma = value
	case addr.TAC:
		oldBit := t.enabled() && bit.IsSet16(t.selectedBit(), t.systemCounter)
		t.tac = value & 0x07
		newBit := t.enabled() && bit.IsSet16(t.selectedBit(), t.systemCounter)
		// Disabling the timer, or changing the clock select, can make the
		// multiplexer output fall from 1 to 0 purely as a side effect of
		// the write itself; that counts as a falling edge.
		if oldBit && !newBit {
			t.onTimerBitEdge(false)
		}
		t.lastTimerBit = newBit
	}
}

const timerSaveStateVersion uint8 = 1

// Serialize captures the full timer state for save-states.
func (t *Timer) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(timerSaveStateVersion)
	binary.Write(&buf, binary.LittleEndian, t.systemCounter)
	buf.WriteByte(bit.ToByte(t.lastTimerBit))
	binary.Write(&buf, binary.LittleEndian, int32(t.timaOverflow))
	buf.WriteByte(bit.ToByte(t.timaDelayInt))
	buf.Write([]byte{t.div, t.tima, t.tma, t.tac})
	return buf.Bytes(), nil
}

// Deserialize restores timer state from a Serialize snapshot.
func (t *Timer) Deserialize(data []byte) error {
	r := bytes.NewReader(data)
	version, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("timer: truncated snapshot: %w", err)
	}
	if version != timerSaveStateVersion {
		return fmt.Errorf("timer: unsupported snapshot version %d", version)
	}
	if err := binary.Read(r, binary.LittleEndian, &t.systemCounter); err != nil {
		return fmt.Errorf("timer: truncated snapshot: %w", err)
	}
	lastBit, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("timer: truncated snapshot: %w", err)
	}
	t.lastTimerBit = lastBit != 0
	var overflow int32
	if err := binary.Read(r, binary.LittleEndian, &overflow); err != nil {
		return fmt.Errorf("timer: truncated snapshot: %w", err)
	}
	t.timaOverflow = int(overflow)
	delayInt, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("timer: truncated snapshot: %w", err)
	}
	t.timaDelayInt = delayInt != 0
	regs := make([]byte, 4)
	if _, err := io.ReadFull(r, regs); err != nil {
		return fmt.Errorf("timer: truncated snapshot: %w", err)
	}
	t.div, t.tima, t.tma, t.tac = regs[0], regs[1], regs[2], regs[3]
	return nil
}
