package cpu

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/harlowreyes/pocketgb/core/addr"
	"github.com/harlowreyes/pocketgb/core/bit"
	"github.com/harlowreyes/pocketgb/core/memory"
)

// Flag is one of the 4 possible flags used in the flag register.
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

// interruptVectors holds the dispatch address for each of the 5 interrupt
// sources, indexed by bit position (priority: lowest bit wins).
var interruptVectors = [5]uint16{0x40, 0x48, 0x50, 0x58, 0x60}

// CPU is the main struct holding LR35902 state: the 8 registers (paired as
// AF/BC/DE/HL), stack pointer, program counter, and the interrupt/halt
// bookkeeping needed to reproduce DMG timing quirks.
type CPU struct {
	memory *memory.MMU

	a, f uint8
	b, c uint8
	d, e uint8
	h, l uint8

	sp uint16
	pc uint16

	currentOpcode uint16

	interruptsEnabled bool
	eiPending         bool

	halted     bool
	haltBug    bool
	stopped    bool
	hardLocked bool

	cycles uint64
}

// New returns a CPU set to the register state the DMG boot ROM leaves
// behind, so execution can start directly at the cartridge entry point.
func New(mmu *memory.MMU) *CPU {
	return &CPU{
		memory: mmu,
		a:      0x01, f: 0xB0,
		b: 0x00, c: 0x13,
		d: 0x00, e: 0xD8,
		h: 0x01, l: 0x4D,
		sp: 0xFFFE,
		pc: 0x100,
	}
}

// PC exposes the program counter for debugging/tooling.
func (c *CPU) PC() uint16 { return c.pc }

// IME reports whether interrupts are currently enabled.
func (c *CPU) IME() bool { return c.interruptsEnabled }

func (c *CPU) getBC() uint16 { return bit.Combine(c.b, c.c) }
func (c *CPU) getDE() uint16 { return bit.Combine(c.d, c.e) }
func (c *CPU) getHL() uint16 { return bit.Combine(c.h, c.l) }
func (c *CPU) getAF() uint16 { return bit.Combine(c.a, c.f&0xF0) }

func (c *CPU) setBC(value uint16) { c.b, c.c = bit.High(value), bit.Low(value) }
func (c *CPU) setDE(value uint16) { c.d, c.e = bit.High(value), bit.Low(value) }
func (c *CPU) setHL(value uint16) { c.h, c.l = bit.High(value), bit.Low(value) }
func (c *CPU) setAF(value uint16) { c.a, c.f = bit.High(value), bit.Low(value)&0xF0 }

func (c *CPU) readImmediate() uint8 {
	value := c.memory.Read(c.pc)
	c.pc++
	return value
}

func (c *CPU) readImmediateWord() uint16 {
	low := c.readImmediate()
	high := c.readImmediate()
	return bit.Combine(high, low)
}

func (c *CPU) readSignedImmediate() int8 {
	return int8(c.readImmediate())
}

// peekImmediate and peekImmediateWord back jr/jp: despite the name they
// still consume the operand and advance pc, since the opcode handlers for
// relative/absolute jumps never call readImmediate themselves.
func (c *CPU) peekImmediate() int8     { return c.readSignedImmediate() }
func (c *CPU) peekImmediateWord() uint16 { return c.readImmediateWord() }

func (c *CPU) setFlag(flag Flag)      { c.f |= uint8(flag) }
func (c *CPU) resetFlag(flag Flag)    { c.f &^= uint8(flag) }
func (c *CPU) isSetFlag(flag Flag) bool { return c.f&uint8(flag) != 0 }

func (c *CPU) setFlagToCondition(flag Flag, condition bool) {
	if condition {
		c.setFlag(flag)
	} else {
		c.resetFlag(flag)
	}
}

func (c *CPU) flagToBit(flag Flag) uint8 {
	if c.isSetFlag(flag) {
		return 1
	}
	return 0
}

// cp compares value against A, setting flags as SUB would without storing
// the result.
func (c *CPU) cp(value uint8) {
	a := c.a
	c.setFlagToCondition(zeroFlag, a == value)
	c.setFlag(subFlag)
	c.setFlagToCondition(carryFlag, a < value)
	c.setFlagToCondition(halfCarryFlag, (int(a)&0xF)-(int(value)&0xF) < 0)
}

// adc adds value and the carry flag into A, setting all relevant flags.
func (c *CPU) adc(value uint8) {
	a := c.a
	carry := c.flagToBit(carryFlag)
	result := uint16(a) + uint16(value) + uint16(carry)

	c.setFlagToCondition(zeroFlag, uint8(result) == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(carryFlag, result > 0xFF)
	c.setFlagToCondition(halfCarryFlag, (a&0xF)+(value&0xF)+carry > 0xF)

	c.a = uint8(result)
}

// handleInterrupts checks IF & IE for a pending interrupt. It always
// reports whether one is pending (used to wake the CPU from HALT), but
// only dispatches - pushing pc, jumping to the vector, clearing IF and
// IME - when interrupts are actually enabled. dispatchCycles is the
// 20 T-cycle dispatch cost, non-zero only when a vector was actually taken.
func (c *CPU) handleInterrupts() (pending bool, dispatchCycles int) {
	ifReg := c.memory.Read(addr.IF)
	ieReg := c.memory.Read(addr.IE)
	bits := ifReg & ieReg & 0x1F
	if bits == 0 {
		return false, 0
	}

	if !c.interruptsEnabled {
		return true, 0
	}

	for i := uint8(0); i < 5; i++ {
		if bits&(1<<i) == 0 {
			continue
		}
		c.interruptsEnabled = false
		c.memory.Write(addr.IF, ifReg&^(1<<i))
		c.pushStack(c.pc)
		c.pc = interruptVectors[i]
		c.cycles += 20
		return true, 20
	}

	return true, 0
}

// Exec fetches, decodes and executes a single instruction (or services a
// pending interrupt / holds in HALT/STOP), returning the number of T-cycles
// consumed.
func (c *CPU) Exec() int {
	if c.hardLocked {
		return 4
	}

	imeBeforeDispatch := c.interruptsEnabled
	interruptPending, dispatchCycles := c.handleInterrupts()
	if c.eiPending {
		c.eiPending = false
		c.interruptsEnabled = true
	}

	if c.halted {
		if interruptPending {
			c.halted = false
			if !imeBeforeDispatch {
				c.haltBug = true
			}
		} else {
			return 4
		}
	}

	if c.stopped {
		if interruptPending {
			c.stopped = false
		} else {
			return 4
		}
	}

	c.currentOpcode = uint16(c.readImmediate())
	if c.currentOpcode == 0xCB {
		c.currentOpcode = 0xCB00 | uint16(c.readImmediate())
	}
	if c.haltBug {
		// The halt bug re-reads the same byte as the next opcode instead
		// of advancing pc, since the increment that should have happened
		// on entering HALT never did. Applies regardless of whether the
		// re-read byte turned out to be the 0xCB prefix.
		c.pc--
		c.haltBug = false
	}

	opcode := decode(c.currentOpcode)
	if opcode == nil {
		panic(fmt.Sprintf("no opcode registered for 0x%04X", c.currentOpcode))
	}
	return dispatchCycles + opcode(c)
}

const cpuSaveStateVersion uint8 = 1

// Serialize captures full CPU state for save-states.
func (c *CPU) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(cpuSaveStateVersion)
	buf.Write([]byte{c.a, c.f, c.b, c.c, c.d, c.e, c.h, c.l})
	binary.Write(&buf, binary.LittleEndian, c.sp)
	binary.Write(&buf, binary.LittleEndian, c.pc)
	flags := []uint8{
		bit.ToByte(c.interruptsEnabled), bit.ToByte(c.eiPending),
		bit.ToByte(c.halted), bit.ToByte(c.haltBug),
		bit.ToByte(c.stopped), bit.ToByte(c.hardLocked),
	}
	buf.Write(flags)
	binary.Write(&buf, binary.LittleEndian, c.cycles)
	return buf.Bytes(), nil
}

// Deserialize restores CPU state from a Serialize snapshot.
func (c *CPU) Deserialize(data []byte) error {
	r := bytes.NewReader(data)
	version, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("cpu: truncated snapshot: %w", err)
	}
	if version != cpuSaveStateVersion {
		return fmt.Errorf("cpu: unsupported snapshot version %d", version)
	}

	regs := make([]uint8, 8)
	if _, err := io.ReadFull(r, regs); err != nil {
		return fmt.Errorf("cpu: truncated registers: %w", err)
	}
	c.a, c.f, c.b, c.c, c.d, c.e, c.h, c.l = regs[0], regs[1], regs[2], regs[3], regs[4], regs[5], regs[6], regs[7]

	if err := binary.Read(r, binary.LittleEndian, &c.sp); err != nil {
		return fmt.Errorf("cpu: truncated sp: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &c.pc); err != nil {
		return fmt.Errorf("cpu: truncated pc: %w", err)
	}

	flags := make([]uint8, 6)
	if _, err := io.ReadFull(r, flags); err != nil {
		return fmt.Errorf("cpu: truncated flags: %w", err)
	}
	c.interruptsEnabled, c.eiPending = flags[0] != 0, flags[1] != 0
	c.halted, c.haltBug = flags[2] != 0, flags[3] != 0
	c.stopped, c.hardLocked = flags[4] != 0, flags[5] != 0

	if err := binary.Read(r, binary.LittleEndian, &c.cycles); err != nil {
		return fmt.Errorf("cpu: truncated cycle count: %w", err)
	}
	return nil
}
