package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/harlowreyes/pocketgb/core/memory"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name           string
		memorySetup    map[uint16]uint8
		pc             uint16
		expectedOpcode uint16
		expectedPC     uint16
	}{
		{
			name:           "NOP",
			memorySetup:    map[uint16]uint8{0xC000: 0x00},
			pc:             0xC000,
			expectedOpcode: 0x00,
			expectedPC:     0xC001,
		},
		{
			name:           "INC B",
			memorySetup:    map[uint16]uint8{0xC000: 0x04},
			pc:             0xC000,
			expectedOpcode: 0x04,
			expectedPC:     0xC001,
		},
		{
			name: "CB BIT 0,B",
			memorySetup: map[uint16]uint8{
				0xC000: 0xCB,
				0xC001: 0x40,
			},
			pc:             0xC000,
			expectedOpcode: 0xCB40,
			expectedPC:     0xC002,
		},
		{
			name: "CB SET 7,A",
			memorySetup: map[uint16]uint8{
				0xC000: 0xCB,
				0xC001: 0xFF,
			},
			pc:             0xC000,
			expectedOpcode: 0xCBFF,
			expectedPC:     0xC002,
		},
		{
			name: "CB at page boundary",
			memorySetup: map[uint16]uint8{
				0xC0FF: 0xCB,
				0xC100: 0x80,
			},
			pc:             0xC0FF,
			expectedOpcode: 0xCB80,
			expectedPC:     0xC101,
		},
		{
			name: "LD B,n with immediate 0xCB (not a CB prefix)",
			memorySetup: map[uint16]uint8{
				0xC000: 0x06, // LD B,n
				0xC001: 0xCB, // immediate value, not a prefix byte
			},
			pc:             0xC000,
			expectedOpcode: 0x06,
			expectedPC:     0xC002,
		},
		{
			name:           "HALT",
			memorySetup:    map[uint16]uint8{0xC000: 0x76},
			pc:             0xC000,
			expectedOpcode: 0x76,
			expectedPC:     0xC001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mmu := memory.New()
			cpu := New(mmu)
			cpu.pc = tt.pc

			for addr, value := range tt.memorySetup {
				mmu.Write(addr, value)
			}

			cpu.Exec()

			assert.Equal(t, tt.expectedOpcode, cpu.currentOpcode)
			assert.Equal(t, tt.expectedPC, cpu.pc)
		})
	}
}

func TestDecodeReturnsRegisteredOpcode(t *testing.T) {
	assert.NotNil(t, decode(0x00))
	assert.NotNil(t, decode(0xCB40))
}
