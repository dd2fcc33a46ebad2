// Package storage provides the host-side memory arrays that back the memory
// ports of a hardware model.
package storage

import "log"

// Default geometry, 64K words of 16 bits.
const (
	DefaultAddrBits = 16
	DefaultWordBits = 16
)

// A Storage keeps the content of one memory region.
//
// The storage is an array of 2^addrBits words. Addresses are truncated to
// addrBits and data is truncated to wordBits, so every access is in range.
// Writes take effect immediately.
type Storage struct {
	addrBits uint
	wordBits uint
	addrMask uint64
	wordMask uint64
	data     []uint64
}

// NewStorage creates a zero-filled storage with the given address and word
// widths. It panics if the geometry is not supported.
func NewStorage(addrBits, wordBits uint) *Storage {
	if addrBits == 0 || addrBits > 32 {
		log.Panicf("unsupported address width %d", addrBits)
	}

	if wordBits == 0 || wordBits > 64 {
		log.Panicf("unsupported word width %d", wordBits)
	}

	s := &Storage{
		addrBits: addrBits,
		wordBits: wordBits,
		addrMask: mask(addrBits),
		wordMask: mask(wordBits),
	}
	s.data = make([]uint64, uint64(1)<<addrBits)

	return s
}

// NewDefaultStorage creates a 64K x 16-bit storage.
func NewDefaultStorage() *Storage {
	return NewStorage(DefaultAddrBits, DefaultWordBits)
}

func mask(bits uint) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}

	return (uint64(1) << bits) - 1
}

// Read returns the word at addr.
func (s *Storage) Read(addr uint64) uint64 {
	return s.data[addr&s.addrMask]
}

// Write overwrites the word at addr.
func (s *Storage) Write(addr, data uint64) {
	s.data[addr&s.addrMask] = data & s.wordMask
}

// Capacity returns the number of words.
func (s *Storage) Capacity() uint64 {
	return uint64(len(s.data))
}

// AddrBits returns the address width.
func (s *Storage) AddrBits() uint {
	return s.addrBits
}

// WordBits returns the word width.
func (s *Storage) WordBits() uint {
	return s.wordBits
}

// AddrMask returns the mask applied to every address.
func (s *Storage) AddrMask() uint64 {
	return s.addrMask
}

// WordMask returns the mask applied to every stored word.
func (s *Storage) WordMask() uint64 {
	return s.wordMask
}

// Words returns the backing array. Callers must not keep it across a
// simulation step.
func (s *Storage) Words() []uint64 {
	return s.data
}

// Reset fills the storage with zeros.
func (s *Storage) Reset() {
	clear(s.data)
}
