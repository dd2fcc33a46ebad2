// Package image moves memory contents between files and a Storage.
//
// The input format is text: hexadecimal words separated by white space,
// stored from address 0 upward. Each token contributes its leading hex digits
// (after an optional 0x), so "12zz" loads 0x12. Once a token has trailing
// junk or no hex digits at all, the rest of its line is ignored, which lets a
// word carry a comment. Loading stops quietly at a line whose first token has
// no hex digits and at the first blank line. The output format is the raw
// storage array, one word after another in native byte order.
package image

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/sarchlab/cosim/mem/storage"
)

// ErrImageOpen is the cause of every error returned when an image file
// cannot be opened.
var ErrImageOpen = errors.New("cannot open memory image")

const maxLineLen = 1 << 20

// Load reads the image at path into s and returns the number of words
// loaded.
func Load(path string, s *storage.Storage) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrapf(ErrImageOpen,
			"cannot open '%s' for reading (%v)", path, err)
	}
	defer f.Close()

	return LoadFrom(f, s)
}

// LoadFrom reads an image from r into s and returns the number of words
// loaded. Only errors of r itself are reported.
func LoadFrom(r io.Reader, s *storage.Storage) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLen)

	addr := uint64(0)
	count := 0

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			return count, nil
		}

		for i, tok := range fields {
			word, n := parseWord(tok)
			if n == 0 {
				if i == 0 {
					return count, nil
				}

				break
			}

			s.Write(addr, word)
			addr++
			count++

			if n < len(tok) {
				break
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return count, errors.Wrap(err, "failed to read memory image")
	}

	return count, nil
}

// parseWord reads the leading hex number of tok the way scanf's %x does. It
// returns the value and the number of bytes consumed, 0 if tok does not start
// with a number. Overlong numbers keep their low bits.
func parseWord(tok string) (uint64, int) {
	start := 0
	if len(tok) > 2 && (tok[:2] == "0x" || tok[:2] == "0X") && isHex(tok[2]) {
		start = 2
	}

	v := uint64(0)
	end := start

	for end < len(tok) && isHex(tok[end]) {
		v = v<<4 | hexValue(tok[end])
		end++
	}

	if end == start {
		return 0, 0
	}

	return v, end
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') ||
		('A' <= c && c <= 'F')
}

func hexValue(c byte) uint64 {
	switch {
	case c <= '9':
		return uint64(c - '0')
	case c <= 'F':
		return uint64(c-'A') + 10
	default:
		return uint64(c-'a') + 10
	}
}

// Dump writes the whole content of s to path, replacing any existing file.
func Dump(path string, s *storage.Storage) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return errors.Wrapf(ErrImageOpen,
			"cannot open '%s' for writing (%v)", path, err)
	}

	err = DumpTo(f, s)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	return err
}

// DumpTo writes the whole content of s to w. Each word takes the smallest of
// 1, 2, 4 or 8 bytes that holds the word width.
func DumpTo(w io.Writer, s *storage.Storage) error {
	size := WordSize(s.WordBits())
	buf := make([]byte, uint64(size)*s.Capacity())

	for i, word := range s.Words() {
		b := buf[i*size : (i+1)*size]

		switch size {
		case 1:
			b[0] = byte(word)
		case 2:
			binary.NativeEndian.PutUint16(b, uint16(word))
		case 4:
			binary.NativeEndian.PutUint32(b, uint32(word))
		default:
			binary.NativeEndian.PutUint64(b, word)
		}
	}

	_, err := w.Write(buf)

	return errors.Wrap(err, "failed to write memory image")
}

// WordSize returns the number of bytes a word of the given width takes in a
// dump.
func WordSize(wordBits uint) int {
	switch {
	case wordBits <= 8:
		return 1
	case wordBits <= 16:
		return 2
	case wordBits <= 32:
		return 4
	default:
		return 8
	}
}
