// This file is part of c2t.
//
// c2t is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// c2t is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with c2t.  If not, see <https://www.gnu.org/licenses/>.

package rsp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// the longest packet we're prepared to receive
const maxPacket = 1 << 20

// checksum is the modulo 256 sum of the packet data.
func checksum(data string) byte {
	var cs byte
	for i := 0; i < len(data); i++ {
		cs += data[i]
	}
	return cs
}

// escape the characters that have a special meaning inside a packet.
func escape(payload string) string {
	if !strings.ContainsAny(payload, "}#$*") {
		return payload
	}
	var b strings.Builder
	for i := 0; i < len(payload); i++ {
		c := payload[i]
		switch c {
		case '}', '#', '$', '*':
			b.WriteByte('}')
			b.WriteByte(c ^ 0x20)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// frame returns the payload as a packet ready for sending.
func frame(payload string) string {
	data := escape(payload)
	return fmt.Sprintf("$%s#%02x", data, checksum(data))
}

// decode undoes the escaping and run-length encoding of received packet data.
func decode(data string) (string, error) {
	var b strings.Builder
	b.Grow(len(data))

	for i := 0; i < len(data); i++ {
		c := data[i]
		switch c {
		case '}':
			i++
			if i >= len(data) {
				return "", fmt.Errorf("escape character at end of packet")
			}
			b.WriteByte(data[i] ^ 0x20)

		case '*':
			i++
			if i >= len(data) {
				return "", fmt.Errorf("run-length marker at end of packet")
			}
			if b.Len() == 0 {
				return "", fmt.Errorf("run-length marker at start of packet")
			}
			n := int(data[i]) - 29
			if n < 0 {
				return "", fmt.Errorf("invalid run-length count %q", data[i])
			}
			last := b.String()[b.Len()-1]
			for range n {
				b.WriteByte(last)
			}

		default:
			b.WriteByte(c)
		}
	}

	return b.String(), nil
}

// packetReader reads packets from the stream of bytes sent by the stub.
type packetReader struct {
	rd *bufio.Reader
}

// readAck returns true for '+' and false for '-'. Other bytes are skipped.
func (pr *packetReader) readAck() (bool, error) {
	for {
		c, err := pr.rd.ReadByte()
		if err != nil {
			return false, err
		}
		switch c {
		case '+':
			return true, nil
		case '-':
			return false, nil
		}
	}
}

// readPacket returns the raw (still escaped) data of the next packet and
// whether the checksum was correct. Notification packets (beginning with '%')
// are discarded.
func (pr *packetReader) readPacket() (string, bool, error) {
	for {
		c, err := pr.rd.ReadByte()
		if err != nil {
			return "", false, err
		}

		if c != '$' && c != '%' {
			// stray acknowledgements and noise between packets
			continue
		}

		data, err := pr.readData()
		if err != nil {
			return "", false, err
		}

		var cs [2]byte
		if _, err := io.ReadFull(pr.rd, cs[:]); err != nil {
			return "", false, err
		}

		if c == '%' {
			continue
		}

		want, ok1 := unhex(cs[0])
		lo, ok2 := unhex(cs[1])
		if !ok1 || !ok2 {
			return data, false, nil
		}
		want = want<<4 | lo

		return data, want == checksum(data), nil
	}
}

// readData reads the packet data up to and including the '#' that ends it.
// the '#' is not returned. reading stops with an error once the data is
// longer than maxPacket
func (pr *packetReader) readData() (string, error) {
	var data []byte
	for {
		frag, err := pr.rd.ReadSlice('#')
		if len(data)+len(frag) > maxPacket+1 {
			return "", errPacketTooLong
		}
		data = append(data, frag...)
		if err == nil {
			return string(data[:len(data)-1]), nil
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return "", err
		}
	}
}

var errPacketTooLong = fmt.Errorf("packet exceeds %d bytes", maxPacket)

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
