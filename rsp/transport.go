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
	"context"
	"io"
	"net"
	"time"

	"github.com/pkg/term"
	"github.com/qdt/c2t/curated"
)

// Transport is the byte stream between the client and the remote stub.
// Deadlines apply to every subsequent read and write.
type Transport interface {
	io.ReadWriteCloser
	SetDeadline(t time.Time) error
}

// DialTCP opens a TCP connection to a debug server. A failure to connect
// within the timeout is a ConnectError.
func DialTCP(ctx context.Context, address string, timeout time.Duration) (Transport, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, curated.Errorf(ConnectError, err)
	}
	return conn, nil
}

// serial is a Transport for a debug probe that speaks RSP over a serial
// device. Hardware probes of this kind present themselves as a tty.
type serial struct {
	*term.Term
}

// OpenSerial opens a serial device in raw mode at the specified baud rate.
func OpenSerial(device string, baud int) (Transport, error) {
	t, err := term.Open(device, term.Speed(baud), term.RawMode)
	if err != nil {
		return nil, curated.Errorf(ConnectError, err)
	}
	return &serial{Term: t}, nil
}

// SetDeadline implements the Transport interface. The serial device only
// supports a read timeout and so the deadline is converted to a duration.
func (s *serial) SetDeadline(t time.Time) error {
	d := time.Until(t)
	if d <= 0 {
		d = time.Millisecond
	}
	return s.Term.SetReadTimeout(d)
}
