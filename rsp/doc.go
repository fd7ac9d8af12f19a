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

// Package rsp is a client for the GDB Remote Serial Protocol. It is used to
// drive the debug servers (QEMU's gdbstub, gdbserver, hardware probes) that
// execute the test programs.
//
// Packets are framed as $payload#checksum and acknowledged with + or -. The
// client decodes run-length encoded and escaped replies. Only the commands
// needed for conformance testing are implemented: register and memory access,
// software breakpoints, step and continue.
//
// Every request has a read timeout. A reply that does not arrive in time is a
// StepTimeout. Cancelling the context of a request interrupts it, also with
// a StepTimeout. Malformed packets and unexpected replies are a
// ProtocolError. After a StepTimeout, or a ProtocolError caused by a
// corrupt stream, the client refuses further requests.
//
// Requests that change the state of the target are never resent. A
// read-only request rejected by the stub is resent up to Options.Retries
// times.
package rsp
