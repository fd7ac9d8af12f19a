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

// Sentinal patterns for errors returned by the rsp package. Use
// curated.Has() to test for them.
const (
	// the remote stub did not reply within the read timeout, or the context
	// of the call was cancelled while waiting
	StepTimeout = "rsp: timeout: %v"

	// malformed framing, bad checksum, unexpected or error reply
	ProtocolError = "rsp: protocol: %v"

	// the connection to the remote stub could not be established
	ConnectError = "rsp: connect: %v"

	// the client has been closed or is unusable following an earlier error
	ClientClosed = "rsp: client closed"
)
