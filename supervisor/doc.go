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

// Package supervisor starts and stops the external processes used by a test:
// the compilers and linkers that build a test binary and the debug servers
// that run it.
//
// Commands are described by Run templates. A template is an executable and an
// argument string with placeholders, for example:
//
//	Run{Executable: "qemu-system-arm", Args: "-M netduino2 -kernel {bin} -gdb tcp:localhost:{port} -S"}
//
// Every process is started in its own process group and Stop() kills the
// whole group. This is important for wrappers that fork the real server.
//
// Debug servers are given ports by a PortPool. Ports are leased until freed
// and the same port is never leased twice at the same time, no matter how
// many goroutines are allocating.
package supervisor
