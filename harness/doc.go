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

// Package harness runs test cases. A test case is a test source under a
// configuration. It is built by the target and the oracle compilers, both
// binaries are started under their debug servers and the dumps produced by
// the two debug sessions are compared in lockstep.
//
// Each case moves through a pipeline of stages:
//
//	selection -> build -> launch -> lockstep -> record
//
// and its status through the corresponding states:
//
//	Pending -> Building -> Launching -> Running -> Passed
//
// A case that fails leaves the sequence at the stage that failed, with
// BuildError, LaunchError, ProtocolError, TimedOut or Failed status, and is
// recorded without visiting the remaining stages. A case that is in
// progress when the run is interrupted has Cancelled status.
//
// A Run has a number of workers. Each worker interleaves one pipeline for
// every configuration and the pipelines of a configuration share a queue of
// cases. Every case owns its debug servers and sessions and so cases are
// independent of one another. The only resource shared by the pipelines is
// the pool of TCP ports for the debug servers.
package harness
