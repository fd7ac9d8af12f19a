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

package supervisor

import "sync"

// cappedWriter is an implementation of io.Writer that stops buffering once a
// predefined size is reached. Writes beyond the cap are discarded but
// reported as successful so the writing process is never blocked.
type cappedWriter struct {
	crit   sync.Mutex
	buffer []byte
	size   int
	capped bool
}

func newCappedWriter(size int) *cappedWriter {
	return &cappedWriter{
		size:   size,
		buffer: make([]byte, 0, min(size, 4096)),
	}
}

func (w *cappedWriter) String() string {
	w.crit.Lock()
	defer w.crit.Unlock()
	if w.capped {
		return string(w.buffer) + "\n[output truncated]"
	}
	return string(w.buffer)
}

// Write implements io.Writer.
func (w *cappedWriter) Write(p []byte) (n int, err error) {
	w.crit.Lock()
	defer w.crit.Unlock()

	remaining := w.size - len(w.buffer)
	if len(p) > remaining {
		w.capped = true
		w.buffer = append(w.buffer, p[:remaining]...)
	} else {
		w.buffer = append(w.buffer, p...)
	}

	return len(p), nil
}
