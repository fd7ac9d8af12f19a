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

// Package paths contains functions to prepare paths for c2t work files: build
// artifacts, test logs, the results database and the list of failed tests.
//
// The base directory is .c2t in the current working directory if it exists.
// Otherwise it is c2t in the user's cache directory (for example
// ~/.cache/c2t on Linux). The C2T_WORK environment variable overrides both.
package paths
