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

// Package curated is a helper package for the plain Go language error type.
// Curated errors implement the error interface.
//
// Curated errors are created with the Errorf() function. This is similar to
// the Errorf() function in the fmt package. It takes a formatting pattern,
// placeholder values and returns an error.
//
// The pattern is the identity of the error. Patterns that are to be tested
// for are stored as exported const strings in the package that creates them.
// For example, the rsp package exports:
//
//	const StepTimeout = "rsp: timeout: %v"
//
// which can be tested for with:
//
//	if curated.Has(err, rsp.StepTimeout) {
//		...
//	}
//
// Is() checks the outermost error only. Has() checks the entire chain of
// curated errors.
//
// The Error() function normalises the error chain, removing duplicate
// adjacent parts. Parts are separated by the sub-string ": ". For example,
// the chain:
//
//	build: build: exit status 1
//
// is printed as:
//
//	build: exit status 1
//
// Uncurated errors wrapped by a curated error are visible to errors.As() and
// errors.Is() through the Unwrap() function.
package curated
