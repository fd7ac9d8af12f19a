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

// Package test contains helper functions to remove common boilerplate to make
// testing easier.
//
// The Expect functions report a test error and return false if the condition
// is not met. The Demand functions are the same but are fatal to the test.
// All functions accept optional tags which are used to prefix any failure
// message. This is useful when testing inside a loop.
//
//	for i, c := range cases {
//		test.ExpectEquality(t, c.got, c.want, i)
//	}
//
// The success and failure functions treat nil as a success. This is how
// errors work in Go and so it makes sense to treat nil in this way.
//
// The CompareWriter type implements the io.Writer interface and should be
// used to capture output.
package test
