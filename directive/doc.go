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

// Package directive finds the checking directives in test sources and maps
// them to code addresses.
//
// A directive is a comment beginning with //$ followed by one or more
// statements separated by semicolons:
//
//	a = b + c; //$ ch.a
//	for (;;) { //$ brc
//	return 0; //$ bre
//
// Arguments may also be given in brackets: ch(a, b). The directives
// understood by the debug sessions are br, brc, bre, ch and chc. See the
// constants in this package for their meaning.
//
// An Index is built from the source and the line table of a built program.
// Index.Lookup() answers which directives apply at a stop address. Addresses
// with no directive return false and have no other effect.
package directive
