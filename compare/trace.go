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

package compare

import (
	"fmt"

	"github.com/zboralski/lattice"
	"github.com/zboralski/lattice/render"

	"github.com/qdt/c2t/session"
)

// traceNode names the node of a source line in a stop trace graph
func traceNode(side session.Side, line int) string {
	return fmt.Sprintf("%s:%d", side, line)
}

// StopTrace builds a graph of the order in which each side stopped on source
// lines. Each line visited by a side is a node and consecutive stops are
// joined by an edge. A line stopped on by both sides is joined across sides
// so that the point at which the traces part is visible.
func StopTrace(target []int, oracle []int) *lattice.Graph {
	g := &lattice.Graph{}
	seen := make(map[string]bool)

	add := func(side session.Side, trace []int) {
		for i, l := range trace {
			n := traceNode(side, l)
			if !seen[n] {
				seen[n] = true
				g.Nodes = append(g.Nodes, n)
			}
			if i > 0 {
				g.Edges = append(g.Edges, lattice.Edge{
					Caller: traceNode(side, trace[i-1]),
					Callee: n,
				})
			}
		}
	}
	add(session.Target, target)
	add(session.Oracle, oracle)

	for i := range min(len(target), len(oracle)) {
		if target[i] == oracle[i] {
			g.Edges = append(g.Edges, lattice.Edge{
				Caller: traceNode(session.Target, target[i]),
				Callee: traceNode(session.Oracle, oracle[i]),
			})
		}
	}

	g.Dedup()
	return g
}

// StopTraceDOT returns the StopTrace graph in the DOT language.
func StopTraceDOT(test string, target []int, oracle []int) string {
	return render.DOT(StopTrace(target, oracle), test)
}
