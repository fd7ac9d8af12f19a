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

// Package pipeline is a cooperative, staged execution driver.
//
// A Pipeline is a list of stages. Each round the first stage is asked for a
// value, which is passed to the second stage, and so on. A stage can answer
// with a value (Output), with nothing (Empty) or with the end of work (Done).
// An Empty answer abandons the round and the next round starts again from the
// first stage. A Done answer from any stage ends the pipeline.
//
//	p := pipeline.New(
//		pipeline.FromSlice([]int{1, 2, 3}),
//		pipeline.Map(func(v int) int { return v * 2 }),
//	)
//	p.Run(func(v int) bool { fmt.Println(v); return true })
//
// A Task wraps a pipeline so that several pipelines can be interleaved on one
// goroutine by a Dispatcher.
package pipeline
