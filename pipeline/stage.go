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

package pipeline

import "fmt"

// Kind of Result returned by a Stage.
type Kind int

// List of valid Kind values.
const (
	// the stage has nothing to output this round. more input is required
	Empty Kind = iota

	// the stage has produced a value
	Output

	// the stage will not accept or produce any more work
	Done
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Output:
		return "output"
	case Done:
		return "done"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Result is the outcome of a single Stage activation.
type Result[T any] struct {
	Kind  Kind
	Value T
}

// Out returns a Result with Kind Output.
func Out[T any](v T) Result[T] {
	return Result[T]{Kind: Output, Value: v}
}

// Wait returns a Result with Kind Empty.
func Wait[T any]() Result[T] {
	return Result[T]{Kind: Empty}
}

// Finish returns a Result with Kind Done.
func Finish[T any]() Result[T] {
	return Result[T]{Kind: Done}
}

// Stage is a single step of a Pipeline.
//
// Every stage except the first is activated once when the pipeline starts,
// with ok set to false. A stage in the middle of the pipeline must not return
// Output at that time. The last stage may.
//
// After startup, the first stage is activated at the beginning of every round
// with ok set to false. The other stages are activated with the output of the
// preceding stage and ok set to true.
type Stage[T any] interface {
	Activate(in T, ok bool) Result[T]
}

// StageFunc allows a function to be used as a Stage.
type StageFunc[T any] func(in T, ok bool) Result[T]

// Activate implements the Stage interface.
func (f StageFunc[T]) Activate(in T, ok bool) Result[T] {
	return f(in, ok)
}

// Limit returns a stage that passes on n values and then ends the pipeline.
// Placing it early in the pipeline avoids work being done on a value that
// would be discarded.
func Limit[T any](n int) Stage[T] {
	return StageFunc[T](func(in T, ok bool) Result[T] {
		if !ok {
			return Wait[T]()
		}
		if n <= 0 {
			return Finish[T]()
		}
		n--
		return Out(in)
	})
}

// FromSlice returns a stage suitable for the start of a pipeline. It outputs
// each value in order and then ends the pipeline.
func FromSlice[T any](values []T) Stage[T] {
	i := 0
	return StageFunc[T](func(_ T, _ bool) Result[T] {
		if i >= len(values) {
			return Finish[T]()
		}
		i++
		return Out(values[i-1])
	})
}

// Map returns a stage that applies f to every input.
func Map[T any](f func(T) T) Stage[T] {
	return StageFunc[T](func(in T, ok bool) Result[T] {
		if !ok {
			return Wait[T]()
		}
		return Out(f(in))
	})
}
