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

import (
	"fmt"

	"github.com/qdt/c2t/curated"
)

// ProtocolViolation is returned when a stage in the middle of a pipeline
// produces output at startup.
const ProtocolViolation = "pipeline: stage %d does not follow pipeline protocol"

// Pipeline threads values through a list of stages. It is not safe for
// concurrent use. Exactly one stage is active at any one time.
type Pipeline[T any] struct {
	stages []Stage[T]

	started bool
	done    bool

	// output from the last stage at startup. delivered by the first Round()
	pending *T
}

// New is the preferred method of initialisation for the Pipeline type.
func New[T any](stages ...Stage[T]) *Pipeline[T] {
	return &Pipeline[T]{
		stages: stages,
		done:   len(stages) == 0,
	}
}

// IsDone returns true once any stage has returned Done.
func (p *Pipeline[T]) IsDone() bool {
	return p.done
}

func (p *Pipeline[T]) start() error {
	p.started = true

	if len(p.stages) < 2 {
		return nil
	}

	var zero T

	for i, s := range p.stages[1 : len(p.stages)-1] {
		r := s.Activate(zero, false)
		switch r.Kind {
		case Output:
			p.done = true
			return curated.Errorf(ProtocolViolation, i+1)
		case Done:
			p.done = true
			return nil
		}
	}

	r := p.stages[len(p.stages)-1].Activate(zero, false)
	switch r.Kind {
	case Output:
		p.pending = &r.Value
	case Done:
		p.done = true
	}

	return nil
}

// Round performs one round of the pipeline. The first stage is activated and
// its output is passed down the pipeline until a stage returns Empty or Done,
// or until the last stage returns Output.
//
// The Kind of the returned Result is Output if the round completed, Empty if
// the round was abandoned and Done if the pipeline has finished.
func (p *Pipeline[T]) Round() (Result[T], error) {
	if !p.started {
		if err := p.start(); err != nil {
			return Finish[T](), err
		}
	}

	if p.pending != nil {
		v := *p.pending
		p.pending = nil
		return Out(v), nil
	}

	if p.done {
		return Finish[T](), nil
	}

	var v T
	for i, s := range p.stages {
		r := s.Activate(v, i > 0)
		switch r.Kind {
		case Done:
			p.done = true
			return r, nil
		case Empty:
			return r, nil
		}
		v = r.Value
	}

	return Out(v), nil
}

// Run the pipeline to completion. The output of every completed round is
// passed to the yield function. If yield returns false the pipeline stops
// early.
func (p *Pipeline[T]) Run(yield func(T) bool) error {
	for {
		r, err := p.Round()
		if err != nil {
			return err
		}
		switch r.Kind {
		case Done:
			return nil
		case Output:
			if yield != nil && !yield(r.Value) {
				return nil
			}
		}
	}
}

func (p *Pipeline[T]) String() string {
	return fmt.Sprintf("pipeline of %d stages", len(p.stages))
}
