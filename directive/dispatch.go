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

package directive

import (
	"github.com/qdt/c2t/curated"
	"github.com/qdt/c2t/logger"
)

// Handler is called when the debug session stops on a line with the
// directive.
type Handler func(d Directive) error

// Registry is the set of directive handlers of a debug session. Every name
// is dispatched in the same way. Unknown names are warned about once per
// line and otherwise ignored.
type Registry struct {
	file     string
	handlers map[string]Handler
	warned   map[int]map[string]bool
	log      logger.Permission
}

// NewRegistry is the preferred method of initialisation for the Registry
// type.
func NewRegistry(file string, log logger.Permission) *Registry {
	return &Registry{
		file:     file,
		handlers: make(map[string]Handler),
		warned:   make(map[int]map[string]bool),
		log:      log,
	}
}

// Register a handler for the directive name. An existing handler for the
// name is replaced.
func (r *Registry) Register(name string, h Handler) {
	r.handlers[name] = h
}

// Known returns true if a handler has been registered for the name.
func (r *Registry) Known(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Dispatch calls the handler of every directive in turn. The first error
// returned by a handler stops the dispatch.
func (r *Registry) Dispatch(directives []Directive) error {
	for _, d := range directives {
		h, ok := r.handlers[d.Name]
		if !ok {
			r.warn(d)
			continue
		}
		if err := h(d); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) warn(d Directive) {
	w, ok := r.warned[d.Line]
	if !ok {
		w = make(map[string]bool)
		r.warned[d.Line] = w
	}
	if w[d.Name] {
		return
	}
	w[d.Name] = true

	err := curated.Errorf(DirectiveError, r.file, d.Line, "command '"+d.Name+"' is not defined")
	logger.Log(r.log, "directive", err)
}
