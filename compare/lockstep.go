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
	"context"

	"github.com/qdt/c2t/curated"
	"github.com/qdt/c2t/session"
)

// Source is a producer of dumps. Implemented by *session.Session.
type Source interface {
	Next(ctx context.Context) (*session.Dump, error)
	Instruction(ctx context.Context, addr uint64) string
}

// MaxDumps is the default limit on the number of dump pairs compared by
// Lockstep. It guards against a test that never ends.
const MaxDumps = 100000

// Lockstep advances the target and the oracle to their next dump in turn and
// compares the dumps. It returns when both sessions have ended or when the
// dumps disagree, in which case the error is a DivergenceError wrapping a
// *Divergence. Every dump is added to the log.
//
// A limit of zero means MaxDumps.
func Lockstep(ctx context.Context, target Source, oracle Source, log *TestLog, limit int) (int, error) {
	if limit <= 0 {
		limit = MaxDumps
	}

	for n := 1; n <= limit; n++ {
		td, err := target.Next(ctx)
		if err != nil {
			return n - 1, err
		}
		log.Log(td)

		od, err := oracle.Next(ctx)
		if err != nil {
			return n - 1, err
		}
		log.Log(od)

		div := Compare(td, od)
		if div != nil {
			if !td.End {
				div.TargetInstruction = target.Instruction(ctx, td.Addr)
			}
			if !od.End {
				div.OracleInstruction = oracle.Instruction(ctx, od.Addr)
			}
			return n, curated.Errorf(DivergenceError, div)
		}

		if td.End && od.End {
			return n, nil
		}
	}

	return limit, curated.Errorf(DivergenceError, &Divergence{Reason: "too many checks"})
}
