// Package ancestry derives "who invited whom" chains from ledger
// state. Chains are computed on demand and hold no resources.
package ancestry

import (
	"context"
	"errors"
	"fmt"

	"quorum.wiki/core/gatehouse/db"
	"quorum.wiki/core/gatehouse/faults"
	"quorum.wiki/core/log"
)

// ErrChainCycle reports a cycle in the invitation graph. It matches
// faults.ErrIntegrity and accompanies a truncated, still-useful chain.
var ErrChainCycle = fmt.Errorf("invitation chain cycle: %w", faults.ErrIntegrity)

type Resolver struct {
	db db.Execer
}

func New(e db.Execer) *Resolver {
	return &Resolver{db: e}
}

// ResolveChain walks backwards from userId through consuming invites
// until it reaches a genesis user. Iteration is bounded by a visited
// set: corrupted data that forms a cycle terminates the walk and
// returns the chain so far together with ErrChainCycle.
func (r *Resolver) ResolveChain(ctx context.Context, userId int64) ([]int64, error) {
	var chain []int64
	seen := make(map[int64]bool)

	current := userId
	for {
		chain = append(chain, current)
		seen[current] = true

		inv, err := db.GetInviteForUser(r.db, current)
		if errors.Is(err, faults.ErrNotFound) {
			// genesis: nobody invited this user
			return chain, nil
		}
		if err != nil {
			return chain, err
		}

		if seen[inv.InviterId] {
			log.FromContext(ctx).Warn("invitation chain contains a cycle",
				"start", userId, "repeated", inv.InviterId, "length", len(chain))
			return chain, ErrChainCycle
		}
		current = inv.InviterId
	}
}
