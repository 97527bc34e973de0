/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package identity

import (
	"context"
	"fmt"
	"time"
)

// Oracle maps raw parameter names to canonical ones. The reply may omit
// names; an omitted name is left unchanged.
type Oracle interface {
	Normalize(ctx context.Context, names []string) (map[string]string, error)
}

// Saver persists a mapping.
type Saver interface {
	Save(m Mapping) error
}

// Resolution is the outcome of resolving one batch of names.
type Resolution struct {
	// Names maps every requested name to its canonical form.
	Names map[string]string
	// Mapping is the cache after this resolution.
	Mapping Mapping
	// Learned holds the entries added during this resolution.
	Learned map[string]string
	// Unresolved lists the names that were sent to the oracle.
	Unresolved   []string
	OracleCalled bool
	OracleErr    error
	Saved        bool
}

// Resolver resolves raw names against a mapping, consulting the oracle only
// for names the mapping does not know.
type Resolver struct {
	saver   Saver
	oracle  Oracle
	timeout time.Duration
}

// NewResolver returns a resolver. A zero timeout leaves the oracle call
// bounded only by the caller's context.
func NewResolver(saver Saver, oracle Oracle, timeout time.Duration) *Resolver {
	return &Resolver{saver: saver, oracle: oracle, timeout: timeout}
}

// Resolve projects names through m. Unknown names are sent to the oracle in
// a single call; its answers are merged and persisted before returning. An
// oracle failure leaves the unknown names mapped to themselves and is
// reported in the Resolution. The returned error is non-nil only when the
// updated mapping could not be saved.
func (r *Resolver) Resolve(ctx context.Context, names []string, m Mapping) (Resolution, error) {
	res := Resolution{Mapping: m, Learned: map[string]string{}}

	res.Unresolved = Unresolved(names, m)
	if len(res.Unresolved) == 0 || r.oracle == nil {
		res.Names = m.Project(names)
		return res, nil
	}

	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc

		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	logger.Info("Resolving parameter names", "unresolved", len(res.Unresolved))

	reply, err := r.oracle.Normalize(callCtx, res.Unresolved)
	res.OracleCalled = true

	if err != nil {
		logger.Warn("Name normalization failed, keeping raw names", "names", len(res.Unresolved), "error", err)

		res.OracleErr = err
		res.Names = m.Project(names)

		return res, nil
	}

	requested := make(map[string]string, len(res.Unresolved))

	for _, name := range res.Unresolved {
		if canonical, ok := reply[name]; ok {
			requested[name] = canonical
		}
	}

	merged := Confirm(Merge(m, requested), res.Unresolved)

	for _, name := range res.Unresolved {
		if canonical, ok := merged.Lookup(name); ok && canonical != name {
			res.Learned[name] = canonical
		}
	}

	res.Mapping = merged
	res.Names = merged.Project(names)

	if merged.Version() == m.Version() || r.saver == nil {
		return res, nil
	}

	if err := r.saver.Save(merged); err != nil {
		return res, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	res.Saved = true

	logger.Info("Saved identity mapping", "learned", len(res.Learned), "entries", merged.Len())

	return res, nil
}
