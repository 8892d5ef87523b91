// Package locator finds protocol records on the ledger. A scan fetches every
// candidate at an address holding a coarse filter unit, attempts the kind's
// decoder on each, keeps the candidates whose decoded selector matches, and
// applies a per-kind policy to decide how many matches are acceptable.
package locator

import (
	"context"
	"fmt"

	"github.com/lagoonfi/lagoon-go-sdk/protocol/indexer"
)

// Policy states how many matches a record kind tolerates.
type Policy int

const (
	// Singleton kinds (governance, staking manager, treasury) must match
	// exactly one record system-wide. Zero or several is a protocol
	// integrity violation, not a selection problem.
	Singleton Policy = iota

	// PerAsset kinds (iAsset registry, price oracle, interest oracle) must
	// match exactly one record for the requested asset. Zero means unknown
	// asset; several means the indexer view is inconsistent and is surfaced,
	// never silently resolved.
	PerAsset

	// Any kinds (collector pool records) may match many; any one is a valid
	// transaction input and the first found is returned. Explicitly
	// non-deterministic.
	Any
)

// NotFoundError reports a selector that matched zero records. It is a
// user-correctable precondition failure.
type NotFoundError struct {
	Kind     string
	Selector string
}

func (e *NotFoundError) Error() string {
	if e.Selector == "" {
		return fmt.Sprintf("%s: no record found", e.Kind)
	}
	return fmt.Sprintf("%s: no record found for %q", e.Kind, e.Selector)
}

// AmbiguousError reports a singleton or per-asset selector that matched more
// than one record. It indicates indexer/chain divergence and is always
// surfaced.
type AmbiguousError struct {
	Kind     string
	Selector string
	Count    int
}

func (e *AmbiguousError) Error() string {
	if e.Selector == "" {
		return fmt.Sprintf("%s: expected a single record, found %d (indexer view inconsistent)", e.Kind, e.Count)
	}
	return fmt.Sprintf("%s: expected a single record for %q, found %d (indexer view inconsistent)", e.Kind, e.Selector, e.Count)
}

// Source is the record-fetch capability the locator needs.
type Source interface {
	UTxOsByUnit(ctx context.Context, address, unit string) ([]indexer.Record, error)
}

// Query describes one lookup.
type Query struct {
	// Kind names the record kind for error messages, e.g. "iasset".
	Kind string
	// Selector is the value being matched, for error messages.
	Selector string

	// Address and Unit form the coarse filter: all records at Address
	// holding Unit are candidates.
	Address string
	Unit    string

	Policy Policy

	// Match attempts the kind's decoder on a candidate and compares its
	// selector field. Returning (false, nil) skips the candidate (wrong kind
	// or wrong selector); a non-nil error aborts the whole scan.
	Match func(rec indexer.Record) (bool, error)
}

// Locate runs a query and returns the unique (or, under Any, the first)
// matching record.
func Locate(ctx context.Context, src Source, q Query) (indexer.Record, error) {
	records, err := LocateAll(ctx, src, q)
	if err != nil {
		return indexer.Record{}, err
	}
	return records[0], nil
}

// LocateAll runs a query and returns every match, policy-checked. Singleton
// and PerAsset results always have length 1.
func LocateAll(ctx context.Context, src Source, q Query) ([]indexer.Record, error) {
	candidates, err := src.UTxOsByUnit(ctx, q.Address, q.Unit)
	if err != nil {
		return nil, err
	}

	var matches []indexer.Record
	for _, rec := range candidates {
		ok, err := q.Match(rec)
		if err != nil {
			return nil, fmt.Errorf("locate %s: %w", q.Kind, err)
		}
		if !ok {
			continue
		}
		if q.Policy == Any {
			// Any one is usable; take the first and stop scanning.
			return []indexer.Record{rec}, nil
		}
		matches = append(matches, rec)
	}

	switch {
	case len(matches) == 0:
		return nil, &NotFoundError{Kind: q.Kind, Selector: q.Selector}
	case len(matches) > 1 && q.Policy != Any:
		return nil, &AmbiguousError{Kind: q.Kind, Selector: q.Selector, Count: len(matches)}
	}
	return matches, nil
}
