// Package ident hands out small dense integer identifiers.
//
// Ids are advisory: they are derived from whatever snapshot the caller passes
// in, so two callers working from different snapshots can still collide.
package ident

// Next returns max(positive seen)+1, or 1 when nothing positive was seen,
// then probes upward while taken reports the candidate as used.
// A nil taken skips the probe.
func Next(seen []ID, taken func(ID) bool) ID {
	var max ID
	for _, id := range seen {
		if id > max {
			max = id
		}
	}
	next := max + 1
	if taken == nil {
		return next
	}
	return Probe(next, taken)
}

// Probe returns start when it is free, otherwise the next free id above it.
func Probe(start ID, taken func(ID) bool) ID {
	for taken(start) {
		start++
	}
	return start
}

// Set is a lookup helper for building taken funcs.
type Set map[ID]struct{}

func NewSet(groups ...[]ID) Set {
	s := Set{}
	for _, g := range groups {
		for _, id := range g {
			s[id] = struct{}{}
		}
	}
	return s
}

func (s Set) Has(id ID) bool {
	_, ok := s[id]
	return ok
}

func (s Set) Add(id ID) { s[id] = struct{}{} }
