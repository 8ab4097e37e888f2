/*
   Copyright 2016 GitHub Inc.
	 See https://github.com/github/gh-ost/blob/master/LICENSE
*/

// Package gtidlist implements the MariaDB GTID position value object: an
// ordered set of (domain, server, sequence) triples, at most one triple per
// domain, parsed from and rendered to the textual "d-s-n,d-s-n,..." form.
//
// go-mysql-org/go-mysql ships GTID set types, but they model either MySQL's
// UUID-keyed sets or MariaDB's contiguous gtid_slave_pos range encoding --
// neither exposes the disjoint per-domain triples with an explicit
// missing-domain policy this package needs, so the grammar is hand-rolled.
package gtidlist

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MissingDomainPolicy controls how events_ahead treats a domain present in
// the receiver but absent from the comparison list.
type MissingDomainPolicy int

const (
	// MissingDomainIgnore contributes 0 for a domain the other list lacks.
	MissingDomainIgnore MissingDomainPolicy = iota
	// MissingDomainSubtract contributes self.seq for a domain the other list lacks.
	MissingDomainSubtract
)

// GtidTriple is one (domain_id, server_id, sequence) entry.
type GtidTriple struct {
	DomainID uint32
	ServerID uint32
	Sequence uint64
}

func (t GtidTriple) String() string {
	return fmt.Sprintf("%d-%d-%d", t.DomainID, t.ServerID, t.Sequence)
}

// GtidList is an ordered-by-domain list of GtidTriple with at most one
// triple per domain.
type GtidList struct {
	triples map[uint32]GtidTriple
}

// Empty returns the empty GtidList.
func Empty() GtidList {
	return GtidList{}
}

// Parse parses the textual "d-s-n[,d-s-n]*" form. An empty string parses to
// an empty list. Malformed input returns an empty list together with an
// error; callers log it as a warning with the raw text and carry on with
// the empty list (MustParse drops the error).
func Parse(text string) (GtidList, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return GtidList{}, nil
	}
	list := GtidList{triples: make(map[uint32]GtidTriple)}
	for _, token := range strings.Split(text, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		fields := strings.SplitN(token, "-", 3)
		if len(fields) != 3 {
			return GtidList{}, fmt.Errorf("gtidlist: cannot parse triple %q in %q", token, text)
		}
		domain, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return GtidList{}, fmt.Errorf("gtidlist: bad domain in %q: %w", token, err)
		}
		server, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return GtidList{}, fmt.Errorf("gtidlist: bad server id in %q: %w", token, err)
		}
		seq, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return GtidList{}, fmt.Errorf("gtidlist: bad sequence in %q: %w", token, err)
		}
		list.triples[uint32(domain)] = GtidTriple{DomainID: uint32(domain), ServerID: uint32(server), Sequence: seq}
	}
	return list, nil
}

// MustParse is Parse but on error returns the empty list, matching the
// "malformed input is tolerated" invariant used by callers that have
// already logged the warning.
func MustParse(text string) GtidList {
	list, err := Parse(text)
	if err != nil {
		return GtidList{}
	}
	return list
}

// IsEmpty reports whether the list has no domains.
func (l GtidList) IsEmpty() bool {
	return len(l.triples) == 0
}

// Domains returns the sorted list of domain ids present.
func (l GtidList) Domains() []uint32 {
	domains := make([]uint32, 0, len(l.triples))
	for d := range l.triples {
		domains = append(domains, d)
	}
	sort.Slice(domains, func(i, j int) bool { return domains[i] < domains[j] })
	return domains
}

// Get returns the triple for a domain, if present.
func (l GtidList) Get(domain uint32) (GtidTriple, bool) {
	t, ok := l.triples[domain]
	return t, ok
}

// String renders the list in domain order, the inverse of Parse.
func (l GtidList) String() string {
	domains := l.Domains()
	tokens := make([]string, 0, len(domains))
	for _, d := range domains {
		tokens = append(tokens, l.triples[d].String())
	}
	return strings.Join(tokens, ",")
}

// Equals reports element-wise equality after sorting by domain.
func (l GtidList) Equals(other GtidList) bool {
	if len(l.triples) != len(other.triples) {
		return false
	}
	for d, t := range l.triples {
		ot, ok := other.triples[d]
		if !ok || ot != t {
			return false
		}
	}
	return true
}

// EventsAhead computes, for every domain present in the receiver, the
// amount by which the receiver is ahead of other: max(0, self.seq -
// other.seq). A domain absent from other contributes per policy: Ignore
// contributes 0, Subtract contributes self.seq (an implementer's note on
// the source: this is the conservative choice for the case where a node's
// current_pos outran one io_pos stream the monitor has not yet observed).
func (l GtidList) EventsAhead(other GtidList, policy MissingDomainPolicy) uint64 {
	var total uint64
	for domain, self := range l.triples {
		otherTriple, ok := other.triples[domain]
		if !ok {
			if policy == MissingDomainSubtract {
				total += self.Sequence
			}
			continue
		}
		if self.Sequence > otherTriple.Sequence {
			total += self.Sequence - otherTriple.Sequence
		}
	}
	return total
}

// CanReplicateFrom reports whether every domain in the receiver is present
// in masterPos with a sequence number at least as high, i.e. the master
// position covers everything this node has already applied.
func (l GtidList) CanReplicateFrom(masterPos GtidList) bool {
	for domain, self := range l.triples {
		masterTriple, ok := masterPos.triples[domain]
		if !ok || masterTriple.Sequence < self.Sequence {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (l GtidList) Clone() GtidList {
	if l.IsEmpty() {
		return GtidList{}
	}
	out := GtidList{triples: make(map[uint32]GtidTriple, len(l.triples))}
	for d, t := range l.triples {
		out.triples[d] = t
	}
	return out
}
