// Copyright 2024 The grups-go Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package coord

import (
	"fmt"

	"github.com/grups-project/grups-go/internal/grupserr"
)

// Allele is a single-nucleotide enumeration. N denotes "unknown" and never
// participates in a transition/transversion classification.
type Allele uint8

const (
	A Allele = iota
	C
	G
	T
	N
)

func (a Allele) String() string {
	switch a {
	case A:
		return "A"
	case C:
		return "C"
	case G:
		return "G"
	case T:
		return "T"
	default:
		return "N"
	}
}

// ParseAllele parses a single base character, case-insensitively. '.' is
// accepted as a synonym for "unknown" at this layer; pileup parsing resolves
// '.'/',' to the line's reference allele before this point.
func ParseAllele(b byte) (Allele, error) {
	switch b {
	case 'A', 'a':
		return A, nil
	case 'C', 'c':
		return C, nil
	case 'G', 'g':
		return G, nil
	case 'T', 't':
		return T, nil
	case 'N', 'n', '.':
		return N, nil
	default:
		return N, grupserr.E(grupserr.ParseError, fmt.Sprintf("coord.ParseAllele: unrecognized base %q", string(b)))
	}
}

// HasKnownAlleles reports whether a is not the "unknown" sentinel.
func (a Allele) HasKnownAlleles() bool { return a != N }

// Target is an SNP target: a Coord plus its expected reference and alternate
// alleles. A non-N reference/alternate pair defines a biallelic SNP.
type Target struct {
	Coord     Coord
	Reference Allele
	Alternate Allele
}

// HasKnownAlleles reports whether both Reference and Alternate are known.
func (t Target) HasKnownAlleles() bool {
	return t.Reference.HasKnownAlleles() && t.Alternate.HasKnownAlleles()
}

// TargetSet is a hash set of SNP targets keyed on Coord only (never on the
// allele pair), matching spec §4.A.
type TargetSet struct {
	byCoord map[Coord]Target
}

// NewTargetSet creates an empty TargetSet.
func NewTargetSet() *TargetSet {
	return &TargetSet{byCoord: make(map[Coord]Target)}
}

// Insert adds t to the set, keyed on t.Coord. A later insert at the same
// Coord overwrites the earlier one.
func (s *TargetSet) Insert(t Target) {
	s.byCoord[t.Coord] = t
}

// Lookup returns the Target at c, if any.
func (s *TargetSet) Lookup(c Coord) (Target, bool) {
	t, ok := s.byCoord[c]
	return t, ok
}

// Len returns the number of distinct coordinates in the set.
func (s *TargetSet) Len() int { return len(s.byCoord) }
