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

// Package pedigree models a pedigree as an arena of Individuals addressed
// by index rather than by shared ownership (spec §9): parent links are
// ids into the owning Pedigree, so cloning a Pedigree across simulation
// replicates is a cheap structural copy, and meiosis traversal is a plain
// index walk instead of Rc<RefCell<..>> dereferencing.
package pedigree

import (
	"math/rand"

	"github.com/grups-project/grups-go/internal/grupserr"
)

// Sex is an individual's simulated sex; XChrMode-aware meiosis depends on
// it for offspring generated under a sex-specific run.
type Sex int

const (
	SexUnknown Sex = iota
	SexMale
	SexFemale
)

// noParent marks a founder's missing parent slot.
const noParent = -1

// Individual is one pedigree member. Founders have Parents == {noParent,
// noParent} and their Alleles are populated directly from a genotype
// source; offspring have two valid Parents and Alleles computed by
// meiosis once per site.
type Individual struct {
	Label   string
	Parents [2]int
	Sex     Sex

	// Strands, assigned once per replicate before simulation begins, picks
	// which of each parent's two Alleles slots this individual inherits by
	// default; CurrentlyRecombining tracks whether a crossover has flipped
	// that default for the parent-to-offspring transmission in progress.
	Strands              [2]int
	CurrentlyRecombining [2]bool

	Alleles    [2]uint8
	HasAlleles bool
}

// IsFounder reports whether ind has no parents in the pedigree.
func (ind Individual) IsFounder() bool {
	return ind.Parents[0] == noParent && ind.Parents[1] == noParent
}

// PedComparison is one internal kinship scenario within a Pedigree: a pair
// of Individual ids plus running pwd/overlap counters accumulated across
// every simulated coordinate.
type PedComparison struct {
	Label   string
	Pair    [2]int
	Self    bool
	PwdSum  float64
	Overlap int
}

// AvgPwd returns PwdSum / Overlap, or 0 with no accepted sites.
func (pc PedComparison) AvgPwd() float64 {
	if pc.Overlap == 0 {
		return 0
	}
	return pc.PwdSum / float64(pc.Overlap)
}

// Pedigree is an arena of Individuals plus the internal comparisons it was
// built to answer. Individuals are addressed by index for the lifetime of
// the Pedigree. A parent may have a higher index than its offspring (the
// PED/FAM parser sets Parents directly), so AssignAlleles first recurses
// into any parent that has no alleles yet.
type Pedigree struct {
	Individuals []Individual
	labelIndex  map[string]int
	Comparisons []PedComparison
	Population  string
}

// New returns an empty Pedigree.
func New() *Pedigree {
	return &Pedigree{labelIndex: make(map[string]int)}
}

// AddFounder appends a parentless Individual and returns its id.
func (p *Pedigree) AddFounder(label string) int {
	id := len(p.Individuals)
	p.Individuals = append(p.Individuals, Individual{Label: label, Parents: [2]int{noParent, noParent}})
	p.labelIndex[label] = id
	return id
}

// AddOffspring appends an Individual with the two given parent ids and
// returns its id. Both parents must already exist in the pedigree.
func (p *Pedigree) AddOffspring(label string, parent0, parent1 int) (int, error) {
	if parent0 < 0 || parent0 >= len(p.Individuals) || parent1 < 0 || parent1 >= len(p.Individuals) {
		return 0, grupserr.E(grupserr.SchemaError, "pedigree.AddOffspring: "+label+": parent id out of range")
	}
	id := len(p.Individuals)
	p.Individuals = append(p.Individuals, Individual{Label: label, Parents: [2]int{parent0, parent1}})
	p.labelIndex[label] = id
	return id, nil
}

// AddComparison appends an internal PedComparison between two labeled
// Individuals.
func (p *Pedigree) AddComparison(label string, ind1, ind2 string, self bool) error {
	id1, ok := p.labelIndex[ind1]
	if !ok {
		return grupserr.E(grupserr.SchemaError, "pedigree.AddComparison: "+label+": unknown individual "+ind1)
	}
	id2, ok := p.labelIndex[ind2]
	if !ok {
		return grupserr.E(grupserr.SchemaError, "pedigree.AddComparison: "+label+": unknown individual "+ind2)
	}
	p.Comparisons = append(p.Comparisons, PedComparison{Label: label, Pair: [2]int{id1, id2}, Self: self})
	return nil
}

// Lookup returns the id of the individual with the given label.
func (p *Pedigree) Lookup(label string) (int, bool) {
	id, ok := p.labelIndex[label]
	return id, ok
}

// AssignStrands draws, once per replicate, a uniform {0,1} strand choice
// for each offspring's two parent transmissions. Founders are untouched
// (Strands is meaningless for them).
func (p *Pedigree) AssignStrands(rng *rand.Rand) {
	for i := range p.Individuals {
		if p.Individuals[i].IsFounder() {
			continue
		}
		p.Individuals[i].Strands = [2]int{rng.Intn(2), rng.Intn(2)}
	}
}

// AssignSexes assigns {Male, Female} uniformly to every individual, subject
// to every offspring's two parents having opposite sexes, retrying up to
// maxAttempts times before failing. Founders with no constraint are
// assigned freely.
func (p *Pedigree) AssignSexes(rng *rand.Rand, maxAttempts int) error {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		sexes := make([]Sex, len(p.Individuals))
		for i := range sexes {
			if rng.Float64() < 0.5 {
				sexes[i] = SexMale
			} else {
				sexes[i] = SexFemale
			}
		}
		ok := true
		for _, ind := range p.Individuals {
			if ind.IsFounder() {
				continue
			}
			if sexes[ind.Parents[0]] == sexes[ind.Parents[1]] {
				ok = false
				break
			}
		}
		if ok {
			for i := range p.Individuals {
				p.Individuals[i].Sex = sexes[i]
			}
			return nil
		}
	}
	return grupserr.E(grupserr.SemanticError, "pedigree.AssignSexes: no opposite-sex parent assignment found within attempt budget")
}

// ResetAlleles clears every individual's per-site allele state, called
// once all internal comparisons for a coordinate have been scored.
func (p *Pedigree) ResetAlleles() {
	for i := range p.Individuals {
		p.Individuals[i].Alleles = [2]uint8{}
		p.Individuals[i].HasAlleles = false
	}
}

// Clone returns a deep copy of p suitable for an independent replicate: a
// structural copy of the Individuals arena (Strands/CurrentlyRecombining
// are replicate-local state), sharing the (immutable after construction)
// label index and comparison list.
func (p *Pedigree) Clone() *Pedigree {
	clone := &Pedigree{
		labelIndex:  p.labelIndex,
		Comparisons: append([]PedComparison(nil), p.Comparisons...),
		Population:  p.Population,
	}
	clone.Individuals = append([]Individual(nil), p.Individuals...)
	return clone
}
