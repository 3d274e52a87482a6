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

package comparison

import (
	"strconv"

	"github.com/grups-project/grups-go/coord"
	"github.com/grups-project/grups-go/internal/grupserr"
	"github.com/grups-project/grups-go/jackknife"
	"github.com/grups-project/grups-go/pileup"
)

// Individual is one pileup-side participant in a Comparison: its display
// name, 0-based column index into a pileup.Line, and minimum required
// depth. Self-comparisons force MinDepth >= 2.
type Individual struct {
	Name     string
	Column   int
	MinDepth int
}

// DefaultName returns "Ind{index}", used when the caller supplies no name.
func DefaultName(index int) string {
	return "Ind" + strconv.Itoa(index)
}

// Comparison accumulates pairwise-difference statistics for one pair of
// pileup Individuals across a streamed pileup, partitioned into jackknife
// blocks for variance estimation.
type Comparison struct {
	Name   string
	Pair   [2]Individual
	Self   bool
	Blocks *jackknife.Blocks

	sites    map[coord.Coord]Pwd
	variance Variance
}

// New constructs a Comparison. Self-comparisons (pair[0] == pair[1]) must
// carry MinDepth >= 2 on both sides; callers are expected to have already
// rescaled and warned, per spec §3, before reaching this constructor.
func New(name string, pair [2]Individual, self bool, blocks *jackknife.Blocks) (*Comparison, error) {
	if self {
		if pair[0].MinDepth < 2 || pair[1].MinDepth < 2 {
			return nil, grupserr.E(grupserr.SemanticError, "comparison.New: self-comparison "+name+" requires min-depth >= 2")
		}
	}
	return &Comparison{
		Name:   name,
		Pair:   pair,
		Self:   self,
		Blocks: blocks,
		sites:  make(map[coord.Coord]Pwd),
	}, nil
}

// SatisfiableDepth reports whether every column this comparison reads from
// meets its individual's minimum depth.
func (c *Comparison) SatisfiableDepth(line pileup.Line) bool {
	if c.Pair[0].Column >= len(line.Columns) || c.Pair[1].Column >= len(line.Columns) {
		return false
	}
	col0 := line.Columns[c.Pair[0].Column]
	col1 := line.Columns[c.Pair[1].Column]
	if col0.Depth < c.Pair[0].MinDepth {
		return false
	}
	if !c.Self && col1.Depth < c.Pair[1].MinDepth {
		return false
	}
	return true
}

// Compare folds one accepted pileup line into the comparison: builds the
// site's Pwd (deterministic self- or pairwise-sampling), inserts it keyed by
// Coordinate (idempotent -- a Coordinate is counted at most once), locates
// its jackknife block, and increments that block's overlap and pwd sum.
// A coordinate whose jackknife block cannot be located is fatal, since it
// indicates a genome/blocksize mismatch.
func (c *Comparison) Compare(line pileup.Line) error {
	if !c.SatisfiableDepth(line) {
		return nil
	}
	if _, already := c.sites[line.Coord]; already {
		return nil
	}

	col0 := line.Columns[c.Pair[0].Column]
	var pwd Pwd
	if c.Self {
		pwd = ComputeSelfPwd(line.Coord, col0)
	} else {
		col1 := line.Columns[c.Pair[1].Column]
		pwd = ComputePairwisePwd(line.Coord, col0, col1)
	}
	c.sites[line.Coord] = pwd
	c.variance.Update(pwd.AvgLocalPwd())

	block, ok := c.Blocks.Find(line.Coord.Chromosome, line.Coord.Position)
	if !ok {
		return grupserr.E(grupserr.SemanticError, "comparison.Compare: no jackknife block contains "+line.Coord.String())
	}
	block.AddSite()
	block.AddPwd(pwd.AvgLocalPwd())
	return nil
}

// Positions returns every accepted coordinate, unordered.
func (c *Comparison) Positions() []coord.Coord {
	out := make([]coord.Coord, 0, len(c.sites))
	for k := range c.sites {
		out = append(out, k)
	}
	return out
}

// Pwds returns the full site map; callers must not mutate the result.
func (c *Comparison) Pwds() map[coord.Coord]Pwd { return c.sites }

// RemoveSites deletes the given coordinates from the site set, used by the
// MAF-correction pass (spec §4.I) to keep the pileup and simulation site
// universes aligned.
func (c *Comparison) RemoveSites(coords []coord.Coord) {
	for _, k := range coords {
		delete(c.sites, k)
	}
}

// SumPwd returns the sum of avg-local-PWD across every accepted site.
func (c *Comparison) SumPwd() float64 {
	var sum float64
	for _, p := range c.sites {
		sum += p.AvgLocalPwd()
	}
	return sum
}

// Overlap returns the number of accepted sites.
func (c *Comparison) Overlap() int { return len(c.sites) }

// AvgPwd returns SumPwd / Overlap, or 0 with no accepted sites.
func (c *Comparison) AvgPwd() float64 {
	if c.Overlap() == 0 {
		return 0
	}
	return c.SumPwd() / float64(c.Overlap())
}

// AvgPhred returns the mean AvgPhred across every accepted site.
func (c *Comparison) AvgPhred() float64 {
	if c.Overlap() == 0 {
		return 0
	}
	var sum float64
	for _, p := range c.sites {
		sum += p.AvgPhred()
	}
	return sum / float64(c.Overlap())
}

// Variance exposes the streaming (Welford) unbiased variance accumulator
// over every accepted site's avg-local-PWD.
func (c *Comparison) Variance() *Variance { return &c.variance }
