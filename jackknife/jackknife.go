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

// Package jackknife partitions each chromosome into fixed-size blocks and
// accumulates, per block, the site and pairwise-mismatch counts needed for a
// delete-m-jackknife variance estimate of the pairwise-mismatch rate (spec
// §4.C).
package jackknife

import (
	"fmt"

	"github.com/grups-project/grups-go/genome"
	"github.com/grups-project/grups-go/internal/grupserr"
)

// Block is one [Start, Stop) partition of a chromosome, tracking how many
// target sites and pairwise mismatches fell within it.
type Block struct {
	Chromosome uint8
	Start      uint32
	Stop       uint32
	SiteCount  uint32
	PwdSum     float64
}

// Contains reports whether pos falls within the block's half-open range.
func (b Block) Contains(pos uint32) bool {
	return pos >= b.Start && pos < b.Stop
}

// AddSite increments the block's overlap (site) counter.
func (b *Block) AddSite() { b.SiteCount++ }

// AddPwd adds one site's avg-local-PWD to the block's running pwd sum.
func (b *Block) AddPwd(avgLocalPwd float64) { b.PwdSum += avgLocalPwd }

func (b Block) String() string {
	return fmt.Sprintf("%d - %d - %d - %d - %g", b.Chromosome, b.Start, b.Stop, b.SiteCount, b.PwdSum)
}

// Pseudovalue is a single block's contribution to the delete-m jackknife
// estimate of the pairwise-mismatch rate.
type Pseudovalue struct {
	Hj     float64 // total overlap divided by this block's site count.
	ThetaJ float64 // pseudo-replicate estimate for this block.
}

// Weighted returns the pseudovalue normalized by Hj, the form summed and
// divided by the count of non-empty blocks to obtain the jackknife mean.
func (p Pseudovalue) Weighted() float64 {
	if p.Hj == 0 {
		return 0
	}
	return p.ThetaJ / p.Hj
}

// ComputePseudovalue computes this block's delete-m pseudovalue given the
// genome-wide totals sumPwd (total pairwise mismatches) and sumOverlap
// (total overlapping sites), per the delete-m-jackknife formula:
//
//	hj          = overlap / siteCount
//	theta       = sumPwd / sumOverlap
//	theta_j     = (sumPwd - pwdCount) / (sumOverlap - siteCount)
//	thetaJ      = hj*theta - (hj-1)*theta_j
func (b Block) ComputePseudovalue(sumPwd, sumOverlap float64) Pseudovalue {
	hj := sumOverlap / float64(b.SiteCount)
	theta := sumPwd / sumOverlap
	thetaMinusJ := (sumPwd - b.PwdSum) / (sumOverlap - float64(b.SiteCount))
	thetaJ := hj*theta - (hj-1)*thetaMinusJ
	return Pseudovalue{Hj: hj, ThetaJ: thetaJ}
}

// Blocks is a genome-wide jackknife partition: per chromosome, a sequence of
// contiguous, non-overlapping half-open Blocks covering [1, chromosome.Length).
type Blocks struct {
	byChr     map[uint8][]Block
	blockSize uint32
}

// New partitions every chromosome of g into fixed-size blocks. Block
// boundaries are generated the way the original implementation does: a
// stepped sequence 1, 1+blockSize, 1+2*blockSize, ... up to the chromosome
// length, consecutive boundaries paired into [start, stop) ranges; unless
// length % blockSize == 1, a final trailing block [last boundary, length)
// is appended (so an exact multiple of blockSize still gets one).
func New(g *genome.Genome, blockSize uint32) (*Blocks, error) {
	if blockSize == 0 {
		return nil, grupserr.E(grupserr.SemanticError, "jackknife.New: blockSize must be > 0")
	}
	b := &Blocks{byChr: make(map[uint8][]Block), blockSize: blockSize}
	for _, chr := range g.Chromosomes() {
		b.byChr[chr.Name] = partitionChromosome(chr.Name, chr.Length, blockSize)
	}
	return b, nil
}

func partitionChromosome(name uint8, length, blockSize uint32) []Block {
	var boundaries []uint32
	for pos := uint32(1); pos <= length; pos += blockSize {
		boundaries = append(boundaries, pos)
	}

	var blocks []Block
	for i := 0; i+1 < len(boundaries); i++ {
		blocks = append(blocks, Block{Chromosome: name, Start: boundaries[i], Stop: boundaries[i+1]})
	}
	// A chromosome whose length isn't congruent to 1 mod blockSize has a
	// final, shorter block running from the last boundary to length (a
	// half-open [last, length) range); when length % blockSize == 1, the
	// last boundary already lands exactly on length and no further block is
	// appended.
	if length%blockSize != 1 && len(boundaries) > 0 {
		blocks = append(blocks, Block{Chromosome: name, Start: boundaries[len(boundaries)-1], Stop: length})
	}
	return blocks
}

// Find returns the block on chromosome chr containing pos, and whether one
// was found. Search is linear within the chromosome's block list, matching
// the reference implementation (block counts per chromosome are small
// relative to site counts, so this never dominates).
func (b *Blocks) Find(chr uint8, pos uint32) (*Block, bool) {
	blocks, ok := b.byChr[chr]
	if !ok {
		return nil, false
	}
	for i := range blocks {
		if blocks[i].Contains(pos) {
			return &blocks[i], true
		}
	}
	return nil, false
}

// All returns every block across every chromosome, in chromosome-then-start
// order.
func (b *Blocks) All() []Block {
	var out []Block
	for _, chr := range sortedKeys(b.byChr) {
		out = append(out, b.byChr[chr]...)
	}
	return out
}

func sortedKeys(m map[uint8][]Block) []uint8 {
	keys := make([]uint8, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
