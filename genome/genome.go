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

// Package genome models the reference genome as an ordered set of named,
// sized chromosomes, read from a samtools-style `.fasta.fai` index
// (http://www.htslib.org/doc/faidx.html), and provides an embedded GRCh37
// autosomal fallback for when no index is supplied (spec §6).
package genome

import (
	"bufio"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/grups-project/grups-go/internal/grupserr"
)

// Chromosome is one entry of a Genome: an index (insertion order, used to
// pair up chromatids during fertilization), a one-byte numeric name, and a
// base-pair length.
type Chromosome struct {
	Index  int
	Name   uint8
	Length uint32
}

// Genome is a set of chromosomes kept in insertion order.
type Genome struct {
	byName map[uint8]Chromosome
	order  []uint8
}

// chrNamePattern accepts a "chr"/"ch" prefix (any case; bare names such as
// "1" or "X" do not match) followed by either a numeric autosome id or "X";
// anything else is skipped rather than rejected, since
// `.fai` files commonly carry contigs (alt haplotypes, decoys, chrY, chrM)
// the simulator has no use for.
var chrNamePattern = regexp.MustCompile(`(?i)^chr?(\d+|x)$`)

// New returns an empty Genome.
func New() *Genome {
	return &Genome{byName: make(map[uint8]Chromosome)}
}

// FromFastaIndex reads a `.fasta.fai` file and builds a Genome from its
// first two columns (name, length). Contigs whose name doesn't match
// chr?(\d+|X) are silently skipped; chrX is assigned name 23.
func FromFastaIndex(path string) (*Genome, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, grupserr.E(grupserr.IoError, err, "genome.FromFastaIndex: open "+path)
	}
	defer f.Close()

	g := New()
	scanner := bufio.NewScanner(f)
	index := 0
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, grupserr.E(grupserr.SchemaError, "genome.FromFastaIndex: "+path+": expected >= 2 tab-separated fields, got "+line)
		}
		name, ok := parseChrName(fields[0])
		if !ok {
			continue
		}
		length, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, grupserr.E(grupserr.ParseError, err, "genome.FromFastaIndex: "+path+": bad length for "+fields[0])
		}
		g.add(Chromosome{Index: index, Name: name, Length: uint32(length)})
		index++
	}
	if err := scanner.Err(); err != nil {
		return nil, grupserr.E(grupserr.IoError, err, "genome.FromFastaIndex: scan "+path)
	}
	if g.IsEmpty() {
		return nil, grupserr.E(grupserr.SchemaError, "genome.FromFastaIndex: "+path+" yielded no recognized chromosomes")
	}
	return g, nil
}

// parseChrName strips the "chr" prefix that chrNamePattern requires and maps
// the remainder to a numeric chromosome id, "X" becoming 23.
func parseChrName(field string) (uint8, bool) {
	if !chrNamePattern.MatchString(field) {
		return 0, false
	}
	trimmed := strings.TrimPrefix(strings.TrimPrefix(field, "chr"), "Chr")
	if strings.EqualFold(trimmed, "X") {
		return 23, true
	}
	n, err := strconv.ParseUint(trimmed, 10, 8)
	if err != nil {
		return 0, false
	}
	return uint8(n), true
}

func (g *Genome) add(c Chromosome) {
	if _, exists := g.byName[c.Name]; !exists {
		g.order = append(g.order, c.Name)
	}
	g.byName[c.Name] = c
}

// Lookup returns the chromosome with the given name.
func (g *Genome) Lookup(name uint8) (Chromosome, bool) {
	c, ok := g.byName[name]
	return c, ok
}

// Chromosomes returns every chromosome, ordered by insertion (index).
func (g *Genome) Chromosomes() []Chromosome {
	out := make([]Chromosome, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.byName[name])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// IsEmpty reports whether the genome has no chromosomes.
func (g *Genome) IsEmpty() bool { return len(g.byName) == 0 }

// Len returns the number of chromosomes.
func (g *Genome) Len() int { return len(g.byName) }

// Default returns the embedded GRCh37 autosomal genome (chromosomes 1-22),
// used when the caller supplies no `.fasta.fai` index. Lengths are the
// standard GRCh37/hg19 assembly values.
func Default() *Genome {
	g := New()
	for i, length := range grch37AutosomeLengths {
		g.add(Chromosome{Index: i, Name: uint8(i + 1), Length: length})
	}
	return g
}

var grch37AutosomeLengths = [22]uint32{
	249250621, 243199373, 198022430, 191154276, 180915260,
	171115067, 159138663, 146364022, 141213431, 135534747,
	135006516, 133851895, 115169878, 107349540, 102531392,
	90354753, 81195210, 78077248, 59128983, 63025520,
	48129895, 51304566,
}
