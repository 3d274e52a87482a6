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

// Package snpreader loads a SNP target list into a coord.TargetSet,
// auto-detecting the file's column layout and separator from its
// extension (spec §6; format table carried forward from the Rust
// original's snpreader, since spec.md itself treats this autodetection
// as an external collaborator).
package snpreader

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/grailbio/base/log"

	"github.com/grups-project/grups-go/coord"
	"github.com/grups-project/grups-go/internal/grupserr"
)

// layout names the (chr, pos, ref, alt) column indices and field separator
// recognized for one file extension.
type layout struct {
	columns [4]int
	sep     byte
}

var layouts = map[string]layout{
	".snp": {columns: [4]int{1, 3, 4, 5}, sep: ' '},
	".vcf": {columns: [4]int{0, 1, 3, 4}, sep: '\t'},
	".txt": {columns: [4]int{0, 1, 2, 3}, sep: ' '},
	".csv": {columns: [4]int{0, 1, 2, 3}, sep: ','},
	".tsv": {columns: [4]int{0, 1, 2, 3}, sep: '\t'},
}

// transitions enumerates the four (reference, alternate) pairs that are
// transitions rather than transversions; ExcludeTransitions filters these
// out, since post-mortem deamination inflates transition rates at low
// coverage.
var transitions = [4][2]coord.Allele{
	{coord.A, coord.G},
	{coord.G, coord.A},
	{coord.C, coord.T},
	{coord.T, coord.C},
}

func isTransition(ref, alt coord.Allele) bool {
	for _, t := range transitions {
		if t[0] == ref && t[1] == alt {
			return true
		}
	}
	return false
}

// detectLayout maps path's extension to its (columns, separator) layout.
func detectLayout(path string) (layout, error) {
	ext := strings.ToLower(filepath.Ext(path))
	l, ok := layouts[ext]
	if !ok {
		return layout{}, grupserr.E(grupserr.SchemaError, "snpreader: unrecognized extension "+ext+" for "+path)
	}
	return l, nil
}

func splitFields(line string, sep byte) []string {
	raw := strings.Split(line, string(sep))
	fields := raw[:0]
	for _, f := range raw {
		if f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

func parseChromosome(s string) (uint8, error) {
	if strings.EqualFold(s, "X") || strings.EqualFold(s, "chrX") {
		return 23, nil
	}
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "chr"), "Chr")
	n, err := strconv.ParseUint(trimmed, 10, 8)
	if err != nil {
		return 0, grupserr.E(grupserr.ParseError, err, "snpreader: bad chromosome "+s)
	}
	return uint8(n), nil
}

// Read loads path into a coord.TargetSet, auto-detecting its column layout
// from the extension. When excludeTransitions is set, every target's
// reference/alternate alleles must be known (a transversion-only panel has
// no use for an unresolved target), and A/G, G/A, C/T, T/C pairs are
// dropped from the result.
func Read(path string, excludeTransitions bool) (*coord.TargetSet, error) {
	l, err := detectLayout(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, grupserr.E(grupserr.IoError, err, "snpreader.Read: open "+path)
	}
	defer f.Close()

	set := coord.NewTargetSet()
	scanner := bufio.NewScanner(f)
	var dropped int
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := splitFields(line, l.sep)
		maxCol := l.columns[0]
		for _, c := range l.columns {
			if c > maxCol {
				maxCol = c
			}
		}
		if len(fields) <= maxCol {
			return nil, grupserr.E(grupserr.SchemaError, "snpreader.Read: "+path+": expected >= "+strconv.Itoa(maxCol+1)+" fields, got "+line)
		}
		chr, err := parseChromosome(fields[l.columns[0]])
		if err != nil {
			return nil, err
		}
		pos, err := strconv.ParseUint(fields[l.columns[1]], 10, 32)
		if err != nil {
			return nil, grupserr.E(grupserr.ParseError, err, "snpreader.Read: "+path+": bad position "+fields[l.columns[1]])
		}
		ref, err := coord.ParseAllele(fields[l.columns[2]][0])
		if err != nil {
			return nil, err
		}
		alt, err := coord.ParseAllele(fields[l.columns[3]][0])
		if err != nil {
			return nil, err
		}
		target := coord.Target{Coord: coord.Coord{Chromosome: chr, Position: uint32(pos)}, Reference: ref, Alternate: alt}
		if excludeTransitions && !target.HasKnownAlleles() {
			return nil, grupserr.E(grupserr.SemanticError, "snpreader.Read: "+path+": unknown alleles at "+target.Coord.String()+" with exclude-transitions set")
		}
		if excludeTransitions && isTransition(ref, alt) {
			dropped++
			continue
		}
		set.Insert(target)
	}
	if err := scanner.Err(); err != nil {
		return nil, grupserr.E(grupserr.IoError, err, "snpreader.Read: scan "+path)
	}
	if excludeTransitions && dropped > 0 {
		log.Printf("snpreader: filtered %d transitions from %s (%d targets kept)", dropped, path, set.Len())
	}
	return set, nil
}
