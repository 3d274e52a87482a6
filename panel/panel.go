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

// Package panel loads the reference-panel sample->population mapping and
// supplies random founder and contaminant sampling without replacement
// (spec §4.F).
package panel

import (
	"bufio"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/grups-project/grups-go/internal/grupserr"
)

// Sex is a panel individual's reported sex.
type Sex int

const (
	SexUnknown Sex = iota
	SexMale
	SexFemale
)

func parseSex(s string) Sex {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "M", "MALE", "1":
		return SexMale
	case "F", "FEMALE", "2":
		return SexFemale
	default:
		return SexUnknown
	}
}

// SampleTag identifies one panel individual: its sample id, population
// labels, reported sex, and -- once assigned -- its column index within a
// VCF's genotype fields.
type SampleTag struct {
	SampleID  string
	Pop       string
	SuperPop  string
	Sex       Sex
	VCFIndex  int
	HasVCFIdx bool
}

// Panel is a tab-separated `sample pop super_pop [sex]` reference panel,
// indexed by population and super-population label. A tag is reachable
// under both its pop and its super-pop keys.
type Panel struct {
	byLabel map[string][]*SampleTag
	tags    []*SampleTag
	rng     *rand.Rand
}

// Load reads a panel file; rng drives the panel's random sampling.
func Load(path string, rng *rand.Rand) (*Panel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, grupserr.E(grupserr.IoError, err, "panel.Load: open "+path)
	}
	defer f.Close()

	p := &Panel{byLabel: make(map[string][]*SampleTag), rng: rng}
	scanner := bufio.NewScanner(f)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, grupserr.E(grupserr.SchemaError, "panel.Load: line "+strconv.Itoa(lineno)+": expected >= 3 tab-separated fields")
		}
		tag := &SampleTag{SampleID: fields[0], Pop: fields[1], SuperPop: fields[2]}
		if len(fields) >= 4 {
			tag.Sex = parseSex(fields[3])
		}
		p.tags = append(p.tags, tag)
		p.byLabel[tag.Pop] = append(p.byLabel[tag.Pop], tag)
		p.byLabel[tag.SuperPop] = append(p.byLabel[tag.SuperPop], tag)
	}
	if err := scanner.Err(); err != nil {
		return nil, grupserr.E(grupserr.IoError, err, "panel.Load: scan "+path)
	}
	return p, nil
}

// AssignVCFIndexes reads a VCF `#CHROM` header line and records each
// sample's genotype column index (offset by the 9 leading fixed VCF
// columns). Tags absent from the header retain HasVCFIdx == false; the
// count of such unmatched tags is returned so the caller can warn once.
func (p *Panel) AssignVCFIndexes(headerLine string) (unmatched int) {
	fields := strings.Split(headerLine, "\t")
	const fixedColumns = 9
	index := make(map[string]int, len(fields))
	for i := fixedColumns; i < len(fields); i++ {
		index[fields[i]] = i - fixedColumns
	}
	for _, tag := range p.tags {
		if idx, ok := index[tag.SampleID]; ok {
			tag.VCFIndex = idx
			tag.HasVCFIdx = true
		} else {
			unmatched++
		}
	}
	return unmatched
}

// RandomSample uniformly picks one tag from label's population after
// filtering out exclude and (if sexFilter != SexUnknown) tags whose sex
// doesn't match sexFilter.
func (p *Panel) RandomSample(label string, exclude map[string]bool, sexFilter Sex) (*SampleTag, error) {
	candidates := p.candidates(label, exclude, sexFilter)
	if len(candidates) == 0 {
		return nil, grupserr.E(grupserr.ResourceError, "panel.RandomSample: population "+label+" exhausted")
	}
	return candidates[p.rng.Intn(len(candidates))], nil
}

func (p *Panel) candidates(label string, exclude map[string]bool, sexFilter Sex) []*SampleTag {
	var out []*SampleTag
	for _, tag := range p.byLabel[label] {
		if exclude != nil && exclude[tag.SampleID] {
			continue
		}
		if sexFilter != SexUnknown && tag.Sex != sexFilter {
			continue
		}
		out = append(out, tag)
	}
	return out
}

// FetchContaminants returns, for each compared sample i (0-based), a slice
// of counts[i] distinct random tags drawn from pops[i % len(pops)]. An
// exhausted candidate pool is a hard error.
func (p *Panel) FetchContaminants(pops []string, counts []int) ([][]*SampleTag, error) {
	if len(pops) == 0 {
		return nil, grupserr.E(grupserr.SemanticError, "panel.FetchContaminants: no contaminant populations given")
	}
	out := make([][]*SampleTag, len(counts))
	for i, n := range counts {
		pop := pops[i%len(pops)]
		chosen := make(map[string]bool, n)
		tags := make([]*SampleTag, 0, n)
		for len(tags) < n {
			candidates := p.candidates(pop, chosen, SexUnknown)
			if len(candidates) == 0 {
				return nil, grupserr.E(grupserr.ResourceError, "panel.FetchContaminants: population "+pop+" exhausted")
			}
			pick := candidates[p.rng.Intn(len(candidates))]
			chosen[pick.SampleID] = true
			tags = append(tags, pick)
		}
		out[i] = tags
	}
	return out, nil
}
