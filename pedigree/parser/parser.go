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

// Package parser classifies a pedigree-definition file as either the
// sectioned legacy dialect or PED/FAM and dispatches to the parser for that
// dialect, rather than attempting a single merged grammar (spec §9, §6).
// The one PED/FAM parser tells 3, 4 and 6-column rows apart by column
// count; a leading header row of recognized labels is skipped, and its
// column order is not used.
package parser

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/grups-project/grups-go/internal/grupserr"
	"github.com/grups-project/grups-go/pedigree"
)

// stripComment removes a `#`-prefixed trailing comment from a line.
func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, grupserr.E(grupserr.IoError, err, "parser: open "+path)
	}
	defer f.Close()
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := stripComment(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, grupserr.E(grupserr.IoError, err, "parser: scan "+path)
	}
	return lines, nil
}

// Parse reads path, classifies its dialect, and builds a pedigree.Pedigree.
func Parse(path string) (*pedigree.Pedigree, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, grupserr.E(grupserr.SchemaError, "parser.Parse: "+path+" has no content")
	}
	if isSectionedLegacy(lines) {
		return parseSectionedLegacy(lines)
	}
	return parsePedFam(lines)
}

func isSectionedLegacy(lines []string) bool {
	for _, l := range lines {
		u := strings.ToUpper(strings.TrimSpace(l))
		if u == "INDIVIDUALS" || u == "RELATIONSHIPS" || u == "COMPARISONS" {
			return true
		}
	}
	return false
}

// parseSectionedLegacy handles the dialect with explicit section headers:
//
//	INDIVIDUALS
//	GrandFather
//	RELATIONSHIPS
//	Child=repro(Father,Mother)
//	COMPARISONS
//	GF_GC=compare(GrandFather,GrandChild)
func parseSectionedLegacy(lines []string) (*pedigree.Pedigree, error) {
	p := pedigree.New()
	section := ""
	for _, line := range lines {
		u := strings.ToUpper(strings.TrimSpace(line))
		switch u {
		case "INDIVIDUALS", "RELATIONSHIPS", "COMPARISONS":
			section = u
			continue
		}
		switch section {
		case "INDIVIDUALS":
			p.AddFounder(strings.TrimSpace(line))
		case "RELATIONSHIPS":
			child, parent1, parent2, err := parseReproLine(line)
			if err != nil {
				return nil, err
			}
			id1, ok := p.Lookup(parent1)
			if !ok {
				id1 = p.AddFounder(parent1)
			}
			id2, ok := p.Lookup(parent2)
			if !ok {
				id2 = p.AddFounder(parent2)
			}
			if _, err := p.AddOffspring(child, id1, id2); err != nil {
				return nil, err
			}
		case "COMPARISONS":
			label, ind1, ind2, err := parseCompareLine(line)
			if err != nil {
				return nil, err
			}
			if err := p.AddComparison(label, ind1, ind2, ind1 == ind2); err != nil {
				return nil, err
			}
		default:
			return nil, grupserr.E(grupserr.SchemaError, "parser: line outside any section: "+line)
		}
	}
	return p, nil
}

// parseReproLine parses "child=repro(parent1,parent2)".
func parseReproLine(line string) (child, parent1, parent2 string, err error) {
	eq := strings.IndexByte(line, '=')
	if eq < 0 {
		return "", "", "", grupserr.E(grupserr.ParseError, "parser: malformed relationship line: "+line)
	}
	child = strings.TrimSpace(line[:eq])
	rhs := strings.TrimSpace(line[eq+1:])
	if !strings.HasPrefix(rhs, "repro(") || !strings.HasSuffix(rhs, ")") {
		return "", "", "", grupserr.E(grupserr.ParseError, "parser: expected repro(...) in: "+line)
	}
	args := strings.Split(rhs[len("repro(") : len(rhs)-1], ",")
	if len(args) != 2 {
		return "", "", "", grupserr.E(grupserr.ParseError, "parser: repro(...) expects two parents: "+line)
	}
	return child, strings.TrimSpace(args[0]), strings.TrimSpace(args[1]), nil
}

// parseCompareLine parses "label=compare(ind1,ind2)".
func parseCompareLine(line string) (label, ind1, ind2 string, err error) {
	eq := strings.IndexByte(line, '=')
	if eq < 0 {
		return "", "", "", grupserr.E(grupserr.ParseError, "parser: malformed comparison line: "+line)
	}
	label = strings.TrimSpace(line[:eq])
	rhs := strings.TrimSpace(line[eq+1:])
	if !strings.HasPrefix(rhs, "compare(") || !strings.HasSuffix(rhs, ")") {
		return "", "", "", grupserr.E(grupserr.ParseError, "parser: expected compare(...) in: "+line)
	}
	args := strings.Split(rhs[len("compare(") : len(rhs)-1], ",")
	if len(args) != 2 {
		return "", "", "", grupserr.E(grupserr.ParseError, "parser: compare(...) expects two individuals: "+line)
	}
	return label, strings.TrimSpace(args[0]), strings.TrimSpace(args[1]), nil
}

var pedFieldLabels = map[string]bool{
	"famid": true, "id": true, "iid": true, "fid": true, "mid": true, "sex": true, "aff": true,
}

// parsePedFam handles 3, 4, or 6-column PED/FAM lines, an optional
// recognized-label header, and trailing `COMPARE <label> <ind1> <ind2>`
// lines. Parent id "0" denotes a founder.
func parsePedFam(lines []string) (*pedigree.Pedigree, error) {
	p := pedigree.New()
	start := 0
	if looksLikeHeader(lines[0]) {
		start = 1
	}

	type pending struct {
		id, fid, mid string
		sex          pedigree.Sex
	}
	var rows []pending
	for _, line := range lines[start:] {
		fields := strings.Fields(line)
		if len(fields) > 0 && strings.EqualFold(fields[0], "COMPARE") {
			continue // comparisons handled in a second pass below.
		}
		switch len(fields) {
		case 3: // id fid mid
			rows = append(rows, pending{id: fields[0], fid: fields[1], mid: fields[2]})
		case 4: // id fid mid sex
			rows = append(rows, pending{id: fields[0], fid: fields[1], mid: fields[2], sex: parseSex(fields[3])})
		case 6: // famid id fid mid sex aff
			rows = append(rows, pending{id: fields[1], fid: fields[2], mid: fields[3], sex: parseSex(fields[4])})
		default:
			return nil, grupserr.E(grupserr.SchemaError, "parser: PED/FAM line must have 3, 4 or 6 columns, got "+strconv.Itoa(len(fields)))
		}
	}

	// First pass: found every individual as a founder so forward references
	// (offspring listed before a not-yet-declared parent) resolve.
	for _, row := range rows {
		if _, ok := p.Lookup(row.id); !ok {
			p.AddFounder(row.id)
		}
	}
	for _, row := range rows {
		id, _ := p.Lookup(row.id)
		if row.fid == "0" && row.mid == "0" {
			p.Individuals[id].Sex = row.sex
			continue
		}
		fatherID, ok := p.Lookup(row.fid)
		if !ok {
			fatherID = p.AddFounder(row.fid)
		}
		motherID, ok := p.Lookup(row.mid)
		if !ok {
			motherID = p.AddFounder(row.mid)
		}
		p.Individuals[id].Parents = [2]int{fatherID, motherID}
		p.Individuals[id].Sex = row.sex
	}

	for _, line := range lines[start:] {
		fields := strings.Fields(line)
		if len(fields) == 4 && strings.EqualFold(fields[0], "COMPARE") {
			if err := p.AddComparison(fields[1], fields[2], fields[3], fields[2] == fields[3]); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

func parseSex(s string) pedigree.Sex {
	switch s {
	case "1":
		return pedigree.SexMale
	case "2":
		return pedigree.SexFemale
	default:
		return pedigree.SexUnknown
	}
}

// looksLikeHeader reports whether the line's tokens are all recognized
// PED/FAM field labels (case-insensitive), which disambiguates a header
// row from a 3/4/6-column data row.
func looksLikeHeader(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if !pedFieldLabels[strings.ToLower(f)] {
			return false
		}
	}
	return true
}
