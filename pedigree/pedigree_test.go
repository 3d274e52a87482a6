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

package pedigree

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func twoGenPedigree(t *testing.T) *Pedigree {
	t.Helper()
	p := New()
	father := p.AddFounder("Father")
	mother := p.AddFounder("Mother")
	_, err := p.AddOffspring("Child", father, mother)
	require.NoError(t, err)
	require.NoError(t, p.AddComparison("FatherChild", "Father", "Child", false))
	return p
}

func TestAddOffspringRejectsOutOfRangeParent(t *testing.T) {
	p := New()
	father := p.AddFounder("Father")
	_, err := p.AddOffspring("Child", father, 99)
	require.Error(t, err)
}

func TestAddComparisonRejectsUnknownLabel(t *testing.T) {
	p := New()
	p.AddFounder("Father")
	err := p.AddComparison("x", "Father", "Ghost", false)
	require.Error(t, err)
}

func TestAssignStrandsLeavesFoundersZeroed(t *testing.T) {
	p := twoGenPedigree(t)
	rng := rand.New(rand.NewSource(1))
	p.AssignStrands(rng)
	father, _ := p.Lookup("Father")
	child, _ := p.Lookup("Child")
	require.Equal(t, [2]int{0, 0}, p.Individuals[father].Strands)
	for _, s := range p.Individuals[child].Strands {
		require.True(t, s == 0 || s == 1)
	}
}

func TestAssignSexesEnforcesOppositeSexParents(t *testing.T) {
	p := twoGenPedigree(t)
	rng := rand.New(rand.NewSource(7))
	require.NoError(t, p.AssignSexes(rng, 100))
	father, _ := p.Lookup("Father")
	mother, _ := p.Lookup("Mother")
	require.NotEqual(t, p.Individuals[father].Sex, p.Individuals[mother].Sex)
	require.NotEqual(t, SexUnknown, p.Individuals[father].Sex)
}

func TestAssignSexesFailsWhenExhausted(t *testing.T) {
	p := twoGenPedigree(t)
	rng := rand.New(rand.NewSource(1))
	err := p.AssignSexes(rng, 0)
	require.Error(t, err)
}

func TestResetAllelesClearsHasAllelesFlag(t *testing.T) {
	p := twoGenPedigree(t)
	father, _ := p.Lookup("Father")
	p.Individuals[father].Alleles = [2]uint8{1, 1}
	p.Individuals[father].HasAlleles = true
	p.ResetAlleles()
	require.False(t, p.Individuals[father].HasAlleles)
	require.Equal(t, [2]uint8{}, p.Individuals[father].Alleles)
}

func TestCloneIsIndependentOfSource(t *testing.T) {
	p := twoGenPedigree(t)
	father, _ := p.Lookup("Father")
	p.Individuals[father].Alleles = [2]uint8{0, 0}
	p.Individuals[father].HasAlleles = true

	clone := p.Clone()
	clone.Individuals[father].Alleles = [2]uint8{1, 1}

	require.Equal(t, [2]uint8{0, 0}, p.Individuals[father].Alleles)
	require.Equal(t, [2]uint8{1, 1}, clone.Individuals[father].Alleles)
	require.Equal(t, len(p.Comparisons), len(clone.Comparisons))
}

func TestAssignAllelesFromFounderParents(t *testing.T) {
	p := twoGenPedigree(t)
	father, _ := p.Lookup("Father")
	mother, _ := p.Lookup("Mother")
	child, _ := p.Lookup("Child")

	p.Individuals[father].Alleles = [2]uint8{0, 0}
	p.Individuals[father].HasAlleles = true
	p.Individuals[mother].Alleles = [2]uint8{1, 1}
	p.Individuals[mother].HasAlleles = true
	p.Individuals[child].Strands = [2]int{0, 0}

	rng := rand.New(rand.NewSource(42))
	require.NoError(t, p.AssignAlleles(child, 0.0, XChrPseudoHomozygous, false, rng))
	require.True(t, p.Individuals[child].HasAlleles)
	require.Equal(t, [2]uint8{0, 1}, p.Individuals[child].Alleles)
}

func TestAssignAllelesXChrPseudoHomozygousForMale(t *testing.T) {
	p := twoGenPedigree(t)
	father, _ := p.Lookup("Father")
	mother, _ := p.Lookup("Mother")
	child, _ := p.Lookup("Child")

	p.Individuals[father].Alleles = [2]uint8{0, 0}
	p.Individuals[father].HasAlleles = true
	p.Individuals[mother].Alleles = [2]uint8{1, 1}
	p.Individuals[mother].HasAlleles = true
	p.Individuals[child].Strands = [2]int{0, 0}
	p.Individuals[child].Sex = SexMale

	rng := rand.New(rand.NewSource(3))
	require.NoError(t, p.AssignAlleles(child, 0.0, XChrPseudoHomozygous, true, rng))
	alleles := p.Individuals[child].Alleles
	// Both slots must carry the mother's allele (1), not the father's (0):
	// males inherit only the maternal X.
	require.Equal(t, [2]uint8{1, 1}, alleles)
}

func TestAssignAllelesFailsWhenFounderHasNoAlleles(t *testing.T) {
	p := twoGenPedigree(t)
	child, _ := p.Lookup("Child")
	rng := rand.New(rand.NewSource(1))
	err := p.AssignAlleles(child, 0.0, XChrPseudoHomozygous, false, rng)
	require.Error(t, err)
}
