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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMeiosisSelectsStrandWithoutRecombination(t *testing.T) {
	parent := Individual{Label: "P", Alleles: [2]uint8{5, 9}, HasAlleles: true}
	allele, err := meiosis(parent, 0, false)
	require.NoError(t, err)
	require.Equal(t, uint8(5), allele)

	allele, err = meiosis(parent, 1, false)
	require.NoError(t, err)
	require.Equal(t, uint8(9), allele)
}

func TestMeiosisFlipsStrandWhenRecombining(t *testing.T) {
	parent := Individual{Label: "P", Alleles: [2]uint8{5, 9}, HasAlleles: true}
	allele, err := meiosis(parent, 0, true)
	require.NoError(t, err)
	require.Equal(t, uint8(9), allele)

	allele, err = meiosis(parent, 1, true)
	require.NoError(t, err)
	require.Equal(t, uint8(5), allele)
}

func TestMeiosisRejectsParentWithoutAlleles(t *testing.T) {
	parent := Individual{Label: "P"}
	_, err := meiosis(parent, 0, false)
	require.Error(t, err)
}
