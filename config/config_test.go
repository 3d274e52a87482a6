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

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func onePair() []PairSpec {
	return []PairSpec{{Name: "Ind0-Ind1", Column0: 0, Column1: 1, MinDepth: 1}}
}

func TestValidateRejectsMAFOutOfRange(t *testing.T) {
	r := Run{MAF: 1.5, Pairs: onePair()}
	require.Error(t, r.Validate())
}

func TestValidateRejectsContamCountsWithoutPops(t *testing.T) {
	r := Run{MAF: 0.05, ContamNumInd: [2]int{1, 0}, Pairs: onePair()}
	require.Error(t, r.Validate())
}

func TestValidateRejectsNoPairs(t *testing.T) {
	r := Run{MAF: 0.05}
	require.Error(t, r.Validate())
}

func TestValidateAcceptsSaneRun(t *testing.T) {
	r := Run{MAF: 0.05, Pairs: onePair()}
	require.NoError(t, r.Validate())
}

func TestRateRangeGeneratorConstantWhenEqual(t *testing.T) {
	r := RateRange{Low: 0.02, High: 0.02}
	g := r.Generator()
	require.Equal(t, 0.02, g.Next(nil))
}
