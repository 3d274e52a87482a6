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

package classify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func threeScenarios() []Scenario {
	return []Scenario{
		{Label: "Siblings", Mean: 0.10, Std: 0.01, Samples: []float64{0.09, 0.10, 0.11, 0.10, 0.10}},
		{Label: "Cousins", Mean: 0.20, Std: 0.01, Samples: []float64{0.19, 0.20, 0.21, 0.20, 0.20}},
		{Label: "Unrelated", Mean: 0.30, Std: 0.01, Samples: []float64{0.29, 0.30, 0.31, 0.30, 0.30}},
	}
}

func TestAssignByZScorePicksClosestScenario(t *testing.T) {
	assigned, zscores, err := AssignByZScore(threeScenarios(), 0.205)
	require.NoError(t, err)
	require.Equal(t, "Cousins", assigned)
	require.Len(t, zscores, 3)
}

func TestAssignByZScoreRejectsZeroStd(t *testing.T) {
	scenarios := threeScenarios()
	scenarios[0].Std = 0
	_, _, err := AssignByZScore(scenarios, 0.1)
	require.Error(t, err)
}

func TestMinAbsZFindsSmallest(t *testing.T) {
	z := []ZScoreResult{{Label: "A", Z: 2.5}, {Label: "B", Z: -0.3}, {Label: "C", Z: 4.0}}
	require.InDelta(t, 0.3, MinAbsZ(z), 1e-9)
}

func TestAssignBySVMPicksClosestScenario(t *testing.T) {
	assigned, probs, err := AssignBySVM(threeScenarios(), 0.205)
	require.NoError(t, err)
	require.Equal(t, "Cousins", assigned)
	require.Len(t, probs, 3)
	var sum float64
	for _, p := range probs {
		sum += p.Q
	}
	require.InDelta(t, 1.0, sum, 0.2) // the finite differences telescope to 1.
}

func TestAssignBySVMRejectsFewerThanTwoScenarios(t *testing.T) {
	_, _, err := AssignBySVM(threeScenarios()[:1], 0.1)
	require.Error(t, err)
}

func TestFitLinearSVMSeparatesObviousClasses(t *testing.T) {
	x := []float64{-3, -2, -1, 1, 2, 3}
	y := []int{0, 0, 0, 1, 1, 1}
	model, err := fitLinearSVM(x, y, 10, 0.001)
	require.NoError(t, err)
	require.Greater(t, model.decide(3), model.decide(-3))
}
