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
	"math"

	"github.com/grups-project/grups-go/internal/grupserr"
)

// No linear C-SVC implementation with built-in probability estimates is
// available anywhere in the retrieved example corpus, so the ordinal-
// partition cascade below is hand-rolled: a 1-D linear soft-margin SVM
// trained by Pegasos-style stochastic subgradient descent (cost 10,
// termination when successive epochs move the weight by less than 0.001),
// with Platt-style sigmoid fitting for "probability estimates on" (the
// single free scalar `A` in `P(y=1|x) = 1 / (1 + exp(A * decision(x)))`,
// fit by golden-section search minimizing the training log-loss, since a
// full two-parameter Platt fit needs a library we don't have).

// linearSVM is one binary classifier's learned decision function
// decision(x) = weight*x + bias, plus the Platt scalar.
type linearSVM struct {
	weight, bias float64
	plattA       float64
}

// decide returns the raw (uncalibrated) decision value for a scaled feature.
func (m linearSVM) decide(x float64) float64 { return m.weight*x + m.bias }

// probability returns the calibrated P(y=1 | x) estimate.
func (m linearSVM) probability(x float64) float64 {
	return 1 / (1 + math.Exp(m.plattA*m.decide(x)))
}

// fitLinearSVM trains a 1-D linear soft-margin SVM with cost C via Pegasos
// updates, terminating when an epoch's weight update is smaller than eps,
// or after maxEpochs.
func fitLinearSVM(x []float64, y []int, cost float64, eps float64) (linearSVM, error) {
	n := len(x)
	if n == 0 || n != len(y) {
		return linearSVM{}, grupserr.E(grupserr.SemanticError, "classify.fitLinearSVM: empty or mismatched training data")
	}
	lambda := 1.0 / (cost * float64(n))
	var w, b float64
	const maxEpochs = 2000
	for epoch := 1; epoch <= maxEpochs; epoch++ {
		prevW := w
		eta := 1.0 / (lambda * float64(epoch))
		for i := 0; i < n; i++ {
			label := float64(y[i])*2 - 1 // {0,1} -> {-1,+1}
			margin := label * (w*x[i] + b)
			if margin < 1 {
				w = (1-eta*lambda)*w + eta*label*x[i]
				b += eta * label
			} else {
				w = (1 - eta*lambda) * w
			}
		}
		if math.Abs(w-prevW) < eps {
			break
		}
	}
	model := linearSVM{weight: w, bias: b}
	model.plattA = fitPlattScale(model, x, y)
	return model, nil
}

// fitPlattScale finds the scalar A minimizing the training log-loss of
// sigmoid(A * decision(x)) against labels y, via a bounded golden-section
// search over A < 0 (in the 1/(1+exp(A*d)) form used here, a negative A
// makes P(y=1) increase with the decision value).
func fitPlattScale(model linearSVM, x []float64, y []int) float64 {
	loss := func(a float64) float64 {
		var total float64
		for i, xi := range x {
			p := 1 / (1 + math.Exp(a*model.decide(xi)))
			p = math.Min(math.Max(p, 1e-9), 1-1e-9)
			if y[i] == 1 {
				total -= math.Log(p)
			} else {
				total -= math.Log(1 - p)
			}
		}
		return total
	}
	lo, hi := -50.0, -1e-4
	const phi = 0.6180339887498949
	a1 := hi - phi*(hi-lo)
	a2 := lo + phi*(hi-lo)
	f1, f2 := loss(a1), loss(a2)
	for iter := 0; iter < 60; iter++ {
		if f1 < f2 {
			hi = a2
			a2, f2 = a1, f1
			a1 = hi - phi*(hi-lo)
			f1 = loss(a1)
		} else {
			lo = a1
			a1, f1 = a2, f2
			a2 = lo + phi*(hi-lo)
			f2 = loss(a2)
		}
	}
	return (lo + hi) / 2
}

// ClassProbabilities holds, per scenario label (ordered decreasing mean),
// the assigned per-class probability q_k from the ordinal-partition cascade.
type ClassProbabilities struct {
	Label string
	Q     float64
}

// AssignBySVM runs the ordinal-partition SVM cascade (spec §4.J "SVM
// assignment"): for each threshold i in 0..|L|-2, a binary linear SVM
// separates "true scenario index > i" from "<= i" over every scenario's
// pooled replicate samples, scaled to zero mean/unit variance. The observed
// average PWD, scaled the same way, is then classified by every threshold's
// P(true > L_i | x) = p_i, from which per-class probabilities are derived
// by finite differencing, and the assigned label is the argmax.
func AssignBySVM(scenarios []Scenario, observedAvgPwd float64) (assigned string, probs []ClassProbabilities, err error) {
	ordered := sortByDecreasingMean(scenarios)
	n := len(ordered)
	if n < 2 {
		return "", nil, grupserr.E(grupserr.SemanticError, "classify.AssignBySVM: need at least two scenarios")
	}

	mean, std := aggregateMeanStd(ordered)
	if std == 0 {
		return "", nil, grupserr.E(grupserr.SemanticError, "classify.AssignBySVM: zero aggregate std-dev")
	}
	scale := func(v float64) float64 { return (v - mean) / std }

	p := make([]float64, n-1) // p[i] = P(true > L_i | x)
	for i := 0; i < n-1; i++ {
		var xs []float64
		var ys []int
		for k, sc := range ordered {
			label := 0
			if k > i {
				label = 1
			}
			for _, s := range sc.Samples {
				xs = append(xs, scale(s))
				ys = append(ys, label)
			}
		}
		model, err := fitLinearSVM(xs, ys, 10, 0.001)
		if err != nil {
			return "", nil, err
		}
		p[i] = model.probability(scale(observedAvgPwd))
	}

	q := make([]float64, n)
	q[0] = 1 - p[0]
	for k := 1; k < n-1; k++ {
		q[k] = p[k-1] - p[k]
	}
	q[n-1] = p[n-2]

	probs = make([]ClassProbabilities, n)
	bestIdx := 0
	for i := range ordered {
		probs[i] = ClassProbabilities{Label: ordered[i].Label, Q: q[i]}
		if q[i] > q[bestIdx] {
			bestIdx = i
		}
	}
	assigned = ordered[bestIdx].Label
	return assigned, probs, nil
}
