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

package comparison

import "math"

// Variance is a streaming, numerically-stable accumulator for the unbiased
// (n-1 divisor) sample variance of a sequence of avg-local-PWD values,
// following Welford's algorithm.
type Variance struct {
	n    int
	mean float64
	m2   float64
}

// Update folds x into the running mean/variance.
func (v *Variance) Update(x float64) {
	v.n++
	delta := x - v.mean
	v.mean += delta / float64(v.n)
	delta2 := x - v.mean
	v.m2 += delta * delta2
}

// N returns the number of values folded in.
func (v *Variance) N() int { return v.n }

// Mean returns the running mean.
func (v *Variance) Mean() float64 { return v.mean }

// Unbiased returns the unbiased (n-1 divisor) sample variance; 0 when
// fewer than 2 values have been folded in.
func (v *Variance) Unbiased() float64 {
	if v.n < 2 {
		return 0
	}
	return v.m2 / float64(v.n-1)
}

// StdDev returns the square root of Unbiased.
func (v *Variance) StdDev() float64 { return math.Sqrt(v.Unbiased()) }

// CI95 returns the half-width of a 95% confidence interval around Mean,
// 1.96*sigma/sqrt(n).
func (v *Variance) CI95() float64 {
	if v.n == 0 {
		return 0
	}
	return 1.96 * v.StdDev() / math.Sqrt(float64(v.n))
}
