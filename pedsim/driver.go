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

package pedsim

import (
	"math"

	"github.com/grailbio/base/traverse"

	"github.com/grups-project/grups-go/comparison"
	"github.com/grups-project/grups-go/genotype"
)

// pileupErrorProbsAt derives the per-side 10^(-phred/10) substitution
// probability from a pileup comparison's accumulated Pwd at c, used when a
// replicate carries no fixed seq-error-rate parameter.
func pileupErrorProbsAt(c *comparison.Comparison, site comparison.Pwd) [2]float64 {
	var probs [2]float64
	for i, phredSum := range [2]float64{site.PhredSum0, site.PhredSum1} {
		avg := 0.0
		if site.Observations > 0 {
			avg = phredSum / float64(site.Observations)
		}
		probs[i] = math.Pow(10, -avg/10)
	}
	return probs
}

// RunVCF streams source (a single, non-cloned VCF reader) once, feeding
// every advanced coordinate to every registered comparison's replicates
// (spec §4.I/§5: the VCF path is single-threaded since the reader is a
// forward-only stream).
func (s *Simulator) RunVCF(comparisons map[string]*comparison.Comparison, source genotype.Reader, maf float64, popAf string) error {
	for {
		c, ok, err := source.Advance()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if !source.IsSNP() || source.IsMultiallelic() {
			continue
		}
		if err := source.LoadGenotypes(); err != nil {
			return err
		}
		af, err := source.GetPopAlleleFrequency(popAf)
		if err != nil {
			continue // no frequency recorded for this population at this site.
		}
		for label := range s.reps {
			cmp, ok := comparisons[label]
			if !ok {
				continue
			}
			site, present := cmp.Pwds()[c]
			if !present {
				continue
			}
			s.CheckMAF(label, c, af, maf)
			if float64(af) < maf || float64(af) > 1-maf {
				continue // MAF-excluded sites are not simulated either.
			}
			errProbs := pileupErrorProbsAt(cmp, site)
			if err := s.UpdatePedigrees(label, c, source, errProbs); err != nil {
				return err
			}
		}
	}
	return nil
}

// RunFST simulates every registered comparison against its own clone of the
// FST reader, produced by newReader, in parallel (spec §4.I/§5: per-pileup-
// comparison simulation is the unit of parallelism in the FST path).
func (s *Simulator) RunFST(comparisons map[string]*comparison.Comparison, newReader func() (genotype.Reader, error), maf float64, popAf string) error {
	labels := make([]string, 0, len(s.reps))
	for label := range s.reps {
		labels = append(labels, label)
	}
	return traverse.Each(len(labels), func(i int) error {
		label := labels[i]
		cmp, ok := comparisons[label]
		if !ok {
			return nil
		}
		reader, err := newReader()
		if err != nil {
			return err
		}
		defer reader.Close()

		for {
			c, ok, err := reader.Advance()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			site, present := cmp.Pwds()[c]
			if !present {
				continue
			}
			if reader.IsMultiallelic() {
				continue
			}
			if err := reader.LoadGenotypes(); err != nil {
				return err
			}
			af, err := reader.GetPopAlleleFrequency(popAf)
			if err != nil {
				s.HandleMissingFSTSite(label)
				continue
			}
			s.CheckMAF(label, c, af, maf)
			if float64(af) < maf || float64(af) > 1-maf {
				continue // MAF-excluded sites are not simulated either.
			}
			errProbs := pileupErrorProbsAt(cmp, site)
			if err := s.UpdatePedigrees(label, c, reader, errProbs); err != nil {
				return err
			}
		}
		return nil
	})
}
