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

// Package pipeline wires together every grups-go component into the
// control flow described in spec §2: load genome index and genetic map,
// parse the pileup into a Comparison set, populate pedigree replicate
// vectors, stream the genotype source against every replicate, then write
// the per-comparison, per-block, per-replicate, and classifier outputs.
package pipeline

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/klauspost/compress/gzip"

	"github.com/grups-project/grups-go/classify"
	"github.com/grups-project/grups-go/comparison"
	"github.com/grups-project/grups-go/config"
	"github.com/grups-project/grups-go/coord"
	"github.com/grups-project/grups-go/geneticmap"
	"github.com/grups-project/grups-go/genome"
	"github.com/grups-project/grups-go/genotype"
	"github.com/grups-project/grups-go/genotype/fstsrc"
	"github.com/grups-project/grups-go/genotype/vcfsrc"
	"github.com/grups-project/grups-go/internal/grupserr"
	"github.com/grups-project/grups-go/jackknife"
	"github.com/grups-project/grups-go/output"
	"github.com/grups-project/grups-go/panel"
	"github.com/grups-project/grups-go/pedsim"
	"github.com/grups-project/grups-go/pileup"
	"github.com/grups-project/grups-go/snpreader"
)

// pairState is the per-comparison bookkeeping the pipeline threads from
// pileup parsing through to final output.
type pairState struct {
	spec       config.PairSpec
	comparison *comparison.Comparison
	blocks     *jackknife.Blocks
}

// Run executes one full grups-go invocation against cfg, in the order
// described in spec §2.
func Run(ctx context.Context, cfg config.Run) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	g, err := loadGenome(cfg)
	if err != nil {
		return err
	}
	gm, err := geneticmap.FromDir(cfg.RecombDir)
	if err != nil {
		return grupserr.E(grupserr.IoError, err, "pipeline.Run: genetic map")
	}
	p, err := panel.Load(cfg.PanelPath, rng)
	if err != nil {
		return err
	}

	pairs, comparisons, err := buildComparisons(cfg, g)
	if err != nil {
		return err
	}

	var targets *coord.TargetSet
	if cfg.SNPPath != "" {
		targets, err = snpreader.Read(cfg.SNPPath, cfg.ExcludeTransitions)
		if err != nil {
			return err
		}
	}

	if err := streamPileup(cfg, pairs, targets); err != nil {
		return err
	}

	sim := pedsim.New(gm, cfg.PedigreePop, cfg.XChrMode, cfg.MissingFSTPolicy, cfg.SexSpecific, rng)
	for _, ps := range pairs {
		if err := sim.Populate(ps.spec.Name, cfg.PedigreeFile, cfg.Reps, p, cfg.ContamPops, cfg.ContamNumInd); err != nil {
			return err
		}
		seqErrorGen := [2]pedsim.ParamRateGenerator{pedsim.Constant(0), pedsim.Constant(0)}
		if cfg.SeqErrorRate != nil {
			seqErrorGen = [2]pedsim.ParamRateGenerator{cfg.SeqErrorRate[0].Generator(), cfg.SeqErrorRate[1].Generator()}
		}
		contamGen := [2]pedsim.ParamRateGenerator{cfg.ContamRate[0].Generator(), cfg.ContamRate[1].Generator()}
		if err := sim.SetParams(ps.spec.Name, cfg.SnpDownsamplingRate, cfg.AfDownsamplingRate, cfg.SeqErrorRate != nil, seqErrorGen, contamGen); err != nil {
			return err
		}
	}

	if err := runGenotypeSource(cfg, sim, comparisons); err != nil {
		return err
	}
	sim.ApplyMAFCorrection(comparisons)

	return writeOutputs(ctx, cfg, pairs, sim)
}

func loadGenome(cfg config.Run) (*genome.Genome, error) {
	if cfg.GenomeFasta == "" {
		return genome.Default(), nil
	}
	return genome.FromFastaIndex(cfg.GenomeFasta)
}

func buildComparisons(cfg config.Run, g *genome.Genome) ([]*pairState, map[string]*comparison.Comparison, error) {
	pairs := make([]*pairState, 0, len(cfg.Pairs))
	comparisons := make(map[string]*comparison.Comparison, len(cfg.Pairs))
	for _, spec := range cfg.Pairs {
		blocks, err := jackknife.New(g, cfg.BlockSize)
		if err != nil {
			return nil, nil, err
		}
		minDepth := spec.MinDepth
		if minDepth == 0 {
			minDepth = cfg.MinDepth
		}
		pair := [2]comparison.Individual{
			{Name: spec.Name + "#0", Column: spec.Column0, MinDepth: minDepth},
			{Name: spec.Name + "#1", Column: spec.Column1, MinDepth: minDepth},
		}
		cmp, err := comparison.New(spec.Name, pair, spec.Self, blocks)
		if err != nil {
			return nil, nil, err
		}
		ps := &pairState{spec: spec, comparison: cmp, blocks: blocks}
		pairs = append(pairs, ps)
		comparisons[spec.Name] = cmp
	}
	return pairs, comparisons, nil
}

func streamPileup(cfg config.Run, pairs []*pairState, targets *coord.TargetSet) error {
	r, closer, err := openPileup(cfg.PileupPath)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	reader := pileup.NewReader(r, cfg.ConsiderDels)
	for {
		line, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if targets != nil {
			target, ok := targets.Lookup(line.Coord)
			if !ok {
				continue
			}
			for i := range line.Columns {
				if err := line.Columns[i].FilterKnownVariants(target); err != nil {
					return err
				}
			}
		}
		for i := range line.Columns {
			line.Columns[i].FilterBaseQuality(cfg.MinBaseQuality)
		}
		for _, ps := range pairs {
			if err := ps.comparison.Compare(line); err != nil {
				return err
			}
		}
	}
	return nil
}

// openPileup opens path for streaming, transparently gunzipping when the
// name ends in .gz (the corpus reaches for klauspost/compress/gzip rather
// than compress/gzip for this, matching pileup/common.go upstream).
func openPileup(path string) (io.Reader, io.Closer, error) {
	if path == "" || path == "-" {
		return os.Stdin, nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, grupserr.E(grupserr.IoError, err, "pipeline: open pileup "+path)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, grupserr.E(grupserr.IoError, err, "pipeline: open gzipped pileup "+path)
	}
	return zr, multiCloser{zr, f}, nil
}

// multiCloser closes both the gzip reader and the underlying file, in that
// order, reporting the first error encountered.
type multiCloser struct {
	zr *gzip.Reader
	f  *os.File
}

func (m multiCloser) Close() error {
	err := m.zr.Close()
	if cerr := m.f.Close(); err == nil {
		err = cerr
	}
	return err
}

func runGenotypeSource(cfg config.Run, sim *pedsim.Simulator, comparisons map[string]*comparison.Comparison) error {
	ext := strings.ToLower(cfg.GenotypeExt)
	if ext == ".fst" {
		files, err := genotype.FetchInputFiles(cfg.GenotypeDir, ".fst")
		if err != nil {
			return grupserr.E(grupserr.IoError, err, "pipeline: discover FST files in "+cfg.GenotypeDir)
		}
		if len(files) == 0 {
			return grupserr.E(grupserr.SchemaError, "pipeline: no .fst files found in "+cfg.GenotypeDir)
		}
		genotypePath := files[0]
		freqPath := genotypePath + ".frq"
		if _, err := os.Stat(freqPath); err != nil {
			freqPath = ""
		}
		newReader := func() (genotype.Reader, error) {
			return fstsrc.Open(genotypePath, freqPath, true)
		}
		return sim.RunFST(comparisons, newReader, cfg.MAF, cfg.FreqPop)
	}

	files, err := genotype.FetchInputFiles(cfg.GenotypeDir, ext)
	if err != nil {
		return grupserr.E(grupserr.IoError, err, "pipeline: discover genotype files in "+cfg.GenotypeDir)
	}
	if len(files) == 0 {
		return grupserr.E(grupserr.SchemaError, "pipeline: no "+ext+" files found in "+cfg.GenotypeDir)
	}
	reader, err := vcfsrc.Open(files[0], cfg.Threads)
	if err != nil {
		return err
	}
	defer reader.Close()
	return sim.RunVCF(comparisons, reader, cfg.MAF, cfg.FreqPop)
}

func outputStem(cfg config.Run) string {
	if cfg.OutputStem != "" {
		return cfg.OutputStem
	}
	base := filepath.Base(cfg.PileupPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" || stem == "-" {
		return "pwd_from_stdin-output"
	}
	return stem
}

func writeOutputs(ctx context.Context, cfg config.Run, pairs []*pairState, sim *pedsim.Simulator) error {
	if err := output.CreateTree(cfg.OutputDir, cfg.AllowDeepTree); err != nil {
		return err
	}
	prefix := filepath.Join(cfg.OutputDir, outputStem(cfg))
	w := output.New(ctx, prefix, cfg.Overwrite)

	var pwdRows []output.PwdRow
	var resultRows []output.ResultRow
	var probRows []output.ProbRow

	for _, ps := range pairs {
		c := ps.comparison
		pwdRows = append(pwdRows, output.PwdRow{
			Name:     ps.spec.Name,
			Overlap:  c.Overlap(),
			SumPwd:   c.SumPwd(),
			AvgPwd:   c.AvgPwd(),
			CI95:     c.Variance().CI95(),
			AvgPhred: c.AvgPhred(),
		})

		var blockRows []output.BlockRow
		var sumPwd, sumOverlap float64
		for _, b := range ps.blocks.All() {
			sumPwd += b.PwdSum
			sumOverlap += float64(b.SiteCount)
		}
		for _, b := range ps.blocks.All() {
			if b.SiteCount == 0 {
				continue
			}
			pv := b.ComputePseudovalue(sumPwd, sumOverlap)
			blockRows = append(blockRows, output.BlockRow{
				Comparison: ps.spec.Name,
				Chromosome: b.Chromosome,
				Start:      b.Start,
				Stop:       b.Stop,
				SiteCount:  b.SiteCount,
				PwdSum:     b.PwdSum,
				ThetaJ:     pv.ThetaJ,
				Hj:         pv.Hj,
			})
		}
		blockWriter := output.New(ctx, filepath.Join(cfg.OutputDir, "blocks", outputStem(cfg)+"-"+ps.spec.Name), cfg.Overwrite)
		if err := blockWriter.WriteBlocks(blockRows); err != nil {
			return err
		}

		scenarios, ok := sim.Scenarios(ps.spec.Name)
		if !ok || len(scenarios) == 0 {
			log.Printf("pipeline: no simulated scenarios for %s, skipping classification", ps.spec.Name)
			continue
		}

		var simRows []output.SimRow
		for _, sc := range scenarios {
			for r, sample := range sc.Samples {
				simRows = append(simRows, output.SimRow{Comparison: ps.spec.Name, Replicate: r, Label: sc.Label, AvgPwd: sample})
			}
		}
		simWriter := output.New(ctx, filepath.Join(cfg.OutputDir, outputStem(cfg)+"-"+ps.spec.Name), cfg.Overwrite)
		if err := simWriter.WriteSims(simRows); err != nil {
			return err
		}

		_, zscores, err := classify.AssignByZScore(scenarios, c.AvgPwd())
		if err != nil {
			return err
		}
		minAbsZ := classify.MinAbsZ(zscores)

		var assigned string
		var simMean float64
		switch cfg.Method {
		case config.SVM:
			label, probs, err := classify.AssignBySVM(scenarios, c.AvgPwd())
			if err != nil {
				return err
			}
			assigned = label
			for _, p := range probs {
				probRows = append(probRows, output.ProbRow{Name: ps.spec.Name, Label: p.Label, Q: p.Q})
			}
		default:
			label, _, err := classify.AssignByZScore(scenarios, c.AvgPwd())
			if err != nil {
				return err
			}
			assigned = label
		}
		for _, sc := range scenarios {
			if sc.Label == assigned {
				simMean = sc.Mean
			}
		}

		resultRows = append(resultRows, output.ResultRow{
			Name:           ps.spec.Name,
			AssignedLabel:  assigned,
			Overlap:        c.Overlap(),
			SumPwd:         c.SumPwd(),
			AvgPwd:         c.AvgPwd(),
			CI95:           c.Variance().CI95(),
			AvgPhred:       c.AvgPhred(),
			SimulationMean: simMean,
			MinAbsZ:        minAbsZ,
		})
	}

	if err := w.WritePWD(pwdRows); err != nil {
		return err
	}
	if err := w.WriteResult(resultRows); err != nil {
		return err
	}
	if cfg.Method == config.SVM {
		if err := w.WriteProbs(probRows); err != nil {
			return err
		}
	}
	return nil
}
