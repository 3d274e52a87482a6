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

// Package output creates the run's output directory tree and writes the
// tabular `.pwd`, `.blk`, `.sims`, `.result` and `.probs` files (spec
// §4.K). It writes no snapshot of the run configuration.
package output

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"

	"github.com/grups-project/grups-go/internal/grupserr"
)

// formatFloat renders a float with the precision used throughout grups-go's
// tabular outputs.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// CreateTree ensures dir exists, failing unless its immediate parent
// already exists (it must not silently create grandparents of a
// non-existent parent) -- unless allowDeep is set, in which case the full
// path is created.
func CreateTree(dir string, allowDeep bool) error {
	if allowDeep {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return grupserr.E(grupserr.IoError, err, "output.CreateTree: mkdir -p "+dir)
		}
		return nil
	}
	parent := filepath.Dir(dir)
	if _, err := os.Stat(parent); err != nil {
		return grupserr.E(grupserr.IoError, err, "output.CreateTree: parent directory "+parent+" does not exist")
	}
	if err := os.Mkdir(dir, 0o755); err != nil && !os.IsExist(err) {
		return grupserr.E(grupserr.IoError, err, "output.CreateTree: mkdir "+dir)
	}
	return nil
}

// checkOverwrite refuses to clobber an existing file unless overwrite is
// set.
func checkOverwrite(path string, overwrite bool) error {
	if overwrite {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return grupserr.E(grupserr.IoError, "output: "+path+" already exists (pass --overwrite to replace it)")
	}
	return nil
}

// Writer opens the tabular outputs for one run prefix, refusing to clobber
// existing files unless overwrite is set.
type Writer struct {
	ctx      context.Context
	prefix   string
	overwrite bool
}

// New returns a Writer rooted at prefix (a full path minus extension).
func New(ctx context.Context, prefix string, overwrite bool) *Writer {
	return &Writer{ctx: ctx, prefix: prefix, overwrite: overwrite}
}

// create opens path (prefix + suffix) for writing, applying the overwrite
// policy, and returns both the underlying file.File (for closing) and a
// tsv.Writer over it.
func (w *Writer) create(suffix string) (file.File, *tsv.Writer, error) {
	path := w.prefix + suffix
	if err := checkOverwrite(path, w.overwrite); err != nil {
		return nil, nil, err
	}
	f, err := file.Create(w.ctx, path)
	if err != nil {
		return nil, nil, grupserr.E(grupserr.IoError, err, "output: create "+path)
	}
	return f, tsv.NewWriter(f.Writer(w.ctx)), nil
}

// PwdRow is one line of the `.pwd` summary: one pileup comparison's
// corrected aggregate statistics.
type PwdRow struct {
	Name     string
	Overlap  int
	SumPwd   float64
	AvgPwd   float64
	CI95     float64
	AvgPhred float64
}

// WritePWD writes the `<prefix>.pwd` table.
func (w *Writer) WritePWD(rows []PwdRow) (err error) {
	f, tw, err := w.create(".pwd")
	if err != nil {
		return err
	}
	defer file.CloseAndReport(w.ctx, f, &err)

	tw.WriteString("Pair")
	tw.WriteString("Overlap")
	tw.WriteString("Sum.PWD")
	tw.WriteString("Avg.PWD")
	tw.WriteString("CI.95")
	tw.WriteString("Avg.Phred")
	if err := tw.EndLine(); err != nil {
		return grupserr.E(grupserr.IoError, err, "output.WritePWD: header")
	}
	for _, r := range rows {
		tw.WriteString(r.Name)
		tw.WriteUint32(uint32(r.Overlap))
		tw.WriteString(formatFloat(r.SumPwd))
		tw.WriteString(formatFloat(r.AvgPwd))
		tw.WriteString(formatFloat(r.CI95))
		tw.WriteString(formatFloat(r.AvgPhred))
		if err := tw.EndLine(); err != nil {
			return grupserr.E(grupserr.IoError, err, "output.WritePWD: row "+r.Name)
		}
	}
	return tw.Flush()
}

// BlockRow is one jackknife block line of the `.blk` table.
type BlockRow struct {
	Comparison string
	Chromosome uint8
	Start      uint32
	Stop       uint32
	SiteCount  uint32
	PwdSum     float64
	ThetaJ     float64
	Hj         float64
}

// WriteBlocks writes the `<prefix>.blk` table.
func (w *Writer) WriteBlocks(rows []BlockRow) (err error) {
	f, tw, err := w.create(".blk")
	if err != nil {
		return err
	}
	defer file.CloseAndReport(w.ctx, f, &err)

	for _, col := range []string{"Pair", "Chr", "Start", "Stop", "Sites", "Sum.PWD", "Theta_j", "H_j"} {
		tw.WriteString(col)
	}
	if err := tw.EndLine(); err != nil {
		return grupserr.E(grupserr.IoError, err, "output.WriteBlocks: header")
	}
	for _, r := range rows {
		tw.WriteString(r.Comparison)
		tw.WriteUint32(uint32(r.Chromosome))
		tw.WriteUint32(r.Start)
		tw.WriteUint32(r.Stop)
		tw.WriteUint32(r.SiteCount)
		tw.WriteString(formatFloat(r.PwdSum))
		tw.WriteString(formatFloat(r.ThetaJ))
		tw.WriteString(formatFloat(r.Hj))
		if err := tw.EndLine(); err != nil {
			return grupserr.E(grupserr.IoError, err, "output.WriteBlocks: row")
		}
	}
	return tw.Flush()
}

// SimRow is one replicate's per-scenario average PWD in the `.sims` table.
type SimRow struct {
	Comparison string
	Replicate  int
	Label      string
	AvgPwd     float64
}

// WriteSims writes the `<prefix>.sims` table.
func (w *Writer) WriteSims(rows []SimRow) (err error) {
	f, tw, err := w.create(".sims")
	if err != nil {
		return err
	}
	defer file.CloseAndReport(w.ctx, f, &err)

	for _, col := range []string{"Pair", "Replicate", "Scenario", "Avg.PWD"} {
		tw.WriteString(col)
	}
	if err := tw.EndLine(); err != nil {
		return grupserr.E(grupserr.IoError, err, "output.WriteSims: header")
	}
	for _, r := range rows {
		tw.WriteString(r.Comparison)
		tw.WriteUint32(uint32(r.Replicate))
		tw.WriteString(r.Label)
		tw.WriteString(formatFloat(r.AvgPwd))
		if err := tw.EndLine(); err != nil {
			return grupserr.E(grupserr.IoError, err, "output.WriteSims: row")
		}
	}
	return tw.Flush()
}

// ResultRow is one classifier verdict in the `.result` table (spec §4.J).
type ResultRow struct {
	Name           string
	AssignedLabel  string
	Overlap        int
	SumPwd         float64
	AvgPwd         float64
	CI95           float64
	AvgPhred       float64
	SimulationMean float64
	MinAbsZ        float64
}

// WriteResult writes the `<prefix>.result` table.
func (w *Writer) WriteResult(rows []ResultRow) (err error) {
	f, tw, err := w.create(".result")
	if err != nil {
		return err
	}
	defer file.CloseAndReport(w.ctx, f, &err)

	for _, col := range []string{"Pair", "Label", "Overlap", "Sum.PWD", "Avg.PWD", "CI.95", "Avg.Phred", "Sim.Mean", "Min.Abs.Z"} {
		tw.WriteString(col)
	}
	if err := tw.EndLine(); err != nil {
		return grupserr.E(grupserr.IoError, err, "output.WriteResult: header")
	}
	for _, r := range rows {
		tw.WriteString(r.Name)
		tw.WriteString(r.AssignedLabel)
		tw.WriteUint32(uint32(r.Overlap))
		tw.WriteString(formatFloat(r.SumPwd))
		tw.WriteString(formatFloat(r.AvgPwd))
		tw.WriteString(formatFloat(r.CI95))
		tw.WriteString(formatFloat(r.AvgPhred))
		tw.WriteString(formatFloat(r.SimulationMean))
		tw.WriteString(formatFloat(r.MinAbsZ))
		if err := tw.EndLine(); err != nil {
			return grupserr.E(grupserr.IoError, err, "output.WriteResult: row "+r.Name)
		}
	}
	log.Printf("output: wrote classifier result for %d comparisons", len(rows))
	return tw.Flush()
}

// ProbRow is one scenario's per-class probability in the `.probs` table,
// written only when SVM assignment was selected.
type ProbRow struct {
	Name  string
	Label string
	Q     float64
}

// WriteProbs writes the `<prefix>.probs` table.
func (w *Writer) WriteProbs(rows []ProbRow) (err error) {
	f, tw, err := w.create(".probs")
	if err != nil {
		return err
	}
	defer file.CloseAndReport(w.ctx, f, &err)

	for _, col := range []string{"Pair", "Scenario", "Q"} {
		tw.WriteString(col)
	}
	if err := tw.EndLine(); err != nil {
		return grupserr.E(grupserr.IoError, err, "output.WriteProbs: header")
	}
	for _, r := range rows {
		tw.WriteString(r.Name)
		tw.WriteString(r.Label)
		tw.WriteString(formatFloat(r.Q))
		if err := tw.EndLine(); err != nil {
			return grupserr.E(grupserr.IoError, err, "output.WriteProbs: row")
		}
	}
	return tw.Flush()
}
