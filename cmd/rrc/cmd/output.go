/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ssargent/rrc/pkg/rrc"
	"github.com/ssargent/rrc/pkg/store"
)

// containerSuffix is appended to encoded files and removed on decode
const containerSuffix = ".rrc"

// defaultOutput derives an output path for encode and decode
func defaultOutput(input string, decoding bool) string {
	if !decoding {
		return input + containerSuffix
	}
	if trimmed := strings.TrimSuffix(input, containerSuffix); trimmed != input && trimmed != "" {
		return trimmed
	}
	return input + ".out"
}

// withTempOutput creates path+".tmp", hands it to write and renames it over
// path once write succeeds. The temporary file is removed on failure.
func withTempOutput(fs afero.Fs, path string, write func(f *store.File) error) error {
	tmp := path + ".tmp"
	f, err := store.Create(fs, tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	if err := write(f); err != nil {
		_ = f.Close()
		_ = fs.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = fs.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	if err := fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to rename %s: %w", tmp, err)
	}
	return nil
}

func openForUpdate(fs afero.Fs, path string) (*store.File, error) {
	f, err := store.OpenFile(fs, path, os.O_RDWR)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

func printEncodeReport(cmd *cobra.Command, path string, report *rrc.Report) {
	plan := report.Plan
	cmd.Printf("Wrote %s\n", path)
	cmd.Printf("  shape:      %s (corrects %.2f%% of each codeword)\n", plan.Shape, plan.Shape.Ratio()*100)
	cmd.Printf("  input:      %s\n", humanize.IBytes(uint64(report.InputLength)))
	cmd.Printf("  container:  %s (+%.1f%%)\n", humanize.IBytes(uint64(report.ContainerLength)), plan.Overhead()*100)
	cmd.Printf("  layers:     %d\n", len(plan.Layers))
	cmd.Printf("  anchor:     %d x %d bytes\n", plan.Repetitions, plan.RemnantLength)
	cmd.Printf("  run:        %s in %s\n", report.RunID, report.Duration.Round(time.Millisecond))
}

func printDecodeReport(cmd *cobra.Command, report *rrc.Report, verbose bool) {
	cmd.Printf("  shape:      %s\n", report.Shape)
	cmd.Printf("  input:      %s\n", humanize.IBytes(uint64(report.InputLength)))
	cmd.Printf("  container:  %s\n", humanize.IBytes(uint64(report.ContainerLength)))
	cmd.Printf("  anchor:     %d votes at offset %d\n", report.AnchorVotes, report.AnchorStart)
	cmd.Printf("  corrected:  %s symbols\n", humanize.Comma(int64(report.CorrectedSymbols)))
	cmd.Printf("  unlocated:  %d blocks\n", report.UnlocatedBlocks())
	cmd.Printf("  run:        %s in %s\n", report.RunID, report.Duration.Round(time.Millisecond))

	if !verbose {
		return
	}
	for _, layer := range report.Layers {
		cmd.Printf("  layer %d: region %s at %d, %d/%d blocks located, %d verified, %d corrected in %d codewords\n",
			layer.Depth,
			humanize.IBytes(uint64(layer.DataLength+layer.EccLength)),
			layer.RegionStart,
			layer.Located, layer.Chunks,
			layer.Verified,
			layer.CorrectedSymbols, len(layer.Codewords))
	}
}

func printPlan(cmd *cobra.Command, plan rrc.Plan) {
	cmd.Printf("shape:      %s (corrects %.2f%% of each codeword)\n", plan.Shape, plan.Shape.Ratio()*100)
	cmd.Printf("input:      %s\n", humanize.IBytes(uint64(plan.InputLength)))
	cmd.Printf("container:  %s (+%.1f%%)\n", humanize.IBytes(uint64(plan.ContainerLength)), plan.Overhead()*100)
	cmd.Printf("anchor:     %d x %d bytes\n", plan.Repetitions, plan.RemnantLength)
	for _, layer := range plan.Layers {
		cmd.Printf("layer %d:    offset %d, payload %d, parity %d, %d blocks, %d entries, metadata %d\n",
			layer.Index, layer.Offset, layer.PayloadLength, layer.ParityLength,
			layer.BlockCount, layer.EntryCount, layer.MetadataLength)
	}
}
