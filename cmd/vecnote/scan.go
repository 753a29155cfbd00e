package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecnote/internal/anonymize"
)

var scanShowMapping bool

var scanCmd = &cobra.Command{
	Use:   "scan [file]",
	Short: "Anonymize a text locally and report what was found",
	Long:  "Reads a file (or stdin) and prints the anonymized text, the sensitivity flag and the extracted entities as JSON. Nothing leaves the machine.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanShowMapping, "show-mapping", false, "include the placeholder mapping in the output")
}

type scanEntry struct {
	Placeholder string `json:"placeholder"`
	Original    string `json:"original"`
}

type scanReport struct {
	Anonymized   string              `json:"anonymized"`
	Placeholders int                 `json:"placeholders"`
	Sensitive    bool                `json:"sensitive"`
	Entities     map[string][]string `json:"entities"`
	Mapping      []scanEntry         `json:"mapping,omitempty"`
}

func runScan(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	report := scan(anonymize.New(zap.NewNop()), string(data), scanShowMapping)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func scan(anon *anonymize.Anonymizer, text string, withMapping bool) scanReport {
	anonymized, mapping := anon.Anonymize(text)
	report := scanReport{
		Anonymized:   anonymized,
		Placeholders: mapping.Len(),
		Sensitive:    anon.DetectSensitive(text),
		Entities:     anon.ExtractEntities(text).Map(),
	}
	if withMapping {
		for _, e := range mapping.Entries() {
			report.Mapping = append(report.Mapping, scanEntry{Placeholder: e.Placeholder, Original: e.Original})
		}
	}
	return report
}
