package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/everstacklabs/scout/internal/consider"
	"github.com/everstacklabs/scout/internal/cost"
	"github.com/everstacklabs/scout/internal/rank"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// writeOutput renders v in the requested format. YAML goes through the JSON
// encoding so both formats share field names and decimal rendering.
func writeOutput(w io.Writer, format string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}

	switch format {
	case formatJSON, "":
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatYAML:
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("encoding output: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
}

// requestFromFlags builds a consideration request. Only flags the user set
// become constraints, so --vision=false is distinguishable from no flag.
func requestFromFlags(cmd *cobra.Command, text string) (consider.Request, error) {
	f := cmd.Flags()
	req := consider.Request{Text: text}

	req.Filters.Provider, _ = f.GetStringSlice("provider")
	if f.Changed("free") {
		v, _ := f.GetBool("free")
		req.Filters.FreeOnly = &v
	}
	if f.Changed("min-context") {
		v, _ := f.GetInt("min-context")
		req.Filters.MinContext = &v
	}
	if f.Changed("max-context") {
		v, _ := f.GetInt("max-context")
		req.Filters.MaxContext = &v
	}
	if f.Changed("max-price") {
		v, _ := f.GetFloat64("max-price")
		req.Filters.MaxPricePer1M = &v
	}
	if f.Changed("vision") {
		v, _ := f.GetBool("vision")
		req.Filters.HasVision = &v
	}
	if f.Changed("tools") {
		v, _ := f.GetBool("tools")
		req.Filters.HasTools = &v
	}
	if f.Changed("reasoning") {
		v, _ := f.GetBool("reasoning")
		req.Filters.HasReasoning = &v
	}
	if f.Changed("modality") {
		v, _ := f.GetString("modality")
		req.Filters.Modality = &v
	}

	req.Models, _ = f.GetStringArray("model")
	req.SortBy, _ = f.GetString("sort")
	if req.SortBy != "" && !rank.Criterion(req.SortBy).Valid() {
		return consider.Request{}, fmt.Errorf("invalid --sort %q (want one of %v)", req.SortBy, rank.Criteria)
	}
	req.MaxResults, _ = f.GetInt("max-results")
	req.Refresh, _ = f.GetBool("refresh")

	var w cost.Workload
	for name, dst := range map[string]**int64{
		"prompt-tokens":      &w.PromptTokens,
		"completion-tokens":  &w.CompletionTokens,
		"requests-per-day":   &w.RequestsPerDay,
		"requests-per-month": &w.RequestsPerMonth,
		"images":             &w.Images,
	} {
		if f.Changed(name) {
			v, _ := f.GetInt64(name)
			*dst = &v
		}
	}
	if !w.IsEmpty() {
		req.Workload = &w
	}

	return req, nil
}
