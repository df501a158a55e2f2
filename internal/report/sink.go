// Package report persists run reports for later inspection.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/VitoDD/ProofOfConcept-sub000/internal/types"
)

// Sink receives the finished run report.
type Sink interface {
	Write(ctx context.Context, report *types.RunReport) error
}

// JSONFileSink writes the report as an indented JSON document.
type JSONFileSink struct {
	Path string
}

// Write marshals the report to the configured path.
func (s *JSONFileSink) Write(ctx context.Context, report *types.RunReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write run report %s: %w", s.Path, err)
	}
	return nil
}

// Load reads a previously written report back.
func Load(path string) (*types.RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run report %s: %w", path, err)
	}

	var runReport types.RunReport
	if err := json.Unmarshal(data, &runReport); err != nil {
		return nil, fmt.Errorf("failed to parse run report %s: %w", path, err)
	}
	return &runReport, nil
}
