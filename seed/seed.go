// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/swipeflow/flowgraph"
	"github.com/danielhkuo/swipeflow/models"
)

// File is the top level of a fixture file
type File struct {
	Flows []Flow `yaml:"flows"`
}

// Flow is one fixture flow. The embedded request is saved exactly as if the
// owner had posted it, so fixtures are validated the same way.
type Flow struct {
	Owner                  string `yaml:"owner"`
	models.SaveFlowRequest `yaml:",inline"`
	Templates              []models.TemplateRequest `yaml:"templates"`
}

// Store is the subset of the engine fixtures are applied through
type Store interface {
	OwnerHasFlow(ctx context.Context, ownerID, name string) (bool, error)
	CreateFlow(ctx context.Context, caller models.Caller, req *models.SaveFlowRequest) (*models.SaveFlowResponse, error)
	CreateTemplate(ctx context.Context, caller models.Caller, flowID string, req *models.TemplateRequest) (*models.ResultTemplate, error)
}

// Summary counts what Apply did
type Summary struct {
	Created int
	Skipped int
}

// Load reads and parses a fixture file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes fixture YAML. Unknown keys are rejected so typos do not
// silently drop settings.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i, fl := range f.Flows {
		if fl.Owner == "" {
			return nil, fmt.Errorf("seed flow %d (%q): owner is required", i, fl.Name)
		}
	}
	return &f, nil
}

// Apply creates every fixture flow its owner does not already have by name,
// then its templates. Re-running Apply against the same store is a no-op.
func Apply(ctx context.Context, store Store, f *File) (Summary, error) {
	var sum Summary
	for i := range f.Flows {
		fl := &f.Flows[i]

		exists, err := store.OwnerHasFlow(ctx, fl.Owner, fl.Name)
		if err != nil {
			return sum, err
		}
		if exists {
			sum.Skipped++
			continue
		}

		// Templates are checked up front so a bad one cannot leave a bare flow behind
		for j := range fl.Templates {
			if err := flowgraph.ValidateTemplate(&fl.Templates[j]); err != nil {
				return sum, fmt.Errorf("seed template %q of flow %q: %w", fl.Templates[j].Title, fl.Name, err)
			}
		}

		caller := models.Caller{UserID: fl.Owner}
		resp, err := store.CreateFlow(ctx, caller, &fl.SaveFlowRequest)
		if err != nil {
			return sum, fmt.Errorf("seed flow %q: %w", fl.Name, err)
		}
		for j := range fl.Templates {
			if _, err := store.CreateTemplate(ctx, caller, resp.FlowID, &fl.Templates[j]); err != nil {
				return sum, fmt.Errorf("seed template %q of flow %q: %w", fl.Templates[j].Title, fl.Name, err)
			}
		}

		slog.Info("seeded flow", "flow_id", resp.FlowID, "owner_id", fl.Owner, "name", fl.Name,
			"templates", len(fl.Templates))
		sum.Created++
	}
	return sum, nil
}
