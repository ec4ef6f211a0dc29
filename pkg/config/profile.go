package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// applyProfile overlays the export section with the values of a YAML profile.
// Unknown keys fail fast so that a typo never silently falls back to a default.
//
// Example profile:
//
//	sender: TIGF
//	author: AWS
//	formats: [XML, CSV, XLSX]
//	grouping: period
//	run_timeout: 15m
func applyProfile(export *ExportConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var profile ExportConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&profile); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	if profile.Sender != "" {
		export.Sender = profile.Sender
	}
	if profile.Author != "" {
		export.Author = profile.Author
	}
	if len(profile.Formats) > 0 {
		export.Formats = profile.Formats
	}
	if profile.Grouping != "" {
		export.Grouping = profile.Grouping
	}
	if profile.RunTimeout > 0 {
		export.RunTimeout = profile.RunTimeout
	}
	if profile.ContractCode != "" {
		export.ContractCode = profile.ContractCode
	}
	if profile.ContractFamily != "" {
		export.ContractFamily = profile.ContractFamily
	}

	return nil
}
