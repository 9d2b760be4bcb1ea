package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ToPlainText renders one record as an indented human-readable block.
func ToPlainText(res *ProcessingResult) string {
	var sb strings.Builder
	sb.WriteString(res.ImagePath)
	sb.WriteString(":\n")
	if res.Failed() {
		fmt.Fprintf(&sb, "  error:   %s\n", res.Error)
		return sb.String()
	}
	writeField(&sb, "room", res.RoomNumber)
	writeField(&sb, "meter", res.MeterNumber)
	writeField(&sb, "decimal", res.DecimalNumber)
	if res.FullMeter != "" {
		fmt.Fprintf(&sb, "  full:    %s\n", res.FullMeter)
	}
	if res.CanUpload && res.PairingInfo != nil {
		fmt.Fprintf(&sb, "  upload:  yes (distance %.1f, score %.3f)\n",
			res.PairingInfo.Distance, res.PairingInfo.Score)
	} else {
		sb.WriteString("  upload:  no\n")
		if res.PairingInfo != nil && res.PairingInfo.Error != "" {
			fmt.Fprintf(&sb, "  reason:  %s\n", res.PairingInfo.Error)
		}
	}
	if res.ProcessedImagePath != "" {
		fmt.Fprintf(&sb, "  image:   %s\n", res.ProcessedImagePath)
	}
	return sb.String()
}

func writeField(sb *strings.Builder, name string, f *FieldReading) {
	if f == nil || f.Value == "" {
		fmt.Fprintf(sb, "  %-8s -\n", name+":")
		return
	}
	fmt.Fprintf(sb, "  %-8s %s (%.2f, %s)\n", name+":", f.Value, f.Confidence, f.Method)
}

// ToJSON encodes a single record as an object and several as an array.
func ToJSON(results []*ProcessingResult) (string, error) {
	var v any = results
	if len(results) == 1 {
		v = results[0]
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(b), nil
}

// ToYAML encodes a single record as a mapping and several as a sequence.
func ToYAML(results []*ProcessingResult) (string, error) {
	var v any = results
	if len(results) == 1 {
		v = results[0]
	}
	b, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return string(b), nil
}
