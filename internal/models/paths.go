// Package models resolves on-disk locations of the region model and OCR language data.
package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// RegionModel is the exported YOLO model that finds room, meter and decimal regions.
	RegionModel = "meter_regions.onnx"

	// TessdataDir holds Tesseract traineddata files beneath the models directory.
	TessdataDir = "tessdata"

	// DefaultLanguage is the Tesseract language used for digit reading.
	DefaultLanguage = "eng"
)

// DefaultModelsDir is used when neither a flag nor the environment names a directory.
const DefaultModelsDir = "models"

// EnvModelsDir overrides the models directory.
const EnvModelsDir = "METEROCR_MODELS_DIR"

func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("could not find project root (go.mod not found)")
		}
		dir = parent
	}
}

// GetModelsDir resolves the models directory.
// Priority: explicit argument, environment variable, project root + default.
func GetModelsDir(modelsDir string) string {
	if modelsDir != "" {
		return modelsDir
	}
	if env := os.Getenv(EnvModelsDir); env != "" {
		return env
	}
	if root, err := findProjectRoot(); err == nil {
		return filepath.Join(root, DefaultModelsDir)
	}
	return DefaultModelsDir
}

// GetRegionModelPath returns the path of the region model inside modelsDir.
func GetRegionModelPath(modelsDir string) string {
	return filepath.Join(GetModelsDir(modelsDir), RegionModel)
}

// GetTessdataPath returns the tessdata directory inside modelsDir.
func GetTessdataPath(modelsDir string) string {
	return filepath.Join(GetModelsDir(modelsDir), TessdataDir)
}

// ValidateModelExists reports a descriptive error when the model file is missing.
func ValidateModelExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("model file not found: %s", path)
		}
		return fmt.Errorf("failed to stat model file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("model path is a directory: %s", path)
	}
	return nil
}

// ResolveTessdataPrefix returns the tessdata directory inside modelsDir when it
// exists, or "" so Tesseract falls back to its system data.
func ResolveTessdataPrefix(modelsDir string) string {
	dir := GetTessdataPath(modelsDir)
	if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
		return dir
	}
	return ""
}
