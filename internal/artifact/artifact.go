// Package artifact provides helpers for the on-disk artifacts pipeline
// stages communicate through: directories, JSON documents, gob-encoded
// models, and the validation status file.
package artifact

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// EnsureDirs creates each directory (and parents) if absent. Existing
// directories are not an error. Every created path is logged.
func EnsureDirs(logger *slog.Logger, paths ...string) error {
	for _, path := range paths {
		if err := os.MkdirAll(path, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", path, err)
		}
		logger.Info("created directory", "path", path)
	}
	return nil
}

// SaveJSON serializes v to path as indented JSON.
func SaveJSON(logger *slog.Logger, path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	logger.Info("json artifact saved", "path", path)
	return nil
}

// LoadJSON deserializes the JSON document at path into v.
func LoadJSON(logger *slog.Logger, path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	logger.Info("json artifact loaded", "path", path)
	return nil
}

// SaveModel gob-encodes model to path.
func SaveModel(logger *slog.Logger, path string, model any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(model); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}

	logger.Info("model artifact saved", "path", path)
	return nil
}

// LoadModel gob-decodes the file at path into model, which must be a
// pointer to the concrete model type.
func LoadModel(logger *slog.Logger, path string, model any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(model); err != nil {
		return fmt.Errorf("failed to decode model: %w", err)
	}

	logger.Info("model artifact loaded", "path", path)
	return nil
}

// SuccessToken is the trailing token of a status file written after a
// successful validation run.
const SuccessToken = "True"

// FailureToken is the trailing token written when validation fails.
const FailureToken = "False"

// WriteStatus writes the validation status artifact. The file is free
// text whose trailing whitespace-separated token is "True" or "False".
func WriteStatus(logger *slog.Logger, path string, ok bool) error {
	token := FailureToken
	if ok {
		token = SuccessToken
	}

	content := fmt.Sprintf("Validation status: %s\n", token)
	if err := os.WriteFile(path, []byte(content), 0o640); err != nil {
		return fmt.Errorf("failed to write status file %s: %w", path, err)
	}

	logger.Info("status artifact saved", "path", path, "status", token)
	return nil
}

// ReadStatus reads the status artifact and reports whether its trailing
// token is the success flag.
func ReadStatus(path string) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read status file %s: %w", path, err)
	}

	fields := strings.Fields(string(content))
	if len(fields) == 0 {
		return false, fmt.Errorf("status file %s is empty", path)
	}

	return fields[len(fields)-1] == SuccessToken, nil
}
