// Package corpus keeps description/step-text pairs for fine-tuning a text
// generator. The file is a JSON array of records.
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"StepBoard/internal/llm"
)

var (
	ErrEmptyInput  = errors.New("corpus: description is empty")
	ErrEmptyOutput = errors.New("corpus: step text is empty")
)

// Record is one training example.
type Record struct {
	Instruction string `json:"instruction"`
	Input       string `json:"input"`
	Output      string `json:"output"`
}

// Load reads all records in path. A missing file holds no records.
func Load(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("corpus %s: %w", path, err)
	}
	return records, nil
}

// Count returns the number of records in path.
func Count(path string) (int, error) {
	records, err := Load(path)
	return len(records), err
}

// Append adds a record for input and output and returns the new count. The
// file is replaced atomically; an unreadable file is left untouched.
func Append(path, input, output string) (int, error) {
	input, output = strings.TrimSpace(input), strings.TrimSpace(output)
	if input == "" {
		return 0, ErrEmptyInput
	}
	if output == "" {
		return 0, ErrEmptyOutput
	}

	records, err := Load(path)
	if err != nil {
		return 0, err
	}
	records = append(records, Record{Instruction: llm.SystemPrompt(), Input: input, Output: output})
	if err := write(path, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func write(path string, records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
