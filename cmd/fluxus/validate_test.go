package main

import (
	"strings"
	"testing"
)

func TestRunValidate_ValidScript(t *testing.T) {
	scriptPath := writeScript(t, `
name: counter
initial_state:
  count: 0
middleware: [recover, logger]
handlers:
  INCREMENT: {op: add, path: count, value: 1}
  ADD: add:count
selectors:
  total: count
actions:
  - type: INCREMENT
  - type: ADD
    payload: 2
  - type: ADD
    payload: 3
`)

	output, err := executeCmd(t, "validate", "-c", scriptPath)
	if err != nil {
		t.Fatalf("validate command error = %v", err)
	}

	expectedPhrases := []string{
		"Script is valid!",
		"Name:       counter",
		"Handlers:   2 (ADD, INCREMENT)",
		"Selectors:  1",
		"Middleware: recover, logger",
		"Actions:    3",
	}

	for _, phrase := range expectedPhrases {
		if !strings.Contains(output, phrase) {
			t.Errorf("output missing %q\nGot: %s", phrase, output)
		}
	}
}

func TestRunValidate_InvalidScript(t *testing.T) {
	scriptPath := writeScript(t, `
handlers:
  ADD: {op: add}
`)

	_, err := executeCmd(t, "validate", "-c", scriptPath)
	if err == nil {
		t.Fatal("validate command expected error for invalid script, got nil")
	}

	if !strings.Contains(err.Error(), "requires a path") {
		t.Errorf("error should mention 'requires a path', got: %v", err)
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	_, err := executeCmd(t, "validate", "-c", "/nonexistent/path/script.yaml")
	if err == nil {
		t.Fatal("validate command expected error for missing file, got nil")
	}

	if !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("error should mention 'failed to read', got: %v", err)
	}
}

func TestRunValidate_MissingFlag(t *testing.T) {
	_, err := executeCmd(t, "validate")
	if err == nil {
		t.Fatal("validate command expected error without --config, got nil")
	}
}
