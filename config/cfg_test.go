package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"h2w/common"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
}

func TestConfig_DefaultValues(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	doc := cfg.Document
	if doc.AcronymPosition != common.AcronymPositionPageEnd {
		t.Errorf("AcronymPosition = %s, want page-end", doc.AcronymPosition)
	}
	if doc.TableCaptionPosition != common.CaptionPositionAbove {
		t.Errorf("TableCaptionPosition = %s, want above", doc.TableCaptionPosition)
	}
	if doc.RenderPreAsTable {
		t.Error("RenderPreAsTable should be off by default")
	}
	if doc.Styles.Caption != "Caption" || doc.Styles.PreTable != "TableGrid" || doc.Styles.Heading != "Heading" {
		t.Errorf("unexpected default styles: %+v", doc.Styles)
	}
	if !doc.Metainformation || doc.OutputNameTemplate != "" {
		t.Errorf("Metainformation = %v, OutputNameTemplate = %q", doc.Metainformation, doc.OutputNameTemplate)
	}
	if cfg.Logging.FileLogger.Level != "none" {
		t.Errorf("file logger level = %q, want none", cfg.Logging.FileLogger.Level)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `version: 1
document:
  acronym_position: document-end
  table_caption_position: below
  render_pre_as_table: true
  styles:
    caption: TableCaption
logging:
  console:
    level: debug
  file:
    level: debug
    destination: `+filepath.Join(dir, "test.log")+`
    mode: append
reporting:
  destination: `+filepath.Join(dir, "report.zip")+`
`)

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if cfg.Document.AcronymPosition != common.AcronymPositionDocumentEnd {
		t.Errorf("AcronymPosition = %s, want document-end", cfg.Document.AcronymPosition)
	}
	if cfg.Document.TableCaptionPosition != common.CaptionPositionBelow {
		t.Errorf("TableCaptionPosition = %s, want below", cfg.Document.TableCaptionPosition)
	}
	if !cfg.Document.RenderPreAsTable {
		t.Error("Expected RenderPreAsTable to be true")
	}
	if cfg.Document.Styles.Caption != "TableCaption" {
		t.Errorf("Caption style = %q, want TableCaption", cfg.Document.Styles.Caption)
	}
	// values absent in file keep defaults
	if cfg.Document.Styles.PreTable != "TableGrid" {
		t.Errorf("PreTable style = %q, want default TableGrid", cfg.Document.Styles.PreTable)
	}
	if cfg.Logging.FileLogger.Mode != "append" {
		t.Errorf("file logger mode = %q, want append", cfg.Logging.FileLogger.Mode)
	}
}

func TestLoadConfiguration_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "version: 1\ndocument:\n  render_pre_as_table: true\n  invalid indent\n"},
		{"unknown field", "version: 1\nunknown_field: value\n"},
		{"bad version", "version: 2\n"},
		{"bad enum", "version: 1\ndocument:\n  acronym_position: page-middle\n"},
		{"bad log level", "version: 1\nlogging:\n  console:\n    level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadConfiguration_NonExistentFile(t *testing.T) {
	if _, err := LoadConfiguration("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if !strings.Contains(string(data), "acronym_position") {
		t.Error("Prepare() output does not look like configuration")
	}
	if _, err := unmarshalConfig(data, &Config{}, false); err != nil {
		t.Errorf("Prepared config is not valid: %v", err)
	}
}

func TestDump(t *testing.T) {
	cfg := &Config{
		Version: 1,
		Document: DocumentConfig{
			AcronymPosition:      common.AcronymPositionDocumentEnd,
			TableCaptionPosition: common.CaptionPositionNone,
		},
	}

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if !strings.Contains(string(data), "acronym_position: document-end") {
		t.Errorf("enum is not dumped by name:\n%s", data)
	}

	cfg2, err := unmarshalConfig(data, &Config{}, false)
	if err != nil {
		t.Fatalf("Dumped config cannot be loaded: %v", err)
	}
	if cfg2.Document.AcronymPosition != cfg.Document.AcronymPosition {
		t.Errorf("AcronymPosition mismatch after dump/load: got %s", cfg2.Document.AcronymPosition)
	}
}

func TestUnmarshalConfig_WrapsValidationError(t *testing.T) {
	_, err := unmarshalConfig([]byte("version: 99\n"), &Config{}, true)
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "not valid") {
		t.Errorf("expected error to mention validation, got: %v", err)
	}
	if errors.Unwrap(err) == nil {
		t.Errorf("expected wrapped error, got bare error: %v", err)
	}
}

func TestLoadConfiguration_OutputNameTemplateKept(t *testing.T) {
	path := writeConfig(t, `version: 1
document:
  output_name_template: "{{ .Title }} - {{ .SourceFile }}"
`)
	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if got := cfg.Document.OutputNameTemplate; got != "{{ .Title }} - {{ .SourceFile }}" {
		t.Errorf("OutputNameTemplate = %q", got)
	}
}
