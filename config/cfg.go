// Package config loads, validates and dumps program configuration.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"h2w/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	// StylesConfig names document styles conversion refers to. Names are
	// matched against style ids and style names of the target document.
	StylesConfig struct {
		Caption           string `yaml:"caption" validate:"required"`
		PreTable          string `yaml:"pre_table" validate:"required"`
		Quote             string `yaml:"quote"`
		ListItem          string `yaml:"list_item"`
		Heading           string `yaml:"heading" validate:"required"`
		Hyperlink         string `yaml:"hyperlink"`
		FootnoteText      string `yaml:"footnote_text"`
		FootnoteReference string `yaml:"footnote_reference"`
		EndnoteText       string `yaml:"endnote_text"`
		EndnoteReference  string `yaml:"endnote_reference"`
	}

	DocumentConfig struct {
		TemplatePath          string                 `yaml:"template_path" sanitize:"assure_file_access"`
		AcronymPosition       common.AcronymPosition `yaml:"acronym_position" validate:"gte=0"`
		TableCaptionPosition  common.CaptionPosition `yaml:"table_caption_position" validate:"gte=0"`
		RenderPreAsTable      bool                   `yaml:"render_pre_as_table"`
		OutputNameTemplate    string                 `yaml:"output_name_template"`
		FileNameTransliterate bool                   `yaml:"file_name_transliterate"`
		Metainformation       bool                   `yaml:"metainformation"`
		Styles                StylesConfig           `yaml:"styles"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Document  DocumentConfig `yaml:"document"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

// NOTE: must match yaml field name above
const OutputNameTemplateFieldName TemplateFieldName = "output_name_template"

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("configuration is not valid: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads embedded defaults and, when path is not empty,
// overlays them with values from the configuration file.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare returns default configuration with template expanded.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
