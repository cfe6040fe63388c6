package report

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/academic-report-api/pkg/config"
)

// Branding carries the institution-specific text printed on reports and the
// labels used when the roster has no shift or level information.
type Branding struct {
	InstitutionName string `yaml:"institution_name"`
	SystemTitle     string `yaml:"system_title"`
	ReportTitle     string `yaml:"report_title"`
	DocumentCode    string `yaml:"document_code"`
	DocumentVersion string `yaml:"document_version"`
	UpdatedOn       string `yaml:"updated_on"`
	Heading         string `yaml:"heading"`
	DefaultComment  string `yaml:"default_comment"`
	DefaultShift    string `yaml:"default_shift"`
	DefaultLevel    string `yaml:"default_level"`
}

// DefaultBranding mirrors the stock configuration defaults.
func DefaultBranding() Branding {
	return Branding{
		InstitutionName: "Gimnasio Loris Malaguzzi",
		SystemTitle:     "SISTEMA DE GESTION DE CALIDAD",
		ReportTitle:     "INFORME ACADÉMICO",
		DocumentCode:    "GEC11-P02-F03",
		DocumentVersion: "3.0",
		UpdatedOn:       "marzo 30 de 2021",
		Heading:         "INFORME VALORATIVO DEL RENDIMIENTO ACADÉMICO",
		DefaultComment:  "General evaluation.",
		DefaultShift:    "Morning",
		DefaultLevel:    "Primary",
	}
}

// BrandingFromConfig builds branding from the reports config, loading the
// YAML override file when one is configured.
func BrandingFromConfig(cfg config.ReportsConfig) (Branding, error) {
	b := DefaultBranding()
	overlay(&b.InstitutionName, cfg.InstitutionName)
	overlay(&b.SystemTitle, cfg.SystemTitle)
	overlay(&b.ReportTitle, cfg.ReportTitle)
	overlay(&b.DocumentCode, cfg.DocumentCode)
	overlay(&b.DocumentVersion, cfg.DocumentVersion)
	overlay(&b.UpdatedOn, cfg.UpdatedOn)
	overlay(&b.Heading, cfg.Heading)
	overlay(&b.DefaultShift, cfg.DefaultShift)
	overlay(&b.DefaultLevel, cfg.DefaultLevel)

	if cfg.BrandingFile == "" {
		return b, nil
	}
	return LoadBranding(cfg.BrandingFile, b)
}

// LoadBranding reads a YAML file on top of base. Keys missing from the file keep base values.
func LoadBranding(path string, base Branding) (Branding, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read branding file: %w", err)
	}
	b := base
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return base, fmt.Errorf("parse branding file %s: %w", path, err)
	}
	return b, nil
}

func overlay(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
