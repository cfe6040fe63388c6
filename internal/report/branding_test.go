package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-report-api/pkg/config"
)

func TestLoadBrandingOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "branding.yaml")
	require.NoError(t, os.WriteFile(path, []byte("institution_name: Colegio Norte\ndocument_version: \"4.1\"\n"), 0o600))

	b, err := LoadBranding(path, DefaultBranding())
	require.NoError(t, err)
	assert.Equal(t, "Colegio Norte", b.InstitutionName)
	assert.Equal(t, "4.1", b.DocumentVersion)
	assert.Equal(t, "GEC11-P02-F03", b.DocumentCode)
}

func TestLoadBrandingErrors(t *testing.T) {
	_, err := LoadBranding(filepath.Join(t.TempDir(), "missing.yaml"), DefaultBranding())
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("institution_name: [unterminated"), 0o600))
	_, err = LoadBranding(path, DefaultBranding())
	assert.Error(t, err)
}

func TestBrandingFromConfig(t *testing.T) {
	b, err := BrandingFromConfig(config.ReportsConfig{DefaultShift: "Afternoon"})
	require.NoError(t, err)
	assert.Equal(t, "Afternoon", b.DefaultShift)
	assert.Equal(t, "Primary", b.DefaultLevel)
	assert.Equal(t, "General evaluation.", b.DefaultComment)
}
