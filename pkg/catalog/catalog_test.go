// pkg/catalog/catalog_test.go
package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"demand-radar/internal/models"
)

// ==========================
// Validation Tests
// ==========================

func TestDefaultCatalog_CoversAllSources(t *testing.T) {
	cat := Default()

	assert.NoError(t, cat.Validate())
	assert.Len(t, cat.Sources, len(models.AllSources()))
	for _, src := range models.AllSources() {
		_, ok := cat.Find(string(src))
		assert.True(t, ok, "missing descriptor for %s", src)
	}
}

func TestValidate_RejectsUnknownSource(t *testing.T) {
	cat := Default()
	cat.Sources = append(cat.Sources, SourceDescriptor{ID: "carrier-pigeon"})

	assert.Error(t, cat.Validate())
}

func TestValidate_RejectsUnknownMetric(t *testing.T) {
	cat := Default()
	cat.Sources[0].Metrics = append(cat.Sources[0].Metrics, "vibes")

	assert.Error(t, cat.Validate())
}

func TestValidate_RejectsDuplicateSource(t *testing.T) {
	cat := Default()
	cat.Sources = append(cat.Sources, cat.Sources[0])

	assert.Error(t, cat.Validate())
}

func TestValidate_RejectsMissingSource(t *testing.T) {
	cat := Default()
	cat.Sources = cat.Sources[:len(cat.Sources)-1]

	assert.Error(t, cat.Validate())
}

// ==========================
// Loading Tests
// ==========================

func TestLoadCatalog_EmptyPathReturnsDefault(t *testing.T) {
	cat, err := LoadCatalog("")

	assert.NoError(t, err)
	assert.NoError(t, cat.Validate())
}

func TestLoadCatalog_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	body := `{
		"version": "2.0.0",
		"lastUpdated": "2025-07-01",
		"sources": [
			{"id": "trends", "displayName": "Trends", "metrics": ["volume"]},
			{"id": "forum", "displayName": "Forum", "metrics": ["volume"]},
			{"id": "linkagg", "displayName": "Links", "metrics": ["count"]},
			{"id": "video", "displayName": "Video", "metrics": ["engagement"]}
		]
	}`
	assert.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cat, err := LoadCatalog(path)

	assert.NoError(t, err)
	assert.Equal(t, "2.0.0", cat.Version)
	d, ok := cat.Find("linkagg")
	assert.True(t, ok)
	assert.Equal(t, "Links", d.DisplayName)
}

func TestLoadCatalog_RejectsIncompleteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	body := `{"version": "2.0.0", "sources": [{"id": "trends"}]}`
	assert.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := LoadCatalog(path)
	assert.Error(t, err)
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
