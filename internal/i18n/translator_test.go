package i18n

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "translations.yaml")
	content := []byte(`
ozon-products.mapper:
  tire:
    name: Шины
  disc:
    name: Диски
other:
  tire:
    name: Tires
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	catalog, err := LoadCatalog(path, "ozon-products.mapper")
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}

	if got, ok := catalog.Translate("tire.name"); !ok || got != "Шины" {
		t.Errorf("tire.name = %q, %v", got, ok)
	}
	if got, ok := catalog.Translate("Disc.Name"); !ok || got != "Диски" {
		t.Errorf("Disc.Name = %q, %v", got, ok)
	}
	if _, ok := catalog.Translate("absent.name"); ok {
		t.Error("absent key must not translate")
	}
}

func TestLoadCatalogMissingDomain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "translations.yaml")
	if err := os.WriteFile(path, []byte("other:\n  a: b\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadCatalog(path, "ozon-products.mapper"); err == nil {
		t.Fatal("expected error for missing domain")
	}
}

func TestNop(t *testing.T) {
	if _, ok := Nop().Translate("tire.name"); ok {
		t.Fatal("nop translator must not translate")
	}

	var c *Catalog
	if _, ok := c.Translate("tire.name"); ok {
		t.Fatal("nil catalog must not translate")
	}
}
