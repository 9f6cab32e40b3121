package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/hrportal/internal/model"
)

// Domain prefixes for content-addressed hashes.
// Version suffix enables future algorithm migration.
const (
	DomainCatalog   = "hrportal/catalog/v1"
	DomainMigration = "hrportal/migration/v1"
)

// Catalog is the structure of a set of tables as read back from a live
// database. Dialects fill it from their system catalogs.
type Catalog struct {
	Tables []TableInfo `json:"tables"`
}

// TableInfo describes one live table.
type TableInfo struct {
	Name        string           `json:"name"`
	Columns     []ColumnInfo     `json:"columns"`
	ForeignKeys []ForeignKeyInfo `json:"foreign_keys"`
	// Unique lists the column sets covered by unique constraints, each
	// sorted, excluding the primary key.
	Unique [][]string `json:"unique"`
}

// ColumnInfo describes one live column.
type ColumnInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"not_null"`
	Default    string `json:"default"`
	PrimaryKey int    `json:"primary_key"` // 1-based position in the primary key, 0 if not part of it
}

// ForeignKeyInfo describes one live foreign key column.
type ForeignKeyInfo struct {
	Column    string `json:"column"`
	RefTable  string `json:"ref_table"`
	RefColumn string `json:"ref_column"`
	OnDelete  string `json:"on_delete"`
}

// Table returns the named table.
func (c Catalog) Table(name string) (TableInfo, bool) {
	for _, t := range c.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableInfo{}, false
}

// Normalize sorts tables by name and foreign keys and unique sets by their
// columns, so two catalogs describing the same structure compare equal.
// Column order is kept: it is part of the structure. Nil and empty lists are
// made equal.
func (c *Catalog) Normalize() {
	sort.Slice(c.Tables, func(i, j int) bool { return c.Tables[i].Name < c.Tables[j].Name })
	for i := range c.Tables {
		t := &c.Tables[i]
		if t.ForeignKeys == nil {
			t.ForeignKeys = []ForeignKeyInfo{}
		}
		if t.Unique == nil {
			t.Unique = [][]string{}
		}
		sort.Slice(t.ForeignKeys, func(a, b int) bool { return t.ForeignKeys[a].Column < t.ForeignKeys[b].Column })
		for _, set := range t.Unique {
			sort.Strings(set)
		}
		sort.Slice(t.Unique, func(a, b int) bool {
			return strings.Join(t.Unique[a], ",") < strings.Join(t.Unique[b], ",")
		})
	}
}

// Fingerprint returns the SHA-256 of the normalized catalog's canonical JSON,
// with domain separation.
func Fingerprint(c Catalog) (string, error) {
	c.Tables = append([]TableInfo(nil), c.Tables...)
	c.Normalize()
	canonical, err := model.NewPayload(c)
	if err != nil {
		return "", fmt.Errorf("fingerprint catalog: %w", err)
	}
	return hashWithDomain(DomainCatalog, canonical), nil
}

// Checksum returns a content hash of a migration's declaration. The ledger
// stores it so drift between the applied and the embedded definition shows
// up in status output.
func Checksum(m Migration) (string, error) {
	canonical, err := model.NewPayload(m)
	if err != nil {
		return "", fmt.Errorf("checksum migration %s: %w", m.Name, err)
	}
	return hashWithDomain(DomainMigration, canonical), nil
}

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
