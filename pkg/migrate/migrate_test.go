package migrate

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	if err := ValidateEmbedded(); err != nil {
		t.Fatalf("validate embedded: %v", err)
	}
	versions, err := Versions()
	if err != nil {
		t.Fatalf("versions: %v", err)
	}
	if len(versions) != 7 {
		t.Fatalf("expected 7 migrations, got %d", len(versions))
	}
	if !sort.SliceIsSorted(versions, func(i, j int) bool { return versions[i] < versions[j] }) {
		t.Fatalf("versions not ascending: %v", versions)
	}
}

func TestSchemaStatements(t *testing.T) {
	cases := map[string][]string{
		"*_create_products_table.sql": {
			"CREATE TABLE IF NOT EXISTS products",
			"chk_products_discounted_price",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_products_slug",
		},
		"*_create_coupons_table.sql": {
			"discount_percent integer NOT NULL CHECK (discount_percent BETWEEN 1 AND 100)",
			"CHECK (max_uses IS NULL OR used_count <= max_uses)",
		},
		"*_create_orders_table.sql": {
			"payment_phone text NULL",
			"discount_amount numeric(12,2) NOT NULL",
			"idx_orders_tracking_number",
			"idx_orders_unpaid_pending",
		},
		"*_create_order_items_table.sql": {
			"REFERENCES products(id) ON DELETE RESTRICT",
			"REFERENCES orders(id) ON DELETE CASCADE",
		},
		"*_create_outbox_events_table.sql": {
			"payload jsonb NOT NULL",
			"idx_outbox_events_unpublished",
		},
	}
	for pattern, wants := range cases {
		matches, err := filepath.Glob(filepath.Join("migrations", pattern))
		if err != nil || len(matches) != 1 {
			t.Fatalf("glob %s: matches=%v err=%v", pattern, matches, err)
		}
		data, err := os.ReadFile(matches[0])
		if err != nil {
			t.Fatalf("read %s: %v", matches[0], err)
		}
		for _, want := range wants {
			if !strings.Contains(string(data), want) {
				t.Errorf("%s missing %q", matches[0], want)
			}
		}
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 10, 17, 8, 30, 0, 0, time.UTC)

	path, err := createAt(dir, "  Add Seller Index! ", now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if filepath.Base(path) != "20261017083000_add_seller_index.sql" {
		t.Fatalf("unexpected filename %s", filepath.Base(path))
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migration fails validation: %v", err)
	}
	if _, err := createAt(dir, "add seller index", now); err == nil {
		t.Fatal("expected duplicate error")
	}
	if _, err := createAt(dir, "!!!", now); err == nil {
		t.Fatal("expected empty name error")
	}
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected filename error")
	}

	dir = t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "20260101000000_x.sql"), []byte("-- +goose Up\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ValidateDir(dir); err == nil || !strings.Contains(err.Error(), "goose Down") {
		t.Fatalf("expected missing down marker, got %v", err)
	}
}
