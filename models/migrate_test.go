package models

import "testing"

type tabler interface{ TableName() string }

func TestMigratedTables(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Migrated() {
		tb, ok := m.(tabler)
		if !ok {
			t.Fatalf("%T has no TableName", m)
		}
		if seen[tb.TableName()] {
			t.Errorf("table %q migrated twice", tb.TableName())
		}
		seen[tb.TableName()] = true
	}
	for _, want := range []string{"users", "estimates", "risk_grid"} {
		if !seen[want] {
			t.Errorf("table %q not migrated", want)
		}
	}
}
