package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/clockwise-hq/clockwise/pkg/db/models"
	"github.com/clockwise-hq/clockwise/pkg/ledger"
)

func TestShiftsCacheKey(t *testing.T) {
	day := func(value string) time.Time {
		date, err := time.Parse("2006-01-02", value)
		if err != nil {
			t.Fatal(err)
		}
		return date
	}
	base := ledger.ListOptions{
		Start:      day("2025-01-01"),
		End:        day("2025-01-31"),
		EmployeeID: 10,
	}

	// Identical options share one entry.
	assert.Equal(t, shiftsCacheKey(1, base), shiftsCacheKey(1, base))

	// Every option that changes the result set must change the key.
	variants := map[string]ledger.ListOptions{}
	variants["base"] = base

	v := base
	v.Origin = models.OriginImported
	variants["origin"] = v

	v = base
	v.EventKind = models.ClockIn
	variants["kind"] = v

	v = base
	v.EmployeeID = 11
	variants["employee"] = v

	v = base
	v.End = day("2025-02-28")
	variants["range"] = v

	v = base
	v.ActiveEmployeesOnly = true
	variants["active"] = v

	seen := map[string]string{}
	for name, opts := range variants {
		key := shiftsCacheKey(1, opts)
		if other, ok := seen[key]; ok {
			t.Fatalf("options %q and %q share cache key %q", name, other, key)
		}
		seen[key] = name
	}

	// Company is part of the key too.
	assert.NotEqual(t, shiftsCacheKey(1, base), shiftsCacheKey(2, base))
}
