package clp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDatabase_DecodesEmbeddedTables(t *testing.T) {
	db, st := LoadDatabase()
	require.NotNil(t, db)
	require.NotNil(t, st)
	assert.NotEmpty(t, db.ByCAS)
	assert.NotEmpty(t, st.Metals)
}

func TestLoadDatabase_BenzoAPyreneCarriesKnownHazardLines(t *testing.T) {
	db, _ := LoadDatabase()
	entry, ok := db.ByCAS["50-32-8"]
	require.True(t, ok, "benzo[a]pyrene (CAS 50-32-8) must be present")

	assert.True(t, entry.HasHCode("H350"))
	assert.True(t, entry.HasHCode("H340"))
	assert.True(t, entry.HasHCodePrefix("H360"))
	assert.True(t, entry.HasHCode("H410"))

	scl, ok := entry.SCL("Repr.1B")
	require.True(t, ok)
	assert.Equal(t, "0.3", scl.String())
}

func TestLoadDatabase_LeadCarriesReproductiveSCL(t *testing.T) {
	db, _ := LoadDatabase()
	entry, ok := db.ByCAS["7439-92-1"]
	require.True(t, ok, "lead (CAS 7439-92-1) must be present")

	scl, ok := entry.SCL("Repr.1A")
	require.True(t, ok)
	assert.Equal(t, "0.03", scl.String())
}

func TestLoadDatabase_EveryMetalSpeciationReferencesAKnownCAS(t *testing.T) {
	db, st := LoadDatabase()
	for _, m := range st.Metals {
		_, ok := db.ByCAS[m.CAS]
		assert.True(t, ok, "metal %s references unknown CAS %s", m.Substance, m.CAS)
		assert.False(t, m.ConversionFactor.IsZero(), "metal %s has a zero conversion factor", m.Substance)
	}
}

func TestLoadDatabase_IsIdempotent(t *testing.T) {
	db1, st1 := LoadDatabase()
	db2, st2 := LoadDatabase()
	assert.Same(t, db1, db2)
	assert.Same(t, st1, st2)
}
