// Package clp loads the embedded CLP hazard-classification database and
// the metal/PAH speciation table, and resolves a report's rows to the
// worst-case compound each HP criterion evaluates against.
package clp

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/everlof/sonda/internal/common"
	"github.com/everlof/sonda/internal/model"
)

//go:embed data/clp-substances.json
var clpSubstancesJSON []byte

//go:embed data/speciation-assumptions.json
var speciationJSON []byte

type hazardClassJSON struct {
	Class    string `json:"class"`
	Category string `json:"category"`
	HCode    string `json:"h_code"`
	Route    string `json:"route,omitempty"`
}

type mFactorsJSON struct {
	Acute   string `json:"acute,omitempty"`
	Chronic string `json:"chronic,omitempty"`
}

type substanceJSON struct {
	Name          string            `json:"name"`
	HazardClasses []hazardClassJSON `json:"hazard_classes"`
	MFactors      mFactorsJSON      `json:"m_factors"`
	SCLs          map[string]string `json:"scls"`
}

type databaseJSON struct {
	Version     string                   `json:"version"`
	Description string                   `json:"description"`
	Substances  map[string]substanceJSON `json:"substances"`
}

type metalJSON struct {
	Substance        string `json:"substance"`
	Compound         string `json:"compound"`
	CAS              string `json:"cas"`
	ConversionFactor string `json:"conversion_factor"`
	ConversionNote   string `json:"conversion_note"`
}

type pahDirectJSON struct {
	Substance string `json:"substance"`
	CAS       string `json:"cas"`
}

type speciationTableJSON struct {
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Metals      []metalJSON     `json:"metals"`
	PahDirect   []pahDirectJSON `json:"pah_direct"`
}

// Database is the decoded, by-CAS CLP substance dossier.
type Database struct {
	Version     string
	Description string
	ByCAS       map[string]*model.ClpEntry
}

// SpeciationTable is the decoded metal/PAH speciation assumptions.
type SpeciationTable struct {
	Version     string
	Description string
	Metals      []model.MetalSpeciation
	// metalsBySubstance indexes Metals by canonical substance key;
	// pahByCAS maps a PAH's canonical substance key to its CAS number.
	metalsBySubstance map[string]model.MetalSpeciation
	pahByCAS          map[string]string
}

var (
	loadOnce    sync.Once
	database    *Database
	speciation  *SpeciationTable
	loadErr     error
)

// LoadDatabase returns the embedded CLP database and speciation table,
// decoding and cross-validating them on first call. Both embedded files
// are compiled into the binary: a decode failure or a cross-reference
// mismatch is a program bug, not a runtime condition, so this panics via
// common.ErrIntegrityError rather than returning an error a caller might
// be tempted to ignore.
func LoadDatabase() (*Database, *SpeciationTable) {
	loadOnce.Do(func() {
		database, speciation, loadErr = decode()
		if loadErr != nil {
			panic(fmt.Errorf("%w: %v", common.ErrIntegrityError, loadErr))
		}
	})
	return database, speciation
}

func decode() (*Database, *SpeciationTable, error) {
	var dbj databaseJSON
	if err := json.Unmarshal(clpSubstancesJSON, &dbj); err != nil {
		return nil, nil, fmt.Errorf("decode clp-substances.json: %w", err)
	}

	db := &Database{
		Version:     dbj.Version,
		Description: dbj.Description,
		ByCAS:       make(map[string]*model.ClpEntry, len(dbj.Substances)),
	}
	for cas, sj := range dbj.Substances {
		entry, err := convertSubstance(cas, sj)
		if err != nil {
			return nil, nil, err
		}
		db.ByCAS[cas] = entry
	}

	var stj speciationTableJSON
	if err := json.Unmarshal(speciationJSON, &stj); err != nil {
		return nil, nil, fmt.Errorf("decode speciation-assumptions.json: %w", err)
	}

	st := &SpeciationTable{
		Version:           stj.Version,
		Description:       stj.Description,
		metalsBySubstance: make(map[string]model.MetalSpeciation, len(stj.Metals)),
		pahByCAS:          make(map[string]string, len(stj.PahDirect)),
	}
	for _, mj := range stj.Metals {
		factor, err := decFromString(mj.ConversionFactor)
		if err != nil {
			return nil, nil, fmt.Errorf("metal %s: conversion_factor: %w", mj.Substance, err)
		}
		if _, ok := db.ByCAS[mj.CAS]; !ok {
			return nil, nil, fmt.Errorf("metal %s: CAS %s not present in CLP database", mj.Substance, mj.CAS)
		}
		ms := model.MetalSpeciation{
			Substance:        mj.Substance,
			Compound:         mj.Compound,
			CAS:              mj.CAS,
			ConversionFactor: factor,
			ConversionNote:   mj.ConversionNote,
		}
		st.Metals = append(st.Metals, ms)
		st.metalsBySubstance[mj.Substance] = ms
	}
	for _, pj := range stj.PahDirect {
		if _, ok := db.ByCAS[pj.CAS]; !ok {
			return nil, nil, fmt.Errorf("pah_direct %s: CAS %s not present in CLP database", pj.Substance, pj.CAS)
		}
		st.pahByCAS[pj.Substance] = pj.CAS
	}

	return db, st, nil
}

func decFromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

func convertSubstance(cas string, sj substanceJSON) (*model.ClpEntry, error) {
	entry := &model.ClpEntry{
		CompoundLabel: sj.Name,
		CAS:           cas,
		SCLs:          make(map[string]decimal.Decimal, len(sj.SCLs)),
	}
	for _, hc := range sj.HazardClasses {
		entry.HazardClasses = append(entry.HazardClasses, model.HazardClass{
			Class:    hc.Class,
			Category: hc.Category,
			HCode:    hc.HCode,
			Route:    hc.Route,
		})
	}
	if sj.MFactors.Acute != "" {
		v, err := decFromString(sj.MFactors.Acute)
		if err != nil {
			return nil, fmt.Errorf("substance %s: m_factors.acute: %w", cas, err)
		}
		entry.MFactors.Acute = v
	}
	if sj.MFactors.Chronic != "" {
		v, err := decFromString(sj.MFactors.Chronic)
		if err != nil {
			return nil, fmt.Errorf("substance %s: m_factors.chronic: %w", cas, err)
		}
		entry.MFactors.Chronic = v
	}
	for key, raw := range sj.SCLs {
		v, err := decFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("substance %s: scls[%s]: %w", cas, key, err)
		}
		entry.SCLs[key] = v
	}
	return entry, nil
}
