// Package normalize turns a lab report's free-text substance name into the
// canonical snake_case key the rest of the classification core keys off
// of. It joins heterogeneous lab nomenclature (Swedish, English, chemical
// symbol suffixes, punctuation variants) to one substance dictionary.
package normalize

import (
	"regexp"
	"strings"
)

// elementSymbols lists chemical element symbols relevant to environmental
// analysis that labs append after a Swedish substance name, either in
// parentheses ("Arsenik (As)") or bare ("Arsenik As").
var elementSymbols = map[string]bool{
	"As": true, "Ba": true, "Pb": true, "Cd": true, "Co": true,
	"Cu": true, "Cr": true, "Hg": true, "Ni": true, "V": true,
	"Zn": true, "Fe": true, "Mn": true, "Mo": true, "Sb": true,
	"Se": true, "Sn": true, "Ti": true, "Tl": true, "W": true,
}

// analyticalQualifiers are parenthetical or footnote suffixes that add no
// identity information and are stripped before the element-symbol check.
var analyticalQualifiers = regexp.MustCompile(`(?i)\s*\((summa|total|totalt)\)\s*$`)

// footnoteMarkers strips trailing footnote markers: asterisks and dagger
// marks (†, ‡). Letter superscript suffixes are not stripped.
var footnoteMarkers = regexp.MustCompile(`[*†‡]+\s*$`)

var trailingElementParen = regexp.MustCompile(`\s*\([A-Za-zÅÄÖåäö]{1,4}\)\s*$`)

// Normalize maps raw to its canonical snake_case substance key. The steps
// run in a fixed order: strip footnote/qualifier noise, strip a trailing
// chemical-symbol suffix (parenthesized or bare), lowercase, keep Swedish
// å/ä/ö as-is, collapse non-alphanumeric runs to single underscores, then
// resolve the result through the static alias table.
//
// If no alias matches, the computed key is returned unchanged. It is the
// caller's job (see internal/rules, internal/clp) to decide whether an
// unrecognized key means the row is simply unknown to every engine.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = footnoteMarkers.ReplaceAllString(s, "")
	s = analyticalQualifiers.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	if m := trailingElementParen.FindString(s); m != "" {
		inner := strings.Trim(strings.TrimSpace(m), "() ")
		if elementSymbols[inner] {
			s = strings.TrimSpace(strings.TrimSuffix(s, m))
		}
	}

	words := strings.Fields(s)
	if len(words) >= 2 {
		last := words[len(words)-1]
		if elementSymbols[last] {
			s = strings.Join(words[:len(words)-1], " ")
		}
	}

	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	prevUnderscore := true // skip leading underscores
	for _, r := range s {
		var keep bool
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			keep = true
		case r == 'å' || r == 'ä' || r == 'ö':
			keep = true
		}

		if keep {
			b.WriteRune(r)
			prevUnderscore = false
			continue
		}

		if !prevUnderscore {
			b.WriteByte('_')
			prevUnderscore = true
		}
	}

	result := strings.TrimSuffix(b.String(), "_")

	if canonical, ok := aliases[result]; ok {
		return canonical
	}
	return result
}

// aliases maps lab-report synonyms and spelling variants to one canonical
// key per substance or substance group.
var aliases = map[string]string{
	// Metals.
	"arsenik": "arsenik", "arsen": "arsenik", "as": "arsenik",
	"barium": "barium", "ba": "barium",
	"bly": "bly", "pb": "bly",
	"kadmium": "kadmium", "cd": "kadmium",
	"kobolt": "kobolt", "co": "kobolt",
	"koppar": "koppar", "cu": "koppar",
	"krom": "krom_total", "krom_total": "krom_total", "krom_totalt": "krom_total", "cr": "krom_total",
	"kvicksilver": "kvicksilver", "hg": "kvicksilver",
	"nickel": "nickel", "ni": "nickel",
	"vanadin": "vanadin", "v": "vanadin",
	"zink": "zink", "zn": "zink",

	// BTEX.
	"bensen": "bensen", "benzen": "bensen",
	"toluen":      "toluen",
	"etylbensen":  "etylbensen",
	"xylener":     "xylener",
	"xylen":       "xylener",

	// Aliphatics.
	"alifater_c5_c8": "alifater_c5_c8", "alifater__c5_c8": "alifater_c5_c8",
	"alifater_c8_c10": "alifater_c8_c10", "alifater__c8_c10": "alifater_c8_c10",
	"alifater_c10_c12": "alifater_c10_c12", "alifater__c10_c12": "alifater_c10_c12",
	"alifater_c12_c16": "alifater_c12_c16", "alifater__c12_c16": "alifater_c12_c16",
	"alifater_c16_c35": "alifater_c16_c35", "alifater__c16_c35": "alifater_c16_c35",

	// Aromatics.
	"aromater_c8_c10": "aromater_c8_c10", "aromater__c8_c10": "aromater_c8_c10",
	"aromater_c10_c16": "aromater_c10_c16", "aromater__c10_c16": "aromater_c10_c16",
	"aromater_c16_c35": "aromater_c16_c35", "aromater__c16_c35": "aromater_c16_c35",

	// PAH groups.
	"pah_l": "pah_l", "pah_l_summa": "pah_l", "summa_pah_l": "pah_l",
	"pah_låg": "pah_l", "summa_pah_med_låg_molekylvikt": "pah_l", "pah_med_låg_molekylvikt": "pah_l",
	"pah_m": "pah_m", "pah_m_summa": "pah_m", "summa_pah_m": "pah_m",
	"pah_medel": "pah_m", "summa_pah_med_medelhög_molekylvikt": "pah_m", "pah_med_medelhög_molekylvikt": "pah_m",
	"pah_h": "pah_h", "pah_h_summa": "pah_h", "summa_pah_h": "pah_h",
	"pah_hög": "pah_h", "summa_pah_med_hög_molekylvikt": "pah_h", "pah_med_hög_molekylvikt": "pah_h",

	// PAH-16.
	"pah_16": "pah_16_sum", "summa_16_pah": "pah_16_sum", "pah_16_summa": "pah_16_sum",
	"summa_pah_16": "pah_16_sum", "summa_totala_pah16": "pah_16_sum",

	// Individual PAH compounds.
	"naftalen": "naftalen", "acenaftylen": "acenaftylen", "acenaften": "acenaften",
	"fluoren": "fluoren", "fenantren": "fenantren", "antracen": "antracen",
	"fluoranten": "fluoranten", "pyren": "pyren",
	"benso_a_antracen": "benso_a_antracen", "krysen": "krysen",
	"benso_b_fluoranten": "benso_b_fluoranten", "benso_k_fluoranten": "benso_k_fluoranten",
	"benso_b_k_fluoranten": "benso_b_k_fluoranten", "benso_a_pyren": "benso_a_pyren",
	"dibenso_a_h_antracen": "dibenso_a_h_antracen",
	"benso_ghi_perylen": "benso_ghi_perylen", "benso_g_h_i_perylen": "benso_ghi_perylen",
	"indeno_1_2_3_cd_pyren": "indeno_1_2_3_cd_pyren", "indeno_123cd_pyren": "indeno_1_2_3_cd_pyren",
	"indeno_123_cd_pyren": "indeno_1_2_3_cd_pyren",

	// Dry substance.
	"ts": "ts", "torrsubstans": "ts", "ts_halt": "ts",
}

// canonicalKeys is the set of canonical substance keys the alias table can
// resolve to, built once from aliases' values.
var canonicalKeys = func() map[string]bool {
	keys := make(map[string]bool, len(aliases))
	for _, canonical := range aliases {
		keys[canonical] = true
	}
	return keys
}()

// IsKnownCanonicalKey reports whether key is a canonical substance key the
// alias table can produce. Rulesets use this to reject a subject that
// normalize could never resolve any lab-report name to, at load time
// rather than leaving it to silently go unmatched at classify time.
func IsKnownCanonicalKey(key string) bool {
	return canonicalKeys[key]
}
