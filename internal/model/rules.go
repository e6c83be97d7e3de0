package model

import "github.com/shopspring/decimal"

// Ruleset is a typed, validated threshold ruleset: an ordered category list
// and a set of per-subject threshold rules. Built-in rulesets ("nv",
// "asfalt") and user-supplied rulesets share this representation.
type Ruleset struct {
	Name        string
	Version     string
	Description string
	// MatrixFilter restricts evaluation to a single matrix; UnknownMatrix
	// means the ruleset applies regardless of matrix.
	MatrixFilter Matrix
	// Categories is ordered cleanest (index 0) to dirtiest.
	Categories []string
	Rules      []SubstanceRule
}

// SubstanceRule is one subject's ordered threshold table within a ruleset.
// Subject is either a canonical substance key or a PAH group identifier
// (see model.IsGroupSubject).
type SubstanceRule struct {
	Subject    string
	Thresholds map[string]decimal.Decimal
	Note       string
}

// PAH group subjects: rule subjects distinct from individual canonical
// substance keys, each resolved against a sum of member substances rather
// than a single row.
const (
	GroupPAHLow    = "pah_l"
	GroupPAHMedium = "pah_m"
	GroupPAHHigh   = "pah_h"
	GroupPAH16Sum  = "pah_16_sum"
)

// IsGroupSubject reports whether subject names a PAH group sum rather than
// a single canonical substance.
func IsGroupSubject(subject string) bool {
	switch subject {
	case GroupPAHLow, GroupPAHMedium, GroupPAHHigh, GroupPAH16Sum:
		return true
	default:
		return false
	}
}

// GroupMembers lists the canonical substance keys summed for a PAH group.
// PAH-L/M/H follow the standard Swedish EPA molecular-weight split; the
// 16-PAH sum is the union of the three bands.
func GroupMembers(subject string) []string {
	switch subject {
	case GroupPAHLow:
		return []string{"naftalen", "acenaftylen", "acenaften", "fluoren"}
	case GroupPAHMedium:
		return []string{"fenantren", "antracen", "fluoranten", "pyren", "benso_a_antracen", "krysen"}
	case GroupPAHHigh:
		return []string{
			"benso_b_fluoranten", "benso_k_fluoranten", "benso_a_pyren",
			"indeno_1_2_3_cd_pyren", "dibenso_a_h_antracen", "benso_ghi_perylen",
		}
	case GroupPAH16Sum:
		members := append([]string{}, GroupMembers(GroupPAHLow)...)
		members = append(members, GroupMembers(GroupPAHMedium)...)
		members = append(members, GroupMembers(GroupPAHHigh)...)
		return members
	default:
		return nil
	}
}

// ExceedsAllPrefix marks the sentinel category assigned when a value
// exceeds every category's threshold: "> " + the dirtiest category name.
const ExceedsAllPrefix = "> "
