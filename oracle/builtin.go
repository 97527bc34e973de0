/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package oracle

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// LabTest is a canonical lab test name and the spellings reports use for it.
type LabTest struct {
	Name     string   `json:"name"`
	Category string   `json:"-"`
	Aliases  []string `json:"aliases,omitempty"`
}

// CatalogGroup is the catalog tests of one category.
type CatalogGroup struct {
	Category string    `json:"category"`
	Tests    []LabTest `json:"tests"`
}

// Test categories.
const (
	CategoryBloodCounts      = "Blood Counts"
	CategoryLipidPanel       = "Lipid Panel"
	CategoryMetabolic        = "Metabolic"
	CategoryLiverFunction    = "Liver Function"
	CategoryVitaminsMinerals = "Vitamins & Minerals"
	CategoryEndocrineOther   = "Endocrine & Other"
)

// Catalog returns the lab tests the builtin matcher knows, organized by
// category.
func Catalog() []LabTest {
	return []LabTest{
		// Blood Counts
		{Name: "White Blood Cells", Category: CategoryBloodCounts, Aliases: []string{"WBC", "White blood cell count", "Total leukocyte count", "TLC", "Leukocytes"}},
		{Name: "Red Blood Cells", Category: CategoryBloodCounts, Aliases: []string{"RBC", "Red blood cell count", "Erythrocytes", "RBC count"}},
		{Name: "Hemoglobin", Category: CategoryBloodCounts, Aliases: []string{"Hb", "HGB", "Haemoglobin"}},
		{Name: "Hematocrit", Category: CategoryBloodCounts, Aliases: []string{"HCT", "PCV", "Packed cell volume", "Haematocrit"}},
		{Name: "MCV", Category: CategoryBloodCounts, Aliases: []string{"M.C.V", "Mean corpuscular volume"}},
		{Name: "MCH", Category: CategoryBloodCounts, Aliases: []string{"M.C.H", "Mean corpuscular hemoglobin"}},
		{Name: "MCHC", Category: CategoryBloodCounts, Aliases: []string{"M.C.H.C", "Mean corpuscular hemoglobin concentration"}},
		{Name: "MPV", Category: CategoryBloodCounts, Aliases: []string{"M.P.V", "Mean platelet volume"}},
		{Name: "RDW-CV", Category: CategoryBloodCounts, Aliases: []string{"RDW", "Red cell distribution width"}},
		{Name: "Platelets", Category: CategoryBloodCounts, Aliases: []string{"Platelet count", "PLT"}},
		{Name: "Neutrophils", Category: CategoryBloodCounts, Aliases: []string{"Neutrophil"}},
		{Name: "Lymphocytes", Category: CategoryBloodCounts, Aliases: []string{"Lymphocyte"}},
		{Name: "Monocytes", Category: CategoryBloodCounts, Aliases: []string{"Monocyte"}},
		{Name: "Eosinophils", Category: CategoryBloodCounts, Aliases: []string{"Eosinophil"}},
		{Name: "Basophils", Category: CategoryBloodCounts, Aliases: []string{"Basophil"}},

		// Lipid Panel
		{Name: "Total Cholesterol", Category: CategoryLipidPanel, Aliases: []string{"Cholesterol - Total", "Cholesterol, total", "Cholesterol", "Serum cholesterol"}},
		{Name: "LDL Cholesterol", Category: CategoryLipidPanel, Aliases: []string{"Cholesterol - LDL", "Cholesterol, LDL", "LDL", "LDL-C", "Low density lipoprotein"}},
		{Name: "HDL Cholesterol", Category: CategoryLipidPanel, Aliases: []string{"Cholesterol - HDL", "Cholesterol, HDL", "HDL", "HDL-C", "High density lipoprotein"}},
		{Name: "VLDL Cholesterol", Category: CategoryLipidPanel, Aliases: []string{"Cholesterol - VLDL", "VLDL"}},
		{Name: "Non-HDL Cholesterol", Category: CategoryLipidPanel, Aliases: []string{"Non HDL Cholesterol", "Cholesterol - Non HDL"}},
		{Name: "Triglycerides", Category: CategoryLipidPanel, Aliases: []string{"Triglyceride", "TG", "Serum triglycerides"}},
		{Name: "Apolipoprotein B", Category: CategoryLipidPanel, Aliases: []string{"Apo B", "ApoB"}},

		// Metabolic
		{Name: "Fasting Glucose", Category: CategoryMetabolic, Aliases: []string{"Glucose - Fasting", "Glucose fasting FBS", "Fasting blood sugar", "FBS", "Fasting plasma glucose"}},
		{Name: "Creatinine", Category: CategoryMetabolic, Aliases: []string{"Serum creatinine"}},
		{Name: "Calcium", Category: CategoryMetabolic, Aliases: []string{"Serum calcium", "Ca"}},
		{Name: "Uric Acid", Category: CategoryMetabolic, Aliases: []string{"Serum uric acid"}},
		{Name: "Bicarbonate", Category: CategoryMetabolic, Aliases: []string{"HCO3"}},
		{Name: "Sodium", Category: CategoryMetabolic, Aliases: []string{"Na"}},
		{Name: "Potassium", Category: CategoryMetabolic, Aliases: []string{"K"}},
		{Name: "Chloride", Category: CategoryMetabolic, Aliases: []string{"Cl"}},

		// Liver Function
		{Name: "ALT", Category: CategoryLiverFunction, Aliases: []string{"SGPT", "Alanine transaminase", "Alanine aminotransferase"}},
		{Name: "AST", Category: CategoryLiverFunction, Aliases: []string{"SGOT", "Aspartate transaminase", "Aspartate aminotransferase"}},
		{Name: "GGT", Category: CategoryLiverFunction, Aliases: []string{"Gamma GT", "Gamma glutamyl transferase"}},
		{Name: "Total Bilirubin", Category: CategoryLiverFunction, Aliases: []string{"T Bilirubin", "Bilirubin Total", "Bilirubin - Total"}},
		{Name: "Direct Bilirubin", Category: CategoryLiverFunction, Aliases: []string{"Bilirubin Direct", "D Bilirubin", "Conjugated bilirubin"}},
		{Name: "Indirect Bilirubin", Category: CategoryLiverFunction, Aliases: []string{"Bilirubin Indirect", "Unconjugated bilirubin"}},
		{Name: "Alkaline Phosphatase", Category: CategoryLiverFunction, Aliases: []string{"ALP"}},
		{Name: "Albumin", Category: CategoryLiverFunction, Aliases: []string{"Serum albumin"}},
		{Name: "Globulin", Category: CategoryLiverFunction},
		{Name: "Total Protein", Category: CategoryLiverFunction, Aliases: []string{"Protein total", "Serum protein"}},

		// Vitamins & Minerals
		{Name: "Vitamin D", Category: CategoryVitaminsMinerals, Aliases: []string{"Vitamin D (25-OH)", "25-OH Vitamin D", "25 Hydroxy Vitamin D", "Vitamin D3"}},
		{Name: "Vitamin B12", Category: CategoryVitaminsMinerals, Aliases: []string{"B12", "Cobalamin"}},
		{Name: "Magnesium", Category: CategoryVitaminsMinerals, Aliases: []string{"Mg"}},
		{Name: "Iron", Category: CategoryVitaminsMinerals, Aliases: []string{"Serum iron", "Fe"}},
		{Name: "Ferritin", Category: CategoryVitaminsMinerals},
		{Name: "Zinc", Category: CategoryVitaminsMinerals, Aliases: []string{"Zn"}},

		// Endocrine & Other
		{Name: "TSH", Category: CategoryEndocrineOther, Aliases: []string{"Thyroid stimulating hormone"}},
		{Name: "Hemoglobin A1c", Category: CategoryEndocrineOther, Aliases: []string{"HbA1c", "Haemoglobin HbA1c", "Glycosylated hemoglobin", "Glycated hemoglobin", "A1c"}},
		{Name: "ESR", Category: CategoryEndocrineOther, Aliases: []string{"Erythrocyte sedimentation rate"}},
		{Name: "Total Testosterone", Category: CategoryEndocrineOther, Aliases: []string{"Testosterone, total", "Testosterone total", "Testosterone"}},
	}
}

// CatalogByCategory groups Catalog by category, keeping catalog order.
func CatalogByCategory() []CatalogGroup {
	var groups []CatalogGroup

	index := make(map[string]int)

	for _, test := range Catalog() {
		i, ok := index[test.Category]
		if !ok {
			i = len(groups)
			index[test.Category] = i
			groups = append(groups, CatalogGroup{Category: test.Category})
		}

		groups[i].Tests = append(groups[i].Tests, test)
	}

	return groups
}

// specimenWords are dropped from the end of a name before matching.
var specimenWords = []string{"serum", "plasma", "blood", "whole blood"}

// Builtin is an offline matcher over Catalog. Names it cannot place are left
// out of the reply.
type Builtin struct {
	index map[string]string
}

// NewBuiltin indexes Catalog by folded name and alias.
func NewBuiltin() *Builtin {
	b := &Builtin{index: make(map[string]string)}

	for _, test := range Catalog() {
		b.add(test.Name, test.Name)

		for _, alias := range test.Aliases {
			b.add(alias, test.Name)
		}
	}

	return b
}

func (b *Builtin) add(spelling, canonical string) {
	key := matchKey(spelling)
	if _, ok := b.index[key]; !ok {
		b.index[key] = canonical
	}
}

// Normalize matches every name against the catalog.
func (b *Builtin) Normalize(ctx context.Context, names []string) (map[string]string, error) {
	out := make(map[string]string, len(names))

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if canonical, ok := b.Match(name); ok {
			out[name] = canonical
		}
	}

	logger.Debug("Matched names against the builtin catalog", "names", len(names), "matched", len(out))

	return out, nil
}

// Match returns the canonical name for raw. The whole name is tried first.
// For a name with a parenthesised qualifier, one side may name the test only
// when the other side is empty, a specimen word, or names the same test.
// Qualifiers such as "(Free)" or "(Urine)" change the analyte and leave the
// name unmatched.
func (b *Builtin) Match(raw string) (string, bool) {
	if canonical, ok := b.lookup(raw); ok {
		return canonical, true
	}

	outside, inside, ok := splitQualifier(raw)
	if !ok {
		return "", false
	}

	outsideName, outsideOK := b.lookup(outside)
	insideName, insideOK := b.lookup(inside)

	switch {
	case outsideOK && insideOK:
		if outsideName == insideName {
			return outsideName, true
		}
	case outsideOK:
		if isNeutral(inside) {
			return outsideName, true
		}
	case insideOK:
		if isNeutral(outside) {
			return insideName, true
		}
	}

	return "", false
}

// lookup matches text against the index, also without a trailing specimen
// word.
func (b *Builtin) lookup(text string) (string, bool) {
	key := matchKey(text)
	if key == "" {
		return "", false
	}

	if canonical, ok := b.index[key]; ok {
		return canonical, true
	}

	for _, word := range specimenWords {
		trimmed := strings.TrimSuffix(key, matchKey(word))
		if trimmed == key || trimmed == "" {
			continue
		}

		if canonical, ok := b.index[trimmed]; ok {
			return canonical, true
		}
	}

	return "", false
}

func splitQualifier(raw string) (outside, inside string, ok bool) {
	open := strings.Index(raw, "(")
	closing := strings.LastIndex(raw, ")")

	if open < 0 || closing <= open {
		return "", "", false
	}

	return raw[:open] + raw[closing+1:], raw[open+1 : closing], true
}

// isNeutral reports whether text adds nothing to a test name: it is empty
// or only names a specimen.
func isNeutral(text string) bool {
	key := matchKey(text)
	if key == "" {
		return true
	}

	for _, word := range specimenWords {
		if key == matchKey(word) {
			return true
		}
	}

	return false
}

// matchKey folds case and keeps only letters and digits, so "M.C.V",
// "m c v" and "MCV" share a key.
func matchKey(s string) string {
	folded := cases.Fold().String(s)

	var sb strings.Builder

	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}

	return sb.String()
}
