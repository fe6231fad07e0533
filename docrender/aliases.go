package docrender

import (
	"fmt"
	"os"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"
)

// AliasTable maps a primary context key to the extra names it is also
// published under, so that older and newer templates can share one context.
type AliasTable map[string][]string

// DefaultAliases returns the built-in alias table. The caller owns the
// returned map.
func DefaultAliases() AliasTable {
	return AliasTable{
		"umr":             {"UMR"},
		"name":            {"NAME"},
		"age":             {"AGE", "age_gender"},
		"ad1":             {"AD1"},
		"ad2":             {"AD2"},
		"mob":             {"MOB"},
		"admision":        {"ADMISION", "ADMISSION_NUMBER", "ADMISSION_NO", "admission_number"},
		"ward":            {"WARD"},
		"admit":           {"ADMIT", "admission_date"},
		"discharge":       {"DISCHARGE", "discharge_date"},
		"Diagnosis":       {"DIAGNOSIS"},
		"ChiefComplaints": {"CHIEFCOMPLAINTS", "CHIEF_COMPLAINTS"},
		"Riskfactors":     {"RISKFACTORS", "RISK_FACTORS"},
		"Course":          {"COURSE"},
		"SPo2":            {"SPO2"},
		"current_date":    {"CURRENT_DATE"},
		"current_time":    {"CURRENT_TIME"},
	}
}

// Apply copies every aliased value in ctx to its alias names. Keys that are
// already set are left alone.
func (t AliasTable) Apply(ctx Context) {
	for _, primary := range t.primaries() {
		value, ok := ctx[primary]
		if !ok {
			continue
		}
		for _, alias := range t[primary] {
			if _, taken := ctx[alias]; !taken {
				ctx[alias] = value
			}
		}
	}
}

// primaries returns the table keys in a fixed order so Apply is
// deterministic when two primaries share an alias.
func (t AliasTable) primaries() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge adds the aliases of other to t, skipping duplicates.
func (t AliasTable) Merge(other AliasTable) {
	for primary, aliases := range other {
		for _, alias := range aliases {
			if !slices.Contains(t[primary], alias) {
				t[primary] = append(t[primary], alias)
			}
		}
	}
}

type aliasFile struct {
	Aliases AliasTable `yaml:"aliases"`
}

// LoadAliasTable reads extra aliases from a YAML file of the form
//
//	aliases:
//	  admision: [IP_NO]
//	  name: [PATIENT_NAME]
//
// and returns them merged over DefaultAliases. An empty path returns the
// defaults.
func LoadAliasTable(path string) (AliasTable, error) {
	table := DefaultAliases()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alias file: %w", err)
	}
	var file aliasFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse alias file %s: %w", path, err)
	}
	table.Merge(file.Aliases)
	return table, nil
}
