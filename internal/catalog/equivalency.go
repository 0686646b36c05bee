// Package catalog provides the static intervention-category equivalency
// table and a lookup wrapper over the practice's supplied code catalog.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mathiasdan123/billalloc/internal/model"
)

// builtin maps each intervention category to the codes that can legitimately
// represent it, in preference order. Order matters: it is the stable
// tiebreaker when rates are equal or unknown.
var builtin = map[string][]model.EquivalentCode{
	"therapeutic_exercise": {
		{Code: "97110", Justification: "Therapeutic exercise to develop strength, endurance, range of motion, and flexibility"},
		{Code: "97530", Justification: "Dynamic therapeutic activities when exercise is performed functionally"},
	},
	"therapeutic_activities": {
		{Code: "97530", Justification: "Use of dynamic activities to improve functional performance"},
	},
	"manual_therapy": {
		{Code: "97140", Justification: "Manual therapy techniques: mobilization, manipulation, manual traction"},
	},
	"neuromuscular_reeducation": {
		{Code: "97112", Justification: "Re-education of movement, balance, coordination, kinesthetic sense, posture"},
		{Code: "97110", Justification: "Therapeutic exercise when the focus is strength supporting motor control"},
	},
	"adl_training": {
		{Code: "97535", Justification: "Self-care and home-management training, ADL and compensatory training"},
		{Code: "97530", Justification: "Therapeutic activities when ADL work is performed as dynamic functional tasks"},
	},
	"gait_training": {
		{Code: "97116", Justification: "Gait training including stair climbing"},
		{Code: "97112", Justification: "Neuromuscular re-education when gait work targets balance and proprioception"},
	},
	"cognitive_training": {
		{Code: "97129", Justification: "Therapeutic interventions focusing on cognitive function, initial 15 minutes"},
		{Code: "97130", Justification: "Cognitive function intervention, each additional 15 minutes"},
	},
	"group_therapy": {
		{Code: "97150", Justification: "Therapeutic procedures in a group setting"},
	},
}

// CodesFor returns the ordered equivalency class for a category. Unknown
// categories yield an empty slice, never an error: callers treat it as "no
// substitutable codes known".
func CodesFor(category string) []model.EquivalentCode {
	codes := builtin[category]
	out := make([]model.EquivalentCode, len(codes))
	copy(out, codes)
	return out
}

// Categories returns all known category keys. Order is not specified.
func Categories() []string {
	keys := make([]string, 0, len(builtin))
	for k := range builtin {
		keys = append(keys, k)
	}
	return keys
}

// extensionsFile is the on-disk YAML structure for category extensions.
type extensionsFile struct {
	Categories map[string][]model.EquivalentCode `yaml:"categories"`
}

// LoadExtensions merges category definitions from a YAML file into the
// builtin table. A category present in the file replaces the builtin entry
// wholesale; the table is versioned as a whole, no partial merge.
func LoadExtensions(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read catalog extensions: %w", err)
	}
	var ext extensionsFile
	if err := yaml.Unmarshal(data, &ext); err != nil {
		return fmt.Errorf("parse catalog extensions: %w", err)
	}
	for key, codes := range ext.Categories {
		if len(codes) == 0 {
			return fmt.Errorf("category %q has no codes", key)
		}
		for _, c := range codes {
			if c.Code == "" {
				return fmt.Errorf("category %q has an entry with no code", key)
			}
		}
		builtin[key] = codes
	}
	return nil
}
