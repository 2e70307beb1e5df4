// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package profile persists the versioned per-user profile document and
// migrates stored profiles forward to the current schema on load.
package profile

import "time"

// CurrentSchemaVersion is stamped into metadata.version after every
// migration pass.
const CurrentSchemaVersion = "2.3.0"

// Section name constants
const (
	SectionMetadata               = "metadata"
	SectionIdentity               = "identity"
	SectionPersonalityAdaptation  = "personality_adaptation"
	SectionPsychologicalState     = "psychological_state"
	SectionValuesGoals            = "values_goals"
	SectionLocalization           = "localization"
	SectionSupportPreferences     = "support_preferences"
	SectionCopingMechanisms       = "coping_mechanisms"
	SectionMemoryConsent          = "memory_consent"
	SectionClinicalSafety         = "clinical_safety"
	SectionEvolution              = "evolution"
)

// sectionDefault pairs a top-level section name with its default producer.
// The table is the single source of truth for the schema: migration iterates
// it in order instead of reflecting over struct fields.
type sectionDefault struct {
	name     string
	defaults func() map[string]interface{}
}

var sectionDefaults = []sectionDefault{
	{SectionMetadata, func() map[string]interface{} {
		return map[string]interface{}{
			"version":    CurrentSchemaVersion,
			"created_at": time.Now().UTC().Format(time.RFC3339),
		}
	}},
	{SectionIdentity, func() map[string]interface{} {
		return map[string]interface{}{
			"name":           "",
			"preferred_name": "",
			"pronouns":       "",
			"age_range":      "",
		}
	}},
	{SectionPersonalityAdaptation, func() map[string]interface{} {
		return map[string]interface{}{
			"interaction_style": "balanced",
			"humor_level":       "moderate",
			"formality":         "casual",
			"emoji_usage":       "occasional",
			"response_length":   "adaptive",
		}
	}},
	{SectionPsychologicalState, func() map[string]interface{} {
		return map[string]interface{}{
			"recent_mood":      "",
			"stress_level":     "",
			"engagement_trend": "stable",
			"last_assessed":    "",
		}
	}},
	{SectionValuesGoals, func() map[string]interface{} {
		return map[string]interface{}{
			"core_values": []interface{}{},
			"aspirations": []interface{}{},
			"focus_areas": []interface{}{},
		}
	}},
	{SectionLocalization, func() map[string]interface{} {
		return map[string]interface{}{
			"language":       "",
			"country_code":   "",
			"region":         "",
			"dialect_hint":   "",
			"timezone":       "",
			"user_confirmed": false,
		}
	}},
	{SectionSupportPreferences, func() map[string]interface{} {
		return map[string]interface{}{
			"preferred_tone":      "warm",
			"advice_vs_listening": "balanced",
			"checkin_frequency":   "weekly",
		}
	}},
	{SectionCopingMechanisms, func() map[string]interface{} {
		return map[string]interface{}{
			"known_strategies": []interface{}{},
			"avoid_topics":     []interface{}{},
		}
	}},
	{SectionMemoryConsent, func() map[string]interface{} {
		return map[string]interface{}{
			"allow_memory_extraction": true,
			"allow_sensitive_storage": false,
			"retention_preference":    "standard",
		}
	}},
	{SectionClinicalSafety, func() map[string]interface{} {
		return map[string]interface{}{
			"risk_flags":         []interface{}{},
			"escalation_contact": "",
			"last_review":        "",
		}
	}},
	{SectionEvolution, func() map[string]interface{} {
		return map[string]interface{}{
			"timeline":        []interface{}{},
			"milestone_count": 0,
		}
	}},
}

// DefaultProfile returns a fully-populated profile with every section at its
// defaults.
func DefaultProfile() map[string]interface{} {
	p := make(map[string]interface{}, len(sectionDefaults))
	for _, s := range sectionDefaults {
		p[s.name] = s.defaults()
	}
	return p
}

// SectionNames returns the schema's top-level section names in order.
func SectionNames() []string {
	names := make([]string, 0, len(sectionDefaults))
	for _, s := range sectionDefaults {
		names = append(names, s.name)
	}
	return names
}
