// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package profile

import (
	"fmt"
	"log"
)

// EnsureComplete upgrades a raw stored profile to the current schema. Every
// section defined by the schema is present in the result; existing leaf
// values are preserved and only missing leaves are filled with defaults.
// When a section is present but not mapping-shaped, the whole input is
// salvage-merged: the full default profile overlaid with the raw top-level
// keys verbatim, so prior user data is never discarded wholesale.
//
// The result's metadata.version is always CurrentSchemaVersion, regardless
// of which path was taken. Passing nil yields a fresh default profile.
func EnsureComplete(raw map[string]interface{}) map[string]interface{} {
	if raw == nil {
		p := DefaultProfile()
		stampVersion(p)
		return p
	}

	merged, err := mergeSections(raw)
	if err != nil {
		log.Printf("profile migration: %v; applying salvage merge", err)
		merged = salvageMerge(raw)
	}

	stampVersion(merged)
	return merged
}

// mergeSections fills missing sections and leaves from the defaults table.
// Top-level keys outside the schema are carried over unchanged.
func mergeSections(raw map[string]interface{}) (result map[string]interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("structural validation panicked: %v", r)
		}
	}()

	merged := make(map[string]interface{}, len(raw)+len(sectionDefaults))

	for _, s := range sectionDefaults {
		existing, ok := raw[s.name]
		if !ok {
			merged[s.name] = s.defaults()
			continue
		}

		existingMap, isMap := existing.(map[string]interface{})
		if !isMap {
			return nil, fmt.Errorf("section %q is not mapping-shaped (%T)", s.name, existing)
		}

		merged[s.name] = deepMerge(s.defaults(), existingMap)
	}

	// Legacy or experimental top-level keys survive migration untouched.
	for key, value := range raw {
		if _, known := merged[key]; !known {
			merged[key] = value
		}
	}

	return merged, nil
}

// deepMerge overlays existing values onto defaults, recursing where both
// sides are mapping-shaped. Existing leaves always win; defaults only fill
// holes.
func deepMerge(defaults, existing map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(defaults)+len(existing))

	for key, defaultValue := range defaults {
		existingValue, ok := existing[key]
		if !ok {
			out[key] = defaultValue
			continue
		}

		defaultMap, defaultIsMap := defaultValue.(map[string]interface{})
		existingMap, existingIsMap := existingValue.(map[string]interface{})
		if defaultIsMap && existingIsMap {
			out[key] = deepMerge(defaultMap, existingMap)
			continue
		}

		out[key] = existingValue
	}

	for key, value := range existing {
		if _, known := out[key]; !known {
			out[key] = value
		}
	}

	return out
}

// salvageMerge starts from the full default profile and overlays every raw
// top-level key verbatim. Used when structural validation fails; it trades
// strict shape for keeping whatever user data exists.
func salvageMerge(raw map[string]interface{}) map[string]interface{} {
	merged := DefaultProfile()
	for key, value := range raw {
		merged[key] = value
	}
	return merged
}

// stampVersion forces metadata.version to the current schema version,
// repairing a non-mapping metadata section if salvage left one behind.
func stampVersion(profile map[string]interface{}) {
	metadata, ok := profile[SectionMetadata].(map[string]interface{})
	if !ok {
		metadata = defaultsFor(SectionMetadata)
		profile[SectionMetadata] = metadata
	}
	metadata["version"] = CurrentSchemaVersion
}

// defaultsFor returns the default section body for a schema section name.
func defaultsFor(name string) map[string]interface{} {
	for _, s := range sectionDefaults {
		if s.name == name {
			return s.defaults()
		}
	}
	return map[string]interface{}{}
}
