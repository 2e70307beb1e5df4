// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package localization applies passive (inferred) and explicit
// (user-confirmed) locale updates to the profile's localization section.
// Once a user confirms their location, passive updates can no longer touch
// it until the next explicit update.
package localization

import (
	_ "embed"
	"log"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mnemos-ai/mnemos-mcp/internal/profile"
)

//go:embed regions.yaml
var regionsYAML []byte

// RegionInfo describes a country entry in the lookup table.
type RegionInfo struct {
	Name        string `yaml:"name"`
	DialectHint string `yaml:"dialect_hint"`
	Timezone    string `yaml:"timezone"`
}

var (
	regionsOnce sync.Once
	regions     map[string]RegionInfo
)

func regionTable() map[string]RegionInfo {
	regionsOnce.Do(func() {
		regions = make(map[string]RegionInfo)
		if err := yaml.Unmarshal(regionsYAML, &regions); err != nil {
			log.Printf("localization: failed to parse region table: %v", err)
		}
	})
	return regions
}

// LookupRegion returns the region info for an ISO 3166-1 alpha-2 country
// code, case-insensitive.
func LookupRegion(countryCode string) (RegionInfo, bool) {
	info, ok := regionTable()[strings.ToUpper(countryCode)]
	return info, ok
}

// UpdatePassive applies a language-tag-inferred locale update. It is a
// no-op when the localization section is user-confirmed, when the tag is
// empty, or when the tag matches what is already stored. Returns true when
// the profile was changed.
func UpdatePassive(p map[string]interface{}, langTag string) bool {
	loc := localizationSection(p)

	if confirmed, _ := loc["user_confirmed"].(bool); confirmed {
		return false
	}
	langTag = strings.TrimSpace(langTag)
	if langTag == "" {
		return false
	}
	if stored, _ := loc["language"].(string); stored == langTag {
		return false
	}

	loc["language"] = langTag

	if cc := countryFromTag(langTag); cc != "" {
		loc["country_code"] = cc
		if info, ok := LookupRegion(cc); ok {
			loc["dialect_hint"] = info.DialectHint
			loc["timezone"] = info.Timezone
		}
	}

	return true
}

// UpdateExplicit applies a user-confirmed location. It always overwrites,
// sets the confirmed flag, and resolves the dialect hint and timezone from
// the region table. Unknown country codes are stored as given with the
// resolution fields left alone.
func UpdateExplicit(p map[string]interface{}, countryCode, region string) {
	loc := localizationSection(p)

	cc := strings.ToUpper(strings.TrimSpace(countryCode))
	loc["country_code"] = cc
	loc["region"] = region
	loc["user_confirmed"] = true

	if info, ok := LookupRegion(cc); ok {
		loc["dialect_hint"] = info.DialectHint
		loc["timezone"] = info.Timezone
	} else {
		log.Printf("localization: no region table entry for %q", cc)
	}
}

// countryFromTag extracts the region subtag from a BCP 47 language tag,
// e.g. "es-CO" -> "CO". Returns "" when the tag carries no region.
func countryFromTag(langTag string) string {
	normalized := strings.ReplaceAll(langTag, "_", "-")
	parts := strings.Split(normalized, "-")
	for _, part := range parts[1:] {
		if len(part) == 2 && isAlpha(part) {
			return strings.ToUpper(part)
		}
	}
	return ""
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// localizationSection returns the profile's localization section, repairing
// a missing or malformed one so mutators always have a map to write into.
func localizationSection(p map[string]interface{}) map[string]interface{} {
	loc, ok := p[profile.SectionLocalization].(map[string]interface{})
	if !ok {
		loc = map[string]interface{}{}
		p[profile.SectionLocalization] = loc
	}
	return loc
}
