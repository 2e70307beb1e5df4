// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package profile

// EvolutionCategoryMilestone is the category that bumps the milestone
// counter when an event is appended.
const EvolutionCategoryMilestone = "milestone"

// AppendEvolution records a timeline event on the profile. Events carry a
// date, a short description and a category; events in the milestone
// category additionally increment evolution.milestone_count. The profile
// must have been through EnsureComplete first.
func AppendEvolution(profile map[string]interface{}, date, event, category string) {
	evolution, ok := profile[SectionEvolution].(map[string]interface{})
	if !ok {
		evolution = defaultsFor(SectionEvolution)
		profile[SectionEvolution] = evolution
	}

	timeline, _ := evolution["timeline"].([]interface{})
	timeline = append(timeline, map[string]interface{}{
		"date":     date,
		"event":    event,
		"category": category,
	})
	evolution["timeline"] = timeline

	if category == EvolutionCategoryMilestone {
		evolution["milestone_count"] = milestoneCount(evolution) + 1
	}
}

// milestoneCount reads the counter tolerating the numeric types JSON
// decoding produces.
func milestoneCount(evolution map[string]interface{}) int {
	switch n := evolution["milestone_count"].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
