// Package titles derives a human-readable alert title from a transcript.
package titles

import (
	"fmt"
	"strings"
)

type subRule struct {
	keywords []string
	title    string
}

type rule struct {
	keywords []string
	// excludes suppresses the rule when any of these also appear.
	excludes []string
	specific []subRule
	title    string
}

// rules are evaluated in order; the first matching category wins.
var rules = []rule{
	{
		keywords: []string{"fire", "smoke", "burning"},
		specific: []subRule{
			{[]string{"warehouse"}, "Fire Alert at Warehouse Building"},
			{[]string{"kitchen"}, "Kitchen Fire Emergency"},
			{[]string{"elevator"}, "Fire Emergency Near Elevator"},
		},
		title: "Fire Safety Alert",
	},
	{
		keywords: []string{"medical", "hurt", "injured", "चिकित्सा", "सिर दर्द"},
		specific: []subRule{
			{[]string{"chest"}, "Medical Emergency - Chest Pain"},
			{[]string{"head", "सिर"}, "Medical Alert - Head Injury"},
		},
		title: "Medical Emergency Alert",
	},
	{
		keywords: []string{"security", "suspicious", "intruder"},
		specific: []subRule{
			{[]string{"parking"}, "Security Alert - Parking Area"},
			{[]string{"entrance"}, "Security Breach at Main Entrance"},
		},
		title: "Security Alert",
	},
	{
		keywords: []string{"water", "leak", "flooding"},
		specific: []subRule{
			{[]string{"basement"}, "Water Leak in Basement"},
			{[]string{"bathroom"}, "Plumbing Issue - Restroom"},
		},
		title: "Facilities Alert - Water Issue",
	},
	{
		keywords: []string{"power", "electricity", "outage"},
		title:    "Power Outage Alert",
	},
	{
		keywords: []string{"air conditioning", "hvac", "temperature"},
		specific: []subRule{
			{[]string{"conference"}, "HVAC Issue - Conference Room"},
		},
		title: "Climate Control Alert",
	},
	{
		keywords: []string{"false alarm", "never mind", "okay now"},
		title:    "False Alarm Report",
	},
	{
		keywords: []string{"elevator"},
		excludes: []string{"fire"},
		title:    "Elevator Malfunction Alert",
	},
	{
		keywords: []string{"slip", "fall", "accident"},
		title:    "Accident Report - Slip and Fall",
	},
}

// Generate is total and deterministic. Matching is on raw lower-cased
// substrings so non-Latin keywords work without tokenization.
func Generate(transcript, department string) string {
	text := strings.ToLower(transcript)
	for _, r := range rules {
		if !containsAny(text, r.keywords) || containsAny(text, r.excludes) {
			continue
		}
		for _, s := range r.specific {
			if containsAny(text, s.keywords) {
				return s.title
			}
		}
		return r.title
	}
	return fmt.Sprintf("%s Alert", department)
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
