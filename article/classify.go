package article

import "strings"

// categoryKeywords is the scoring table for Classify. Order matters: when
// two categories score the same, the first-listed one wins. CategoryNews
// has no keywords and is only ever assigned by upstream data.
var categoryKeywords = []struct {
	category Category
	keywords []string
}{
	{CategoryVulnerability, []string{"cve", "vulnerability", "vuln", "flaw", "weakness"}},
	{CategoryThreat, []string{"threat", "attack", "campaign", "apt", "actor"}},
	{CategoryBreach, []string{"breach", "leak", "data breach", "compromised", "hacked"}},
	{CategoryAdvisory, []string{"advisory", "alert", "warning", "bulletin"}},
	{CategoryMalware, []string{"malware", "ransomware", "trojan", "virus", "backdoor"}},
	{CategoryExploit, []string{"exploit", "poc", "proof of concept", "0-day", "zero-day"}},
}

// Classify picks a category for an article by counting keyword occurrences
// in the lower-cased title and description. Text matching no keywords at
// all classifies as CategoryOther.
func Classify(title, description string) Category {
	text := strings.ToLower(title + " " + description)

	best := CategoryOther
	bestScore := 0
	for _, entry := range categoryKeywords {
		score := 0
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				score++
			}
		}
		if score > bestScore {
			best = entry.category
			bestScore = score
		}
	}

	return best
}
