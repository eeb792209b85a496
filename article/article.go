package article

import "time"

// Category classifies an article into one of a fixed set of buckets.
type Category string

const (
	CategoryVulnerability Category = "vulnerability"
	CategoryThreat        Category = "threat"
	CategoryBreach        Category = "breach"
	CategoryAdvisory      Category = "advisory"
	CategoryNews          Category = "news"
	CategoryMalware       Category = "malware"
	CategoryExploit       Category = "exploit"
	CategoryOther         Category = "other"
)

// Categories returns every valid category in its fixed declaration order.
func Categories() []Category {
	return []Category{
		CategoryVulnerability,
		CategoryThreat,
		CategoryBreach,
		CategoryAdvisory,
		CategoryNews,
		CategoryMalware,
		CategoryExploit,
		CategoryOther,
	}
}

// ParseCategory returns the Category matching s, and whether s named a
// valid category. Unrecognized values map to CategoryOther.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, true
		}
	}
	return CategoryOther, false
}

// Article is the unit of record: one news item ingested from an RSS feed.
// Articles are never mutated once stored; re-ingestion of the same ID is a
// no-op.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Published   time.Time `json:"published"`
	Source      string    `json:"source"`
	Description string    `json:"description"`
	ScrapedAt   time.Time `json:"scraped_at"`
	Category    Category  `json:"category"`
}

// ScrapeStats summarizes one ingestion run.
type ScrapeStats struct {
	TotalFeeds      int       `json:"total_feeds"`
	SuccessfulFeeds int       `json:"successful_feeds"`
	FailedFeeds     int       `json:"failed_feeds"`
	NewArticles     int       `json:"new_articles"`
	TotalArticles   int       `json:"total_articles"`
	ScrapedAt       time.Time `json:"scraped_at"`
	DurationSeconds float64   `json:"duration_seconds"`
}
