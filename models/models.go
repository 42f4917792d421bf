package models

// MP is a monitored Member of Parliament, loaded from the knowledge file.
type MP struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

// Article is a single news article discovered for an MP.
type Article struct {
	MPName          string `json:"mp_name"`
	Title           string `json:"article_title"`
	URL             string `json:"article_url"`
	PublicationDate string `json:"publication_date"`
	SourceName      string `json:"source_name"`
	Summary         string `json:"article_summary"`
}

// MPSearchResult is the structured output of a single-MP search run.
type MPSearchResult struct {
	MPName   string          `json:"mp_name"`
	Country  string          `json:"country"`
	Articles []SearchArticle `json:"articles"`
}

// SearchArticle is an article as reported by the search agent, before it is
// flattened into an Article record.
type SearchArticle struct {
	Title           string `json:"title"`
	URL             string `json:"url"`
	PublicationDate string `json:"publication_date"`
	Source          string `json:"source"`
	Summary         string `json:"summary"`
}

// SearchResults is the aggregated phase-1 artifact persisted to disk.
type SearchResults struct {
	ResearchList []Article `json:"research_list"`
	MPCount      int       `json:"mp_count"`
	SearchDate   string    `json:"search_date"`
	Timeframe    string    `json:"timeframe"`
}

// FilteredItem is an article that survived the relevance filter.
type FilteredItem struct {
	MPName          string `json:"mp_name"`
	Title           string `json:"article_title"`
	URL             string `json:"article_url"`
	PublicationDate string `json:"publication_date"`
	SourceName      string `json:"source_name"`
	Summary         string `json:"article_summary"`
	RelevanceScore  int    `json:"relevance_score"`
	InclusionReason string `json:"inclusion_reason"`
}

// FilteredList is the structured output of the content filter stage.
type FilteredList struct {
	FilteredItems []FilteredItem `json:"filtered_items"`
}

// ContextItem is a filtered article enriched with background context.
type ContextItem struct {
	MPName                string `json:"mp_name"`
	Title                 string `json:"article_title"`
	URL                   string `json:"article_url"`
	NewsTheme             string `json:"news_theme"`
	BackgroundContext     string `json:"background_context"`
	PoliticalSignificance string `json:"political_significance"`
	CollaborationAngles   string `json:"collaboration_angles"`
}

// ContextList is the structured output of the context research stage.
type ContextList struct {
	ContextualizedItems []ContextItem `json:"contextualized_items"`
}

// RunInputs carries the standardized, date-aware inputs shared by every phase.
type RunInputs struct {
	MPList     []MP   `json:"mp_list"`
	Today      string `json:"today"`
	Timeframe  string `json:"timeframe"`
	DateRange  string `json:"date_range"`
	TeamEmail  string `json:"team_email"`
	FocusAreas string `json:"focus_areas"`
}
