package nlu

/* -------- Request -------- */

// AnalyzeRequest is the body of POST /v1/analyze.
type AnalyzeRequest struct {
	Text     string   `json:"text"`
	Features Features `json:"features"`
	Language string   `json:"language,omitempty"`
	// ReturnAnalyzedText is left off: descriptions are already on hand.
}

// Features selects what the service extracts. Empty option structs still
// enable the feature, so they are pointers and omitted when nil.
type Features struct {
	Categories *CategoriesOptions `json:"categories,omitempty"`
	Keywords   *KeywordsOptions   `json:"keywords,omitempty"`
	Concepts   *ConceptsOptions   `json:"concepts,omitempty"`
}

type CategoriesOptions struct {
	Limit int `json:"limit,omitempty"`
}

type KeywordsOptions struct {
	Sentiment bool `json:"sentiment,omitempty"`
	Emotion   bool `json:"emotion,omitempty"`
	Limit     int  `json:"limit,omitempty"`
}

type ConceptsOptions struct {
	Limit int `json:"limit,omitempty"`
}

/* -------- Response -------- */

// AnalyzeResponse holds whichever feature results were requested.
type AnalyzeResponse struct {
	Language   string     `json:"language"`
	Usage      Usage      `json:"usage"`
	Categories []Category `json:"categories"`
	Keywords   []Keyword  `json:"keywords"`
	Concepts   []Concept  `json:"concepts"`
}

type Usage struct {
	TextUnits      int `json:"text_units"`
	TextCharacters int `json:"text_characters"`
	Features       int `json:"features"`
}

// Category label is a hierarchical path such as "/education/math".
type Category struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type Keyword struct {
	Text      string     `json:"text"`
	Relevance float64    `json:"relevance"`
	Count     int        `json:"count"`
	Sentiment *Sentiment `json:"sentiment,omitempty"`
	Emotion   *Emotion   `json:"emotion,omitempty"`
}

type Sentiment struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

type Emotion struct {
	Sadness float64 `json:"sadness"`
	Joy     float64 `json:"joy"`
	Fear    float64 `json:"fear"`
	Disgust float64 `json:"disgust"`
	Anger   float64 `json:"anger"`
}

type Concept struct {
	Text            string  `json:"text"`
	Relevance       float64 `json:"relevance"`
	DBpediaResource string  `json:"dbpedia_resource,omitempty"`
}

// errorResponse is the body Watson returns on non-2xx statuses.
type errorResponse struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}
