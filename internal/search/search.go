package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultCase ResultType = "case"
	ResultPost ResultType = "post"
	ResultTip  ResultType = "tip"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type    ResultType `json:"type"`
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Snippet string     `json:"snippet"`
	CaseID  string     `json:"caseId"`
	Kind    string     `json:"kind,omitempty"`
}

// Query describes a dashboard search request.
type Query struct {
	Text         string
	FilterType   ResultType // empty = all types
	FilterCaseID string
	Limit        int
	Offset       int
	// IncludeTips is set by the caller when the requesting account may read
	// tip messages. Tip results are dropped otherwise.
	IncludeTips bool
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// CaseRecord is the data we index for a case.
type CaseRecord struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Summary   string `json:"summary"`
	Subdomain string `json:"subdomain"`
	Status    string `json:"status"`
}

// PostRecord is the data we index for a spotlight post.
type PostRecord struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	CaseID string `json:"caseId"`
}

// TipRecord is the data we index for a tip or contact message.
type TipRecord struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	CaseID  string `json:"caseId"`
	Kind    string `json:"kind"`
}
