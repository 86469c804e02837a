package ingest

// DocFailure records one document the coordinator skipped, with the reason.
// A failed document never aborts the rest of its batch.
type DocFailure struct {
	Doc   string `json:"doc"`
	Title string `json:"title"`
	Err   string `json:"error"`
}

// StoreFailure records a vector store call that failed for a source group.
type StoreFailure struct {
	Source string `json:"source"`
	Chunks int    `json:"chunks"`
	Err    string `json:"error"`
}

// Report is the outcome of one batch: the successes and the failures as an
// explicit pair, never an all-or-nothing result.
type Report struct {
	DocsIngested int            `json:"docs_ingested"`
	DocsEmpty    int            `json:"docs_empty"`
	ChunksAdded  int            `json:"chunks_added"`
	BySource     map[string]int `json:"by_source"`
	Failures     []DocFailure   `json:"failures,omitempty"`
	StoreErrors  []StoreFailure `json:"store_errors,omitempty"`
}

// Merge folds another report into this one.
func (r *Report) Merge(other Report) {
	r.DocsIngested += other.DocsIngested
	r.DocsEmpty += other.DocsEmpty
	r.ChunksAdded += other.ChunksAdded
	if r.BySource == nil {
		r.BySource = make(map[string]int)
	}
	for src, n := range other.BySource {
		r.BySource[src] += n
	}
	r.Failures = append(r.Failures, other.Failures...)
	r.StoreErrors = append(r.StoreErrors, other.StoreErrors...)
}
