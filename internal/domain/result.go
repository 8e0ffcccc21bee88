package domain

import "time"

// RunResult summarizes one pipeline execution. It is returned and
// logged at run end, never persisted.
type RunResult struct {
	Started  time.Time
	Finished time.Time

	Sources  int
	Fetched  int
	Deduped  int
	Scored   int
	Selected int

	// Report is empty when nothing cleared the threshold; that is the
	// legitimate "nothing relevant today" outcome, not an error.
	Report    string
	Published bool

	SourceErrors []string
	ScoreErrors  []string
	PublishError string
	Warnings     []string
}

// TotalFailure reports whether the run never reached a publish
// decision: every source failed, or a non-empty report could not be
// delivered after retries.
func (r RunResult) TotalFailure() bool {
	if r.Sources > 0 && len(r.SourceErrors) >= r.Sources {
		return true
	}
	return r.Report != "" && !r.Published
}
