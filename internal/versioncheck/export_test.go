package versioncheck

// CachedSummaries returns how many helper summaries the run behind res
// memoized.
func CachedSummaries(res *Result) int {
	return res.summaries.Len()
}
