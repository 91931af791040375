package port

// VideoLister lists direct children of a directory whose names contain
// any of the filter substrings. A missing or unreadable directory yields
// an empty list, not an error. No ordering is guaranteed; callers sort.
type VideoLister interface {
	List(dir string, filters []string) []string
}
