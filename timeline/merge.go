package timeline

import (
	"sort"

	"github.com/CrestNiraj12/twiddle/domain"
)

// idLess orders API ids. Mastodon ids are decimal strings that grow over
// time, so a longer id is the larger one; equal lengths compare lexically.
func idLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// newerFirst reports whether a sorts before b in a timeline: later
// CreatedAt first, ties broken by id descending.
func newerFirst(a, b domain.Post) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return idLess(b.ID, a.ID)
}

// normalize drops posts without an id and duplicate ids (first occurrence
// wins) and sorts newest first. The input is not modified.
func normalize(posts []domain.Post) []domain.Post {
	out := make([]domain.Post, 0, len(posts))
	seen := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		if p.ID == "" {
			continue
		}
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return newerFirst(out[i], out[j])
	})
	return out
}

// merge folds incoming into existing. Posts already stored keep their
// stored copy. It returns the merged sequence and the posts that were
// actually added, both newest first.
func merge(existing, incoming []domain.Post) (merged, added []domain.Post) {
	have := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		have[p.ID] = struct{}{}
	}
	for _, p := range normalize(incoming) {
		if _, ok := have[p.ID]; ok {
			continue
		}
		added = append(added, p)
	}
	if len(added) == 0 {
		return existing, nil
	}
	merged = make([]domain.Post, 0, len(existing)+len(added))
	merged = append(merged, existing...)
	merged = append(merged, added...)
	sort.SliceStable(merged, func(i, j int) bool {
		return newerFirst(merged[i], merged[j])
	})
	return merged, added
}

// newestID returns the largest id in posts.
func newestID(posts []domain.Post) string {
	id := ""
	for _, p := range posts {
		if id == "" || idLess(id, p.ID) {
			id = p.ID
		}
	}
	return id
}

func clonePosts(in []domain.Post) []domain.Post {
	if in == nil {
		return nil
	}
	out := make([]domain.Post, len(in))
	for i, p := range in {
		if p.Media != nil {
			p.Media = append([]domain.Media(nil), p.Media...)
		}
		out[i] = p
	}
	return out
}
