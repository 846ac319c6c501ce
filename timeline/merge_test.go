package timeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CrestNiraj12/twiddle/domain"
)

func TestIDLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"9", "10", true},
		{"10", "9", false},
		{"109", "110", true},
		{"110", "110", false},
		{"", "1", true},
	}
	for _, tc := range tests {
		require.Equalf(t, tc.want, idLess(tc.a, tc.b), "idLess(%q, %q)", tc.a, tc.b)
	}
}

func TestNormalize_DropsEmptyAndDuplicateIDs(t *testing.T) {
	in := append(posts(2, 3, 2, 1), domain.Post{Text: "no id"})
	require.Equal(t, []string{"3", "2", "1"}, ids(normalize(in)))
	require.Equal(t, "2", in[0].ID, "input must not be reordered")
}

func TestNormalize_TiesBrokenByIDDescending(t *testing.T) {
	a, b := post(7), post(7)
	a.ID, b.ID = "99", "100"
	require.Equal(t, []string{"100", "99"}, ids(normalize([]domain.Post{a, b})))
}

func TestMerge_KeepsStoredCopyOnConflict(t *testing.T) {
	existing := posts(5, 4)
	updated := post(4)
	updated.FavoriteCount = 99

	merged, added := merge(existing, []domain.Post{updated, post(3)})
	require.Equal(t, []string{"5", "4", "3"}, ids(merged))
	require.Equal(t, []string{"3"}, ids(added))
	require.Zero(t, merged[1].FavoriteCount)
}

func TestMerge_NothingNewReturnsExisting(t *testing.T) {
	existing := posts(5, 4)
	merged, added := merge(existing, posts(4, 5))
	require.Nil(t, added)
	require.Equal(t, ids(existing), ids(merged))
}

func TestNewestID(t *testing.T) {
	require.Equal(t, "100", newestID(posts(99, 100, 7)))
	require.Equal(t, "", newestID(nil))
}
