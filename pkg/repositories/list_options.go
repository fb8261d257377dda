package repositories

import (
	"fmt"
	"strings"

	"github.com/larasormani21/db-SemTUI/pkg/apperrors"
)

// ListOptions controls filtering and ordering of list queries.
type ListOptions struct {
	// Search is a case-insensitive substring matched against the name.
	Search string
	// SortBy must be one of the repository's sortable keys. Empty uses the default.
	SortBy string
	// SortDir is "asc" or "desc". Empty means ascending.
	SortDir string
}

// orderBy validates opts against an allow-list mapping sort keys to SQL
// expressions and renders the ORDER BY clause. Only allow-listed text reaches
// the query.
func orderBy(opts ListOptions, allowed map[string]string, defaultKey string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(opts.SortBy))
	if key == "" {
		key = defaultKey
	}
	expr, ok := allowed[key]
	if !ok {
		return "", fmt.Errorf("%w: sort by %q", apperrors.ErrInvalidSort, opts.SortBy)
	}

	var dir string
	switch strings.ToLower(strings.TrimSpace(opts.SortDir)) {
	case "", "asc":
		dir = "ASC"
	case "desc":
		dir = "DESC"
	default:
		return "", fmt.Errorf("%w: sort direction %q", apperrors.ErrInvalidSort, opts.SortDir)
	}

	// id breaks ties so paging through equal names is stable
	if expr == "id" {
		return fmt.Sprintf("ORDER BY id %s", dir), nil
	}
	return fmt.Sprintf("ORDER BY %s %s, id %s", expr, dir, dir), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE/ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
