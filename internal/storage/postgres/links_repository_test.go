package postgres

import (
	"errors"
	"strings"
	"testing"

	"github.com/IgorGrieder/shortlinks/internal/processing/links"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestBuildListQuery(t *testing.T) {
	active := true

	tests := []struct {
		name        string
		filter      links.ListFilter
		wantParts   []string
		wantArgs    int
		wantNoWhere bool
	}{
		{
			name:        "no filter",
			filter:      links.ListFilter{},
			wantParts:   []string{"ORDER BY created_at DESC", "LIMIT $1 OFFSET $2"},
			wantArgs:    2,
			wantNoWhere: true,
		},
		{
			name:      "owner",
			filter:    links.ListFilter{OwnerID: "u1"},
			wantParts: []string{"WHERE owner_id = $1", "LIMIT $2 OFFSET $3"},
			wantArgs:  3,
		},
		{
			name:   "all filters",
			filter: links.ListFilter{OwnerID: "u1", Active: &active, Search: "exa"},
			wantParts: []string{
				"owner_id = $1",
				"active = $2",
				"(short_key ILIKE $3 OR target_url ILIKE $3)",
				"LIMIT $4 OFFSET $5",
			},
			wantArgs: 5,
		},
		{
			name:   "search with owner matches",
			filter: links.ListFilter{Search: "ali", SearchOwnerIDs: []string{"u1", "u2"}},
			wantParts: []string{
				"(short_key ILIKE $1 OR target_url ILIKE $1 OR owner_id = ANY($2))",
				"LIMIT $3 OFFSET $4",
			},
			wantArgs: 4,
		},
		{
			name:        "owner ids ignored without search",
			filter:      links.ListFilter{SearchOwnerIDs: []string{"u1"}},
			wantParts:   []string{"LIMIT $1 OFFSET $2"},
			wantArgs:    2,
			wantNoWhere: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildListQuery(tt.filter)
			for _, part := range tt.wantParts {
				if !strings.Contains(query, part) {
					t.Errorf("query %q missing %q", query, part)
				}
			}
			if tt.wantNoWhere && strings.Contains(query, "WHERE") {
				t.Errorf("unexpected WHERE in %q", query)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("got %d args, want %d", len(args), tt.wantArgs)
			}
		})
	}
}

func TestBuildListQuery_DefaultPage(t *testing.T) {
	_, args := buildListQuery(links.ListFilter{})
	if args[0] != links.DefaultPageLimit || args[1] != 0 {
		t.Errorf("got limit/offset %v", args)
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`50%_off\`); got != `50\%\_off\\` {
		t.Errorf("got %q", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Error("23505 should be a unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("23503 is a foreign key violation")
	}
	if isUniqueViolation(errors.New("boom")) || isUniqueViolation(nil) {
		t.Error("plain errors are not unique violations")
	}
}
