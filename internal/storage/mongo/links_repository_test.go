package mongo

import (
	"testing"
	"time"

	"github.com/IgorGrieder/shortlinks/internal/processing/links"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestListFilter(t *testing.T) {
	active := false
	q := listFilter(links.ListFilter{OwnerID: "u1", Active: &active, Search: "a.b"})

	if q["ownerId"] != "u1" {
		t.Errorf("got ownerId %v", q["ownerId"])
	}
	if q["active"] != false {
		t.Errorf("got active %v", q["active"])
	}

	or, ok := q["$or"].(bson.A)
	if !ok || len(or) != 2 {
		t.Fatalf("expected $or with 2 clauses, got %v", q["$or"])
	}
	re := or[0].(bson.M)["key"].(primitive.Regex)
	if re.Pattern != `a\.b` || re.Options != "i" {
		t.Errorf("got regex %+v", re)
	}
}

func TestListFilter_SearchOwners(t *testing.T) {
	q := listFilter(links.ListFilter{Search: "ali", SearchOwnerIDs: []string{"u1"}})

	or, ok := q["$or"].(bson.A)
	if !ok || len(or) != 3 {
		t.Fatalf("expected $or with 3 clauses, got %v", q["$or"])
	}
	in := or[2].(bson.M)["ownerId"].(bson.M)["$in"].([]string)
	if len(in) != 1 || in[0] != "u1" {
		t.Errorf("got owner clause %v", or[2])
	}
}

func TestListFilter_Empty(t *testing.T) {
	if q := listFilter(links.ListFilter{}); len(q) != 0 {
		t.Errorf("expected empty filter, got %v", q)
	}
}

func TestMapLinkDoc(t *testing.T) {
	exp := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	l := mapLinkDoc(linkDoc{Key: "abc", TargetURL: "https://example.com", ClickCount: 7, Active: true, ExpiresAt: &exp})

	if l.Key != "abc" || l.ClickCount != 7 || !l.Active {
		t.Errorf("got %+v", l)
	}
	if l.ExpiresAt == nil || l.ExpiresAt.Location() != time.UTC || !l.ExpiresAt.Equal(exp) {
		t.Errorf("got expiry %v", l.ExpiresAt)
	}
}

func TestDateString(t *testing.T) {
	at := time.Date(2025, 1, 1, 23, 30, 0, 0, time.FixedZone("X", -3600))
	if got := dateString(at); got != "2025-01-02" {
		t.Errorf("got %q", got)
	}
}
