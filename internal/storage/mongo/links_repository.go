package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/IgorGrieder/shortlinks/internal/infrastructure/db"
	"github.com/IgorGrieder/shortlinks/internal/processing/links"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type LinksRepository struct {
	coll *mongo.Collection
}

type linkDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Key        string             `bson:"key"`
	TargetURL  string             `bson:"targetUrl"`
	OwnerID    string             `bson:"ownerId"`
	CreatedAt  time.Time          `bson:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt"`
	ClickCount int64              `bson:"clickCount"`
	Active     bool               `bson:"active"`
	ExpiresAt  *time.Time         `bson:"expiresAt,omitempty"`
}

func NewLinksRepository(m *db.Mongo) (*LinksRepository, error) {
	repo := &LinksRepository{coll: m.Collection("links")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_key"),
		},
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("owner_createdAt_desc"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("createdAt_desc"),
		},
	})
	if err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *LinksRepository) ExistsByKey(ctx context.Context, key string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"key": key}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *LinksRepository) Insert(ctx context.Context, link *links.Link) error {
	doc := linkDoc{
		Key:        link.Key,
		TargetURL:  link.TargetURL,
		OwnerID:    link.OwnerID,
		CreatedAt:  link.CreatedAt.UTC(),
		UpdatedAt:  link.UpdatedAt.UTC(),
		ClickCount: link.ClickCount,
		Active:     link.Active,
		ExpiresAt:  link.ExpiresAt,
	}

	_, err := r.coll.InsertOne(ctx, doc)
	if err == nil {
		return nil
	}

	if mongo.IsDuplicateKeyError(err) {
		return links.ErrKeyTaken
	}

	return err
}

func (r *LinksRepository) FindByKey(ctx context.Context, key string) (*links.Link, error) {
	var doc linkDoc
	err := r.coll.FindOne(ctx, bson.M{"key": key}).Decode(&doc)
	if err == nil {
		return mapLinkDoc(doc), nil
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, links.ErrNotFound
	}

	return nil, err
}

func (r *LinksRepository) ResolveAndIncClick(ctx context.Context, key string, at time.Time) (*links.Link, error) {
	filter := bson.M{
		"key":    key,
		"active": true,
		"$or": bson.A{
			bson.M{"expiresAt": nil},
			bson.M{"expiresAt": bson.M{"$gt": at.UTC()}},
		},
	}

	var doc linkDoc
	err := r.coll.FindOneAndUpdate(
		ctx,
		filter,
		bson.M{"$inc": bson.M{"clickCount": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return mapLinkDoc(doc), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	existing, findErr := r.FindByKey(ctx, key)
	if findErr != nil {
		return nil, findErr
	}
	if existing.Active && existing.ExpiredAt(at) {
		return nil, links.ErrExpired
	}
	return nil, links.ErrNotFound
}

func (r *LinksRepository) Update(ctx context.Context, link *links.Link) error {
	set := bson.M{
		"targetUrl": link.TargetURL,
		"active":    link.Active,
		"updatedAt": link.UpdatedAt.UTC(),
	}
	update := bson.M{"$set": set}
	if link.ExpiresAt != nil {
		set["expiresAt"] = link.ExpiresAt.UTC()
	} else {
		update["$unset"] = bson.M{"expiresAt": ""}
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"key": link.Key}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return links.ErrNotFound
	}
	return nil
}

func (r *LinksRepository) DeleteByKey(ctx context.Context, key string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"key": key})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *LinksRepository) ListByOwner(ctx context.Context, ownerID string, page links.Page) ([]links.Link, error) {
	return r.List(ctx, links.ListFilter{OwnerID: ownerID, Page: page})
}

func (r *LinksRepository) List(ctx context.Context, filter links.ListFilter) ([]links.Link, error) {
	page := filter.Page.Normalize()

	cur, err := r.coll.Find(
		ctx,
		listFilter(filter),
		options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
			SetSkip(int64(page.Offset)).
			SetLimit(int64(page.Limit)),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]links.Link, 0, page.Limit)
	for cur.Next(ctx) {
		var doc linkDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, *mapLinkDoc(doc))
	}
	return out, cur.Err()
}

func listFilter(filter links.ListFilter) bson.M {
	q := bson.M{}
	if filter.OwnerID != "" {
		q["ownerId"] = filter.OwnerID
	}
	if filter.Active != nil {
		q["active"] = *filter.Active
	}
	if filter.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		or := bson.A{
			bson.M{"key": re},
			bson.M{"targetUrl": re},
		}
		if len(filter.SearchOwnerIDs) > 0 {
			or = append(or, bson.M{"ownerId": bson.M{"$in": filter.SearchOwnerIDs}})
		}
		q["$or"] = or
	}
	return q
}

func mapLinkDoc(doc linkDoc) *links.Link {
	out := &links.Link{
		Key:        doc.Key,
		TargetURL:  doc.TargetURL,
		OwnerID:    doc.OwnerID,
		CreatedAt:  doc.CreatedAt.UTC(),
		UpdatedAt:  doc.UpdatedAt.UTC(),
		ClickCount: doc.ClickCount,
		Active:     doc.Active,
	}
	if doc.ExpiresAt != nil {
		t := doc.ExpiresAt.UTC()
		out.ExpiresAt = &t
	}
	return out
}
