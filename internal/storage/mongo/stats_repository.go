package mongo

import (
	"context"
	"time"

	"github.com/IgorGrieder/shortlinks/internal/infrastructure/db"
	"github.com/IgorGrieder/shortlinks/internal/processing/clicks"
	"github.com/IgorGrieder/shortlinks/internal/processing/links"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ClickStatsRepository struct {
	coll *mongo.Collection
}

type clickDailyDoc struct {
	Key   string `bson:"key"`
	Date  string `bson:"date"` // YYYY-MM-DD (UTC)
	Count int64  `bson:"count"`
}

func NewClickStatsRepository(m *db.Mongo) (*ClickStatsRepository, error) {
	repo := &ClickStatsRepository{coll: m.Collection("clicks_daily")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := repo.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_key_date"),
	})
	if err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *ClickStatsRepository) IncDaily(ctx context.Context, key string, at time.Time) error {
	return r.AddDaily(ctx, []clicks.Increment{{Key: key, Day: at, Count: 1}})
}

// AddDaily upserts every increment in one unordered bulk write.
func (r *ClickStatsRepository) AddDaily(ctx context.Context, incs []clicks.Increment) error {
	if len(incs) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(incs))
	for _, inc := range incs {
		date := dateString(inc.Day)
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"key": inc.Key, "date": date}).
			SetUpdate(bson.M{"$inc": bson.M{"count": inc.Count}}).
			SetUpsert(true),
		)
	}

	_, err := r.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	return err
}

func (r *ClickStatsRepository) GetDaily(ctx context.Context, key string, from, to time.Time) ([]links.DailyCount, error) {
	cur, err := r.coll.Find(
		ctx,
		bson.M{
			"key": key,
			"date": bson.M{
				"$gte": dateString(from),
				"$lte": dateString(to),
			},
		},
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []links.DailyCount
	for cur.Next(ctx) {
		var doc clickDailyDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, links.DailyCount{
			Date:  doc.Date,
			Count: doc.Count,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ClickStatsRepository) DeleteByKey(ctx context.Context, key string) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"key": key})
	return err
}

func dateString(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
