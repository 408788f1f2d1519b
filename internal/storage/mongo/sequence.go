package mongo

import (
	"context"

	"github.com/IgorGrieder/shortlinks/internal/infrastructure/db"
	"github.com/IgorGrieder/shortlinks/internal/processing/keys"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// The first $inc yields 1, so offsetting by SequenceStart-1 makes the first
// value SequenceStart.
const sequenceOffset = keys.SequenceStart - 1

// KeySequence is a counter document advanced with $inc.
type KeySequence struct {
	coll *mongo.Collection
	name string
}

func NewKeySequence(m *db.Mongo) *KeySequence {
	return &KeySequence{coll: m.Collection("counters"), name: "link_key"}
}

func (s *KeySequence) Next(ctx context.Context) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := s.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": s.name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return sequenceOffset + doc.Seq, nil
}
