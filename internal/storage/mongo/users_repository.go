package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/IgorGrieder/shortlinks/internal/infrastructure/db"
	"github.com/IgorGrieder/shortlinks/internal/processing/users"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UsersRepository struct {
	coll *mongo.Collection
}

type userDoc struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	Email        string    `bson:"email,omitempty"`
	PasswordHash string    `bson:"passwordHash"`
	CreatedAt    time.Time `bson:"createdAt"`
}

func NewUsersRepository(m *db.Mongo) (*UsersRepository, error) {
	repo := &UsersRepository{coll: m.Collection("users")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := repo.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_username"),
	})
	if err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *UsersRepository) Insert(ctx context.Context, user *users.User) error {
	_, err := r.coll.InsertOne(ctx, userDoc{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt.UTC(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return users.ErrUsernameTaken
	}
	return err
}

func (r *UsersRepository) FindByUsername(ctx context.Context, username string) (*users.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UsersRepository) FindByID(ctx context.Context, id string) (*users.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UsersRepository) findOne(ctx context.Context, filter bson.M) (*users.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, users.ErrUserNotFound
		}
		return nil, err
	}
	return &users.User{
		ID:           doc.ID,
		Username:     doc.Username,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt.UTC(),
	}, nil
}

func (r *UsersRepository) SearchIDsByUsername(ctx context.Context, query string, limit int) ([]string, error) {
	cur, err := r.coll.Find(
		ctx,
		bson.M{"username": primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}},
		options.Find().
			SetProjection(bson.M{"_id": 1}).
			SetSort(bson.D{{Key: "username", Value: 1}}).
			SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cur.Err()
}
