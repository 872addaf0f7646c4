package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	darshanserrors "darshan/internal/darshans/errors"
	"darshan/pkg/config"
	"darshan/pkg/model"
)

const (
	DarshanTypesCollection = "Darshan_types"
)

type DarshanRepository interface {
	Create(ctx context.Context, dt *model.DarshanType) error
	FindByID(ctx context.Context, id string) (*model.DarshanType, error)
	FindByTemple(ctx context.Context, templeID string) ([]*model.DarshanType, error)
}

type mongoDarshanRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoDarshanRepository(cfg *config.Config) DarshanRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoDarshanRepository{
		cfg:        cfg,
		collection: db.Collection(DarshanTypesCollection),
	}
}

func (r *mongoDarshanRepository) Create(ctx context.Context, dt *model.DarshanType) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	dt.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, dt)
	if err != nil {
		return fmt.Errorf("failed to create darshan type: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		dt.ID = oid.Hex()
	}
	return nil
}

func (r *mongoDarshanRepository) FindByID(ctx context.Context, id string) (*model.DarshanType, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", darshanserrors.ErrInvalidID, id)
	}

	var dt model.DarshanType
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&dt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, darshanserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find darshan type: %w", err)
	}

	return &dt, nil
}

func (r *mongoDarshanRepository) FindByTemple(ctx context.Context, templeID string) ([]*model.DarshanType, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"temple_id": templeID, "active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find darshan types: %w", err)
	}
	defer cursor.Close(ctx)

	var types []*model.DarshanType
	if err = cursor.All(ctx, &types); err != nil {
		return nil, fmt.Errorf("failed to decode darshan types: %w", err)
	}

	return types, nil
}

// withTimeout wraps the context with a timeout unless already inside a
// transaction: wrapping a SessionContext would break transaction
// semantics, so it is returned unchanged with a no-op cancel.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}
