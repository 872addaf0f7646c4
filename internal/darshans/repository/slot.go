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
	DarshanSlotsCollection = "Darshan_slots"
)

type SlotRepository interface {
	Create(ctx context.Context, slot *model.DarshanSlot) error
	FindByID(ctx context.Context, id string) (*model.DarshanSlot, error)
	FindByDarshan(ctx context.Context, darshanID string) ([]*model.DarshanSlot, error)
}

type mongoSlotRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSlotRepository(cfg *config.Config) SlotRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoSlotRepository{
		cfg:        cfg,
		collection: db.Collection(DarshanSlotsCollection),
	}
}

func (r *mongoSlotRepository) Create(ctx context.Context, slot *model.DarshanSlot) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	slot.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, slot)
	if err != nil {
		return fmt.Errorf("failed to create darshan slot: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		slot.ID = oid.Hex()
	}
	return nil
}

func (r *mongoSlotRepository) FindByID(ctx context.Context, id string) (*model.DarshanSlot, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", darshanserrors.ErrInvalidID, id)
	}

	var slot model.DarshanSlot
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&slot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, darshanserrors.ErrSlotNotFound
		}
		return nil, fmt.Errorf("failed to find darshan slot: %w", err)
	}

	return &slot, nil
}

func (r *mongoSlotRepository) FindByDarshan(ctx context.Context, darshanID string) ([]*model.DarshanSlot, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"darshan_id": darshanID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find darshan slots: %w", err)
	}
	defer cursor.Close(ctx)

	var slots []*model.DarshanSlot
	if err = cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode darshan slots: %w", err)
	}

	return slots, nil
}
