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

	bookingserrors "darshan/internal/bookings/errors"
	"darshan/pkg/config"
	mongotx "darshan/pkg/db/mongo"
	"darshan/pkg/model"
)

const (
	CollectionName = "Bookings"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByOwner(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Booking, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
	OccupiedSeatsForSlot(ctx context.Context, slotID string, date time.Time) (int, error)
	OccupiedSeatsForDarshan(ctx context.Context, darshanID string, date time.Time) (int, error)
	CountPerSlot(ctx context.Context, darshanID string, date time.Time) (map[string]int, error)
	UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus) error
	UpdatePayment(ctx context.Context, id string, from, to model.PaymentStatus, paymentRef string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo.Client),
	}
}

// withTimeout wraps the context with a timeout unless already inside a
// transaction; a SessionContext cannot be wrapped without breaking
// transaction semantics.
func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

// IsDuplicateReceipt reports whether err is the unique-index rejection
// for a colliding receipt number.
func IsDuplicateReceipt(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CreatedAt = now
	booking.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Preserved as-is so the service can retry with a fresh
			// receipt candidate.
			return err
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindByOwner(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings by owner: %w", err)
	}
	return count, nil
}

// OccupiedSeatsForSlot sums the seats of non-cancelled bookings for one
// (slot, date) bucket.
func (r *mongoBookingRepository) OccupiedSeatsForSlot(ctx context.Context, slotID string, date time.Time) (int, error) {
	return r.sumSeats(ctx, bson.M{
		"slot_id": slotID,
		"date":    date,
		"status":  bson.M{"$ne": model.StatusCancelled},
	})
}

// OccupiedSeatsForDarshan sums the seats of non-cancelled bookings for
// one (darshan, date) bucket across all its slots.
func (r *mongoBookingRepository) OccupiedSeatsForDarshan(ctx context.Context, darshanID string, date time.Time) (int, error) {
	return r.sumSeats(ctx, bson.M{
		"darshan_id": darshanID,
		"date":       date,
		"status":     bson.M{"$ne": model.StatusCancelled},
	})
}

func (r *mongoBookingRepository) sumSeats(ctx context.Context, match bson.M) (int, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"seats": bson.M{"$sum": "$seats"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate seat occupancy: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Seats int `bson:"seats"`
	}
	if err = cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("failed to decode seat occupancy: %w", err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Seats, nil
}

// CountPerSlot returns occupied seats grouped by slot for one darshan
// type and date bucket.
func (r *mongoBookingRepository) CountPerSlot(ctx context.Context, darshanID string, date time.Time) (map[string]int, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"darshan_id": darshanID,
			"date":       date,
			"status":     bson.M{"$ne": model.StatusCancelled},
		}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   "$slot_id",
			"seats": bson.M{"$sum": "$seats"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate per-slot occupancy: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		SlotID string `bson:"_id"`
		Seats  int    `bson:"seats"`
	}
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode per-slot occupancy: %w", err)
	}

	counts := make(map[string]int, len(results))
	for _, res := range results {
		counts[res.SlotID] = res.Seats
	}
	return counts, nil
}

// UpdateStatus transitions status conditionally: the filter matches only
// when the booking is still in the `from` status, so a lost race surfaces
// as ErrStatusConflict instead of a silent double transition.
func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "status": from}
	update := bson.M{"$set": bson.M{
		"status":     to,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrStatusConflict
	}
	return nil
}

// UpdatePayment transitions payment_status conditionally, mirroring
// UpdateStatus. Amount and attendee data are never touched.
func (r *mongoBookingRepository) UpdatePayment(ctx context.Context, id string, from, to model.PaymentStatus, paymentRef string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	set := bson.M{
		"payment_status": to,
		"updated_at":     time.Now().UTC().Truncate(time.Millisecond),
	}
	if paymentRef != "" {
		set["payment_ref"] = paymentRef
	}

	filter := bson.M{"_id": objectID, "payment_status": from}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrStatusConflict
	}
	return nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
