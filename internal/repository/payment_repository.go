package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Tijndh/Mallow/internal/domain"
)

type mongoPaymentRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewMongoPaymentRepository(db *mongo.Database) PaymentRepository {
	return &mongoPaymentRepository{
		collection: db.Collection(transactionsCollection),
		now:        time.Now,
	}
}

func (m *mongoPaymentRepository) Create(ctx context.Context, tx *domain.PaymentTransaction) error {
	_, err := m.collection.InsertOne(ctx, newTransactionDocument(tx))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("session %s already recorded: %w", tx.SessionID, domain.ErrInvalidState)
		}
		return fmt.Errorf("failed to create payment transaction: %w", err)
	}
	return nil
}

func (m *mongoPaymentRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.PaymentTransaction, error) {
	var doc transactionDocument

	err := m.collection.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get payment transaction: %w", err)
	}

	return doc.toDomain()
}

func (m *mongoPaymentRepository) UpdateStatus(
	ctx context.Context,
	sessionID string,
	status domain.SessionStatus,
	paymentStatus domain.PaymentStatus,
) (*domain.PaymentTransaction, error) {
	// The paid guard runs inside the update pipeline so it holds without a
	// read-modify-write cycle.
	keepStored := bson.D{{Key: "$and", Value: bson.A{
		bson.D{{Key: "$eq", Value: bson.A{"$payment_status", string(domain.PaymentStatusPaid)}}},
		!paymentStatus.IsPaid(),
	}}}

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "status", Value: bson.D{{Key: "$cond", Value: bson.A{keepStored, "$status", bson.D{{Key: "$literal", Value: string(status)}}}}}},
			{Key: "payment_status", Value: bson.D{{Key: "$cond", Value: bson.A{keepStored, "$payment_status", bson.D{{Key: "$literal", Value: string(paymentStatus)}}}}}},
			{Key: "updated_at", Value: m.now().UTC()},
		}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	var before transactionDocument
	err := m.collection.FindOneAndUpdate(ctx, bson.M{"session_id": sessionID}, update, opts).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}

	return before.toDomain()
}
