package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Tijndh/Mallow/internal/domain"
)

type mongoCartRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewMongoCartRepository(db *mongo.Database) CartRepository {
	return &mongoCartRepository{
		collection: db.Collection(cartsCollection),
		now:        time.Now,
	}
}

func (m *mongoCartRepository) Create(ctx context.Context, cart *domain.Cart) error {
	_, err := m.collection.InsertOne(ctx, newCartDocument(cart))
	if err != nil {
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

func (m *mongoCartRepository) Get(ctx context.Context, id string) (*domain.Cart, error) {
	var doc cartDocument

	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return doc.toDomain(), nil
}

func (m *mongoCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	cart.UpdatedAt = m.now().UTC()

	update := bson.M{
		"$set": bson.M{
			"items":      itemDocuments(cart.Items),
			"updated_at": cart.UpdatedAt,
		},
	}

	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": cart.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

func (m *mongoCartRepository) ClearItems(ctx context.Context, id string) (bool, error) {
	// Only non-empty carts match, so repeated clears leave updated_at alone.
	filter := bson.M{
		"_id":     id,
		"items.0": bson.M{"$exists": true},
	}
	update := bson.M{
		"$set": bson.M{
			"items":      bson.A{},
			"updated_at": m.now().UTC(),
		},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to clear cart: %w", err)
	}
	if result.MatchedCount > 0 {
		return true, nil
	}

	n, err := m.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("failed to check cart: %w", err)
	}
	if n == 0 {
		return false, ErrCartNotFound
	}

	return false, nil
}
