package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Tijndh/Mallow/internal/domain"
)

type mongoContactRepository struct {
	collection *mongo.Collection
}

func NewMongoContactRepository(db *mongo.Database) ContactRepository {
	return &mongoContactRepository{collection: db.Collection(contactsCollection)}
}

func (m *mongoContactRepository) Create(ctx context.Context, msg *domain.ContactMessage) error {
	doc := contactDocument{
		ID:        msg.ID,
		Name:      msg.Name,
		Email:     msg.Email,
		Subject:   msg.Subject,
		Message:   msg.Message,
		CreatedAt: msg.CreatedAt,
	}

	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to store contact message: %w", err)
	}
	return nil
}
