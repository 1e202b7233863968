package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jhagel/campushub/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MediaRepository defines the interface for media metadata operations
type MediaRepository interface {
	CreateMedia(ctx context.Context, media *models.Media) error
	GetMediaByID(ctx context.Context, id string) (*models.Media, error)
	GetGroupMedia(ctx context.Context, groupID uint) ([]models.Media, error)
	DeleteMedia(ctx context.Context, id string) error
}

// MongoMediaRepository implements MediaRepository for MongoDB
type MongoMediaRepository struct {
	collection *mongo.Collection
}

// NewMongoMediaRepository creates a new MongoMediaRepository
func NewMongoMediaRepository(db *mongo.Database) *MongoMediaRepository {
	return &MongoMediaRepository{collection: db.Collection("media")}
}

// CreateMedia registers uploaded file metadata in MongoDB
func (r *MongoMediaRepository) CreateMedia(ctx context.Context, media *models.Media) error {
	media.ID = primitive.NewObjectID()
	media.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, media)
	return err
}

// GetMediaByID retrieves media metadata by ID
func (r *MongoMediaRepository) GetMediaByID(ctx context.Context, id string) (*models.Media, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid media ID format: %w", err)
	}

	var media models.Media
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&media)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("media not found")
		}
		return nil, err
	}
	return &media, nil
}

// GetGroupMedia retrieves all media of a group, newest first
func (r *MongoMediaRepository) GetGroupMedia(ctx context.Context, groupID uint) ([]models.Media, error) {
	var media []models.Media
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"group_id": groupID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &media); err != nil {
		return nil, err
	}
	return media, nil
}

// DeleteMedia deletes media metadata by ID
func (r *MongoMediaRepository) DeleteMedia(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid media ID format: %w", err)
	}
	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	return err
}
