package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"places-server/models"
)

// FileSource reads a JSON array of places.
type FileSource struct {
	Path string
}

func (f FileSource) Places(_ context.Context) ([]models.Place, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var places []models.Place
	if err := json.NewDecoder(file).Decode(&places); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", f.Path, err)
	}
	return places, nil
}

// MongoSource reads every document of a places collection.
type MongoSource struct {
	Collection *mongo.Collection
}

func (m MongoSource) Places(ctx context.Context) ([]models.Place, error) {
	cursor, err := m.Collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var places []models.Place
	if err := cursor.All(ctx, &places); err != nil {
		return nil, fmt.Errorf("decoding places: %w", err)
	}
	return places, nil
}
