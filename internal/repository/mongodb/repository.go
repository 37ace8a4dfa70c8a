package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/remitos/internal/domain/models"
)

const (
	remitosCollection   = "remitos"
	driversCollection   = "drivers"
	snapshotsCollection = "stats_snapshots"
)

// ErrDriverNotFound is returned when the directory has no entry for a driver.
var ErrDriverNotFound = errors.New("driver not found")

// Repository defines the local persistence used next to the remote ledgers.
type Repository interface {
	SaveRemito(ctx context.Context, backup models.RemitoBackup) error
	FindDriver(ctx context.Context, id string) (models.Driver, error)
	ListDrivers(ctx context.Context) ([]models.Driver, error)
	SaveStatsSnapshot(ctx context.Context, report models.StatsReport) error
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

// SaveRemito stores the local backup copy of a submitted receipt.
func (r *MongoDBRepository) SaveRemito(ctx context.Context, backup models.RemitoBackup) error {
	if _, err := r.db.Collection(remitosCollection).InsertOne(ctx, backup); err != nil {
		return fmt.Errorf("failed to insert remito backup: %w", err)
	}
	return nil
}

// FindDriver looks up a directory entry by its identity provider ID.
func (r *MongoDBRepository) FindDriver(ctx context.Context, id string) (models.Driver, error) {
	var driver models.Driver
	err := r.db.Collection(driversCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&driver)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Driver{}, ErrDriverNotFound
	}
	if err != nil {
		return models.Driver{}, fmt.Errorf("failed to find driver %s: %w", id, err)
	}
	return driver, nil
}

// ListDrivers returns every directory entry sorted by email.
func (r *MongoDBRepository) ListDrivers(ctx context.Context) ([]models.Driver, error) {
	cursor, err := r.db.Collection(driversCollection).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "email", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}
	defer cursor.Close(ctx)

	drivers := make([]models.Driver, 0)
	if err := cursor.All(ctx, &drivers); err != nil {
		return nil, fmt.Errorf("failed to decode drivers: %w", err)
	}
	return drivers, nil
}

// SaveStatsSnapshot upserts the digest entry for a driver and month, so a rerun of
// the same schedule overwrites rather than duplicates.
func (r *MongoDBRepository) SaveStatsSnapshot(ctx context.Context, report models.StatsReport) error {
	filter := bson.M{"driver_id": report.DriverID, "year": report.Year, "month": report.Month}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.db.Collection(snapshotsCollection).ReplaceOne(ctx, filter, report, opts); err != nil {
		return fmt.Errorf("failed to save stats snapshot: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
