package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/worldsim/internal/catalog"
	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CatalogMonsterTypes отдаёт расы из встроенного YAML-каталога
type CatalogMonsterTypes struct {
	cat *catalog.Catalog
}

// NewCatalogMonsterTypes оборачивает каталог в репозиторий
func NewCatalogMonsterTypes(cat *catalog.Catalog) *CatalogMonsterTypes {
	return &CatalogMonsterTypes{cat: cat}
}

// GetMonsterTypeByRace ищет расу в каталоге
func (r *CatalogMonsterTypes) GetMonsterTypeByRace(_ context.Context, race uint16) (*creature.MonsterType, error) {
	mt, ok := r.cat.MonsterType(race)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrMonsterTypeNotFound, race)
	}
	return mt, nil
}

// MongoConfig contains connection settings for the monster type collection.
type MongoConfig struct {
	URI        string // e.g. mongodb://localhost:27017
	Database   string // e.g. worldsim
	Collection string // e.g. monster_types
}

// MongoMonsterTypes implements MonsterTypeRepository on MongoDB backend.
type MongoMonsterTypes struct {
	client     *mongo.Client
	collection *mongo.Collection
	ctxTimeout time.Duration
}

// NewMongoMonsterTypes establishes connection and returns repository.
func NewMongoMonsterTypes(cfg MongoConfig) (*MongoMonsterTypes, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "worldsim"
	}
	if cfg.Collection == "" {
		cfg.Collection = "monster_types"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	// ping
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	repo := &MongoMonsterTypes{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		ctxTimeout: 5 * time.Second,
	}
	if err := repo.ensureIndexes(); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return repo, nil
}

func (m *MongoMonsterTypes) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	raceIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "race", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("race_unique"),
	}
	_, err := m.collection.Indexes().CreateOne(ctx, raceIdx)
	return err
}

// GetMonsterTypeByRace загружает расу по номеру
func (m *MongoMonsterTypes) GetMonsterTypeByRace(ctx context.Context, race uint16) (*creature.MonsterType, error) {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	var mt creature.MonsterType
	err := m.collection.FindOne(ctx, bson.M{"race": race}).Decode(&mt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %d", ErrMonsterTypeNotFound, race)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки расы %d: %w", race, err)
	}
	if err := mt.Validate(); err != nil {
		return nil, fmt.Errorf("раса %d в MongoDB: %w", race, err)
	}
	return &mt, nil
}

// Import записывает расы (upsert по номеру). Используется для первичного заполнения из каталога.
func (m *MongoMonsterTypes) Import(ctx context.Context, types []*creature.MonsterType) error {
	for _, mt := range types {
		opCtx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
		_, err := m.collection.ReplaceOne(opCtx, bson.M{"race": mt.Race}, mt, options.Replace().SetUpsert(true))
		cancel()
		if err != nil {
			return fmt.Errorf("ошибка импорта расы %d: %w", mt.Race, err)
		}
	}
	logging.GetStorageLogger().Info("🍃 Импортировано рас монстров в MongoDB: %d", len(types))
	return nil
}

// Close disconnects the client.
func (m *MongoMonsterTypes) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}
