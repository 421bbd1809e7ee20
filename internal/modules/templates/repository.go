package templates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/config"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/models"
)

// Write conditions for Repository.Store besides a positive stored version.
const (
	// AnyVersion writes unconditionally, creating the document if needed.
	AnyVersion int64 = 0
	// Unversioned requires an existing document written before versioning.
	Unversioned int64 = -1
	// Absent requires that the document does not exist yet.
	Absent int64 = -2
)

// Repository persists the single template document.
type Repository interface {
	// Load returns nil when the document does not exist yet.
	Load(ctx context.Context) (*models.TemplateDocument, error)
	// Store replaces the whole array and bumps the version. expectVersion is
	// AnyVersion, Unversioned, Absent or the stored version that must match;
	// an unmet condition returns ErrVersionConflict.
	Store(ctx context.Context, templates []models.Template, now time.Time, expectVersion int64) (*models.TemplateDocument, error)
	// LoadLegacy reads the pre-migration one-document-per-template layout.
	LoadLegacy(ctx context.Context) ([]models.LegacyTemplate, error)
}

type mongoRepository struct {
	docs   *mongo.Collection
	legacy *mongo.Collection
	docID  string
}

func NewMongoRepository(db *mongo.Database, cfg config.MongoRuntimeConfig) Repository {
	return &mongoRepository{
		docs:   db.Collection(cfg.Collection),
		legacy: db.Collection(cfg.LegacyCollection),
		docID:  cfg.DocumentID,
	}
}

func (r *mongoRepository) Load(ctx context.Context) (*models.TemplateDocument, error) {
	var doc models.TemplateDocument
	err := r.docs.FindOne(ctx, bson.M{"_id": r.docID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load template document: %w", err)
	}
	return &doc, nil
}

func (r *mongoRepository) Store(ctx context.Context, templates []models.Template, now time.Time, expectVersion int64) (*models.TemplateDocument, error) {
	if expectVersion == Absent {
		return r.create(ctx, templates, now)
	}

	filter := bson.M{"_id": r.docID}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	switch {
	case expectVersion > 0:
		filter["version"] = expectVersion
	case expectVersion == Unversioned:
		filter["$or"] = bson.A{
			bson.M{"version": bson.M{"$exists": false}},
			bson.M{"version": int64(0)},
		}
	default:
		opts.SetUpsert(true)
	}
	update := bson.M{
		"$set": bson.M{"allTemplates": templates, "lastModified": now},
		"$inc": bson.M{"version": int64(1)},
	}

	var doc models.TemplateDocument
	err := r.docs.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) && expectVersion != AnyVersion {
		return nil, fmt.Errorf("%w: expected version %d", ErrVersionConflict, expectVersion)
	}
	if err != nil {
		return nil, fmt.Errorf("store template document: %w", err)
	}
	return &doc, nil
}

// create inserts the document; an existing one is a conflict, never overwritten.
func (r *mongoRepository) create(ctx context.Context, templates []models.Template, now time.Time) (*models.TemplateDocument, error) {
	doc := models.TemplateDocument{ID: r.docID, AllTemplates: templates, LastModified: now, Version: 1}
	if _, err := r.docs.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: template document already exists", ErrVersionConflict)
		}
		return nil, fmt.Errorf("create template document: %w", err)
	}
	return &doc, nil
}

func (r *mongoRepository) LoadLegacy(ctx context.Context) ([]models.LegacyTemplate, error) {
	cur, err := r.legacy.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{
		{Key: "createdAt", Value: 1},
		{Key: "_id", Value: 1},
	}))
	if err != nil {
		return nil, fmt.Errorf("read legacy templates: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.LegacyTemplate
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode legacy templates: %w", err)
	}
	return out, nil
}
