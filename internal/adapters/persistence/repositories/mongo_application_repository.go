package repositories

import (
	"context"
	"errors"

	"e-nagarpalika-portal/internal/adapters/persistence/models"
	"e-nagarpalika-portal/internal/core/workflow"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ApplicationsCollection is the MongoDB collection holding applications
const ApplicationsCollection = "applications"

// mongoApplicationRepository implements ApplicationRepository on MongoDB
type mongoApplicationRepository struct {
	coll *mongo.Collection
}

// NewMongoApplicationRepository creates a MongoDB application repository
func NewMongoApplicationRepository(db *mongo.Database) ApplicationRepository {
	return &mongoApplicationRepository{coll: db.Collection(ApplicationsCollection)}
}

// EnsureApplicationIndexes creates the indexes the portal queries rely on
func EnsureApplicationIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(ApplicationsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "ticketNo", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "currentLevel", Value: 1}}},
	})
	return err
}

func (r *mongoApplicationRepository) Create(ctx context.Context, app *workflow.Application) error {
	if _, err := r.coll.InsertOne(ctx, models.NewApplicationDocument(app)); err != nil {
		return workflow.Wrap(workflow.ErrStore, err)
	}
	return nil
}

func (r *mongoApplicationRepository) FindByID(ctx context.Context, id string) (*workflow.Application, error) {
	return r.findOne(ctx, bson.M{"_id": id}, nil)
}

func (r *mongoApplicationRepository) FindByTicketOrEmail(ctx context.Context, query string) (*workflow.Application, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"ticketNo": query},
		bson.M{"email": query},
	}}
	return r.findOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (r *mongoApplicationRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*workflow.Application, error) {
	var doc models.ApplicationDocument
	var err error
	if opts != nil {
		err = r.coll.FindOne(ctx, filter, opts).Decode(&doc)
	} else {
		err = r.coll.FindOne(ctx, filter).Decode(&doc)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, workflow.ErrNotFound
		}
		return nil, workflow.Wrap(workflow.ErrStore, err)
	}
	return doc.ToDomain(), nil
}

func (r *mongoApplicationRepository) FindMany(ctx context.Context, filter workflow.Filter, offset, limit int) ([]*workflow.Application, int64, error) {
	query := MongoFilter(filter)

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, workflow.Wrap(workflow.ErrStore, err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetSkip(int64(offset)).SetLimit(int64(limit))
	}

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, workflow.Wrap(workflow.ErrStore, err)
	}
	defer cursor.Close(ctx)

	var docs []models.ApplicationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, workflow.Wrap(workflow.ErrStore, err)
	}

	apps := make([]*workflow.Application, len(docs))
	for i := range docs {
		apps[i] = docs[i].ToDomain()
	}
	return apps, total, nil
}

func (r *mongoApplicationRepository) Count(ctx context.Context, filter workflow.Filter) (int64, error) {
	total, err := r.coll.CountDocuments(ctx, MongoFilter(filter))
	if err != nil {
		return 0, workflow.Wrap(workflow.ErrStore, err)
	}
	return total, nil
}

// ConditionalUpdate relies on the single-document atomicity of UpdateOne:
// the version predicate and the $set are evaluated together.
func (r *mongoApplicationRepository) ConditionalUpdate(ctx context.Context, app *workflow.Application, expectedVersion int64) error {
	doc := models.NewApplicationDocument(app)
	doc.Version = expectedVersion + 1

	update := bson.M{"$set": bson.M{
		"status":                doc.Status,
		"currentLevel":          doc.CurrentLevel,
		"previousLevels":        doc.PreviousLevels,
		"ITAssistantApproved":   doc.ITAssistantApproved,
		"ITAssistantApprovedBy": doc.ITAssistantApprovedBy,
		"ITAssistantRejectedBy": doc.ITAssistantRejectedBy,
		"ITOfficerApproved":     doc.ITOfficerApproved,
		"ITOfficerApprovedBy":   doc.ITOfficerApprovedBy,
		"ITOfficerRejectedBy":   doc.ITOfficerRejectedBy,
		"ITHeadApproved":        doc.ITHeadApproved,
		"ITHeadApprovedBy":      doc.ITHeadApprovedBy,
		"ITHeadRejectedBy":      doc.ITHeadRejectedBy,
		"remarks":               doc.Remarks,
		"statusMessage":         doc.StatusMessage,
		"version":               doc.Version,
		"updatedAt":             doc.UpdatedAt,
	}}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": app.ID, "version": expectedVersion}, update)
	if err != nil {
		return workflow.Wrap(workflow.ErrStore, err)
	}
	if res.MatchedCount == 0 {
		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": app.ID})
		if err != nil {
			return workflow.Wrap(workflow.ErrStore, err)
		}
		if n == 0 {
			return workflow.ErrNotFound
		}
		return workflow.ErrConcurrentModification
	}

	app.Version = doc.Version
	return nil
}

// MongoFilter translates a planner filter into a MongoDB query document
func MongoFilter(f workflow.Filter) bson.M {
	query := bson.M{}
	if f.FiledBy != "" {
		query["userId"] = f.FiledBy
	}
	if len(f.Clauses) == 0 {
		return query
	}

	or := bson.A{}
	for _, c := range f.Clauses {
		cond := bson.M{}
		if len(c.Statuses) > 0 {
			statuses := bson.A{}
			for _, s := range c.Statuses {
				statuses = append(statuses, string(s))
			}
			cond["status"] = bson.M{"$in": statuses}
		}
		level := bson.M{}
		if len(c.Levels) > 0 {
			levels := bson.A{}
			for _, l := range c.Levels {
				levels = append(levels, string(l))
			}
			level["$in"] = levels
		}
		if c.ExcludeLevel != "" {
			level["$ne"] = string(c.ExcludeLevel)
		}
		if len(level) > 0 {
			cond["currentLevel"] = level
		}
		or = append(or, cond)
	}
	query["$or"] = or
	return query
}
