package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bolingo/onboarding-bot/internal/core/domain"
	"github.com/bolingo/onboarding-bot/internal/core/ports"
)

const (
	collectionUsers = "users"

	// maxUpdateAttempts bounds the optimistic retry loop of Update.
	maxUpdateAttempts = 5
)

// UserRepository stores onboarding records in the users collection, keyed
// by platform identity. Concurrent updates are serialized with a version
// compare-and-swap, so several instances can share the collection.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type userDocument struct {
	Identity        int64  `bson:"_id"`
	DisplayName     string `bson:"display_name"`
	OnboardingState string `bson:"onboarding_state"`
	Version         int64  `bson:"version"`
	CreatedAt       int64  `bson:"created_at"`
	UpdatedAt       int64  `bson:"updated_at"`
}

func toDocument(rec *domain.UserRecord) userDocument {
	return userDocument{
		Identity:        rec.Identity,
		DisplayName:     rec.DisplayName,
		OnboardingState: string(rec.OnboardingState),
		Version:         rec.Version,
		CreatedAt:       rec.CreatedAt.Unix(),
		UpdatedAt:       rec.UpdatedAt.Unix(),
	}
}

func (d userDocument) toDomain() *domain.UserRecord {
	state := domain.OnboardingState(d.OnboardingState)
	if !state.Valid() {
		// Unknown values written by an older schema restart the flow.
		state = domain.StateNew
	}
	return &domain.UserRecord{
		Identity:        d.Identity,
		DisplayName:     d.DisplayName,
		OnboardingState: state,
		Version:         d.Version,
		CreatedAt:       unixToTime(d.CreatedAt),
		UpdatedAt:       unixToTime(d.UpdatedAt),
	}
}

// Get retrieves the record for identity.
func (r *UserRepository) Get(ctx context.Context, identity int64) (*domain.UserRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := r.find(ctx, identity)
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

// Create inserts rec, or returns the existing record when the identity is
// already known.
func (r *UserRepository) Create(ctx context.Context, rec *domain.UserRecord) (*domain.UserRecord, error) {
	if rec == nil || rec.Identity == 0 {
		return nil, domain.ErrInvalidIdentity
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toDocument(rec)
	doc.Version = 1
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			existing, err := r.find(ctx, rec.Identity)
			if err != nil {
				return nil, err
			}
			return existing.toDomain(), nil
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toDomain(), nil
}

// Update runs mutate against the latest stored version and writes the result
// only if nobody else wrote in between, retrying a bounded number of times.
func (r *UserRepository) Update(ctx context.Context, identity int64, mutate ports.MutateFunc) (*domain.UserRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		doc, err := r.find(ctx, identity)
		if err != nil {
			return nil, err
		}

		current := doc.toDomain()
		next := *current
		if err := mutate(&next); err != nil {
			if errors.Is(err, ports.ErrSkipWrite) {
				return current, nil
			}
			return nil, err
		}

		filter := bson.M{"_id": identity, "version": doc.Version}
		update := bson.M{
			"$set": bson.M{
				"display_name":     next.DisplayName,
				"onboarding_state": string(next.OnboardingState),
				"updated_at":       next.UpdatedAt.Unix(),
			},
			"$inc": bson.M{"version": 1},
		}
		res, err := r.col.UpdateOne(ctx, filter, update)
		if err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		if res.MatchedCount == 0 {
			continue
		}

		next.Identity = identity
		next.Version = doc.Version + 1
		return &next, nil
	}
	return nil, domain.ErrConcurrentUpdate
}

// Delete removes the record for identity.
func (r *UserRepository) Delete(ctx context.Context, identity int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": identity})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ListStalled returns up to limit records in state last written before
// updatedBefore, oldest first. It is served by the {onboarding_state,
// updated_at} index.
func (r *UserRepository) ListStalled(ctx context.Context, state domain.OnboardingState, updatedBefore time.Time, limit int) ([]*domain.UserRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := stalledFilter(state, updatedBefore)
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find stalled users: %w", err)
	}
	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode stalled users: %w", err)
	}

	out := make([]*domain.UserRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func stalledFilter(state domain.OnboardingState, updatedBefore time.Time) bson.M {
	return bson.M{
		"onboarding_state": string(state),
		"updated_at":       bson.M{"$lt": updatedBefore.Unix()},
	}
}

// EnsureIndexes creates the secondary indexes of the users collection.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "onboarding_state", Value: 1}, {Key: "updated_at", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *UserRepository) find(ctx context.Context, identity int64) (*userDocument, error) {
	var doc userDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": identity}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &doc, nil
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
