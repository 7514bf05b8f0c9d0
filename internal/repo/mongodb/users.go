package mongodb

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/geocoder89/ciaan/internal/domain/user"
	"github.com/geocoder89/ciaan/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password,omitempty"`
	Bio       string             `bson:"bio"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d userDoc) toDomain() user.User {
	return user.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		Bio:          d.Bio,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// withoutPassword is the projection used by every read except FindByEmail.
var withoutPassword = bson.M{"password": 0}

type UsersRepo struct {
	coll *mongo.Collection
	prom *observability.Prom
}

func NewUsersRepo(c *Client, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{coll: c.db.Collection(usersCollection), prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	return r.prom.ObserveDB(op, fn)
}

func (r *UsersRepo) Create(ctx context.Context, p user.CreateParams) (user.User, error) {
	p = p.Normalized()
	now := time.Now().UTC().Truncate(time.Millisecond)

	doc := userDoc{
		ID:        primitive.NewObjectID(),
		Name:      p.Name,
		Email:     p.Email,
		Password:  p.PasswordHash,
		Bio:       p.Bio,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.observe("users.create", func() error {
		_, err := r.coll.InsertOne(ctx, doc)
		return err
	})

	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return doc.toDomain(), nil
}

func (r *UsersRepo) FindByID(ctx context.Context, id string) (user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return user.User{}, user.ErrNotFound
	}

	return r.findOne(ctx, "users.find_by_id", bson.M{"_id": oid}, options.FindOne().SetProjection(withoutPassword))
}

func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (user.User, error) {
	return r.findOne(ctx, "users.find_by_email", bson.M{"email": user.NormalizeEmail(email)}, options.FindOne())
}

func (r *UsersRepo) findOne(ctx context.Context, op string, filter bson.M, opts *options.FindOneOptions) (user.User, error) {
	var doc userDoc

	err := r.observe(op, func() error {
		return r.coll.FindOne(ctx, filter, opts).Decode(&doc)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return doc.toDomain(), nil
}

func (r *UsersRepo) Search(ctx context.Context, query string, limit int) ([]user.User, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return []user.User{}, nil
	}

	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"name": pattern},
		bson.M{"email": pattern},
	}}

	opts := options.Find().
		SetProjection(withoutPassword).
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))

	var docs []userDoc

	err := r.observe("users.search", func() error {
		cur, err := r.coll.Find(ctx, filter, opts)
		if err != nil {
			return err
		}
		return cur.All(ctx, &docs)
	})

	if err != nil {
		return nil, err
	}

	out := make([]user.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}
