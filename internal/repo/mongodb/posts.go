package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/ciaan/internal/domain/post"
	"github.com/geocoder89/ciaan/internal/domain/user"
	"github.com/geocoder89/ciaan/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type postDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Content   string             `bson:"content"`
	Author    primitive.ObjectID `bson:"author"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// populatedPostDoc is a post with its author joined by $lookup.
type populatedPostDoc struct {
	Post      postDoc `bson:",inline"`
	AuthorDoc *struct {
		Name  string `bson:"name"`
		Email string `bson:"email"`
	} `bson:"authorDoc"`
}

func (d populatedPostDoc) toDomain() post.Post {
	author := user.Author{ID: d.Post.Author.Hex()}
	if d.AuthorDoc != nil {
		author.Name = d.AuthorDoc.Name
		author.Email = d.AuthorDoc.Email
	}

	return post.Post{
		ID:        d.Post.ID.Hex(),
		Content:   d.Post.Content,
		Author:    author,
		CreatedAt: d.Post.CreatedAt,
		UpdatedAt: d.Post.UpdatedAt,
	}
}

type PostsRepo struct {
	posts *mongo.Collection
	users *mongo.Collection
	prom  *observability.Prom
}

func NewPostsRepo(c *Client, prom *observability.Prom) *PostsRepo {
	return &PostsRepo{
		posts: c.db.Collection(postsCollection),
		users: c.db.Collection(usersCollection),
		prom:  prom,
	}
}

func (r *PostsRepo) observe(op string, fn func() error) error {
	return r.prom.ObserveDB(op, fn)
}

// Create checks the author exists first: documents carry no foreign keys.
func (r *PostsRepo) Create(ctx context.Context, p post.CreateParams) (post.Post, error) {
	authorID, err := primitive.ObjectIDFromHex(p.AuthorID)
	if err != nil {
		return post.Post{}, user.ErrNotFound
	}

	var author userDoc
	err = r.observe("posts.create.author_lookup", func() error {
		return r.users.FindOne(ctx, bson.M{"_id": authorID},
			options.FindOne().SetProjection(bson.M{"name": 1, "email": 1})).Decode(&author)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return post.Post{}, user.ErrNotFound
		}
		return post.Post{}, err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := postDoc{
		ID:        primitive.NewObjectID(),
		Content:   p.Content,
		Author:    authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = r.observe("posts.create", func() error {
		_, err := r.posts.InsertOne(ctx, doc)
		return err
	})
	if err != nil {
		return post.Post{}, err
	}

	return post.Post{
		ID:        doc.ID.Hex(),
		Content:   doc.Content,
		Author:    user.Author{ID: authorID.Hex(), Name: author.Name, Email: author.Email},
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func (r *PostsRepo) FindAll(ctx context.Context, limit int) ([]post.Post, error) {
	return r.aggregate(ctx, "posts.find_all", bson.M{}, limit)
}

func (r *PostsRepo) FindByAuthor(ctx context.Context, authorID string) ([]post.Post, error) {
	oid, err := primitive.ObjectIDFromHex(authorID)
	if err != nil {
		return []post.Post{}, nil
	}
	return r.aggregate(ctx, "posts.find_by_author", bson.M{"author": oid}, 0)
}

func (r *PostsRepo) aggregate(ctx context.Context, op string, match bson.M, limit int) ([]post.Post, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		// ObjectIDs grow with insertion, so _id breaks createdAt ties
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         usersCollection,
			"localField":   "author",
			"foreignField": "_id",
			"as":           "authorDoc",
		}}},
		bson.D{{Key: "$unwind", Value: bson.M{"path": "$authorDoc", "preserveNullAndEmptyArrays": true}}},
		bson.D{{Key: "$project", Value: bson.M{
			"content":         1,
			"author":          1,
			"createdAt":       1,
			"updatedAt":       1,
			"authorDoc.name":  1,
			"authorDoc.email": 1,
		}}},
	)

	var docs []populatedPostDoc

	err := r.observe(op, func() error {
		cur, err := r.posts.Aggregate(ctx, pipeline)
		if err != nil {
			return err
		}
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, err
	}

	out := make([]post.Post, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}
