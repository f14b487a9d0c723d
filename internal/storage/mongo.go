package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ledgerd/internal/core"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	incomesCollection  = "incomes"
	expensesCollection = "expenses"
)

// MongoStore persists the ledger in MongoDB, one collection per entity
// kind. ObjectIDs keep record ids unique within their kind.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// mongoTransaction is the document shape. Dates are stored as time.Time so
// Mongo range queries stay possible later.
type mongoTransaction struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID     string             `bson:"ownerId"`
	Title       string             `bson:"title"`
	AmountCents int64              `bson:"amountCents"`
	Category    string             `bson:"category"`
	Description string             `bson:"description"`
	Date        time.Time          `bson:"date"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	slog.DebugContext(ctx, "Connecting to MongoDB", "db", dbName)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	slog.InfoContext(ctx, "Connected to MongoDB", "db", dbName)
	return &MongoStore{client: client, db: client.Database(dbName)}, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) collection(kind core.Kind) *mongo.Collection {
	if kind == core.KindIncome {
		return s.db.Collection(incomesCollection)
	}
	return s.db.Collection(expensesCollection)
}

func (s *MongoStore) Insert(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	doc := mongoTransaction{
		OwnerID:     tx.OwnerID,
		Title:       tx.Title,
		AmountCents: tx.Amount.Cents,
		Category:    tx.Category,
		Description: tx.Description,
		Date:        tx.Date.Time,
		CreatedAt:   tx.CreatedAt,
	}

	res, err := s.collection(tx.Kind).InsertOne(ctx, doc)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return core.Transaction{}, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	tx.ID = oid.Hex()
	return tx, nil
}

func (s *MongoStore) ListByOwner(ctx context.Context, kind core.Kind, ownerID string) ([]core.Transaction, error) {
	cur, err := s.collection(kind).Find(ctx,
		bson.M{"ownerId": ownerID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	defer cur.Close(ctx)

	var out []core.Transaction
	for cur.Next(ctx) {
		var doc mongoTransaction
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode transaction: %w", err)
		}
		out = append(out, core.Transaction{
			ID:          doc.ID.Hex(),
			OwnerID:     doc.OwnerID,
			Kind:        kind,
			Title:       doc.Title,
			Amount:      core.Money{Cents: doc.AmountCents},
			Category:    doc.Category,
			Description: doc.Description,
			Date:        core.Date{Time: doc.Date},
			CreatedAt:   doc.CreatedAt,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// DeleteOwned uses FindOneAndDelete so the ownership filter and the removal
// are a single server-side operation.
func (s *MongoStore) DeleteOwned(ctx context.Context, kind core.Kind, id, ownerID string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	err = s.collection(kind).FindOneAndDelete(ctx,
		bson.M{"_id": oid, "ownerId": ownerID}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}
