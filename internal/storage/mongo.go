package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expense-manager/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	UserCollection    = "users"
	ExpenseCollection = "expenses"
	SavingsCollection = "savings"
)

// MongoStore is the document-store backed Store used in production.
type MongoStore struct {
	client   *mongo.Client
	users    *mongo.Collection
	expenses *mongo.Collection
	savings  *mongo.Collection
}

// NewMongoStore connects to uri, verifies the connection and ensures indexes.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("error connecting to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("error pinging MongoDB: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:   client,
		users:    db.Collection(UserCollection),
		expenses: db.Collection(ExpenseCollection),
		savings:  db.Collection(SavingsCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("error creating users index: %w", err)
	}

	for _, idx := range []struct {
		col  *mongo.Collection
		keys bson.D
	}{
		{s.expenses, bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}}},
		{s.savings, bson.D{{Key: "userId", Value: 1}, {Key: "endDate", Value: 1}}},
	} {
		if _, err := idx.col.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: idx.keys}); err != nil {
			return fmt.Errorf("error creating %s index: %w", idx.col.Name(), err)
		}
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Drop removes every collection; used to reset integration test databases.
func (s *MongoStore) Drop(ctx context.Context) error {
	for _, col := range []*mongo.Collection{s.users, s.expenses, s.savings} {
		if err := col.Drop(ctx); err != nil {
			return err
		}
	}
	return s.ensureIndexes(ctx)
}

func ownedBy(id, userID string) bson.M {
	return bson.M{"_id": id, "userId": userID}
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter any) (*T, error) {
	var doc T
	err := col.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching from %s: %w", col.Name(), err)
	}
	return &doc, nil
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter any, sort bson.D) ([]T, error) {
	cursor, err := col.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("error listing %s: %w", col.Name(), err)
	}
	defer cursor.Close(ctx)

	docs := []T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", col.Name(), err)
	}
	return docs, nil
}

func deleteOwned(ctx context.Context, col *mongo.Collection, id, userID string) error {
	result, err := col.DeleteOne(ctx, ownedBy(id, userID))
	if err != nil {
		return fmt.Errorf("error deleting from %s: %w", col.Name(), err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	u.ID = newID()
	u.Email = normalizeEmail(u.Email)
	u.CreatedAt = time.Now().UTC()

	_, err := s.users.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

func (s *MongoStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return findOne[models.User](ctx, s.users, bson.M{"_id": id})
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, s.users, bson.M{"email": normalizeEmail(email)})
}

func (s *MongoStore) UpdateUserProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	set := bson.M{}
	if upd.UserName != nil {
		set["userName"] = *upd.UserName
	}
	if upd.MonthlyBudget != nil {
		set["monthlyBudget"] = *upd.MonthlyBudget
	}
	if len(set) == 0 {
		return s.GetUserByID(ctx, id)
	}

	var u models.User
	err := s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}
	return &u, nil
}

func (s *MongoStore) UserCount(ctx context.Context) (int, error) {
	n, err := s.users.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("error counting users: %w", err)
	}
	return int(n), nil
}

func (s *MongoStore) CreateExpense(ctx context.Context, e *models.Expense) error {
	e.ID = newID()
	if e.Date.IsZero() {
		e.Date = time.Now()
	}
	e.Date = e.Date.UTC()

	if _, err := s.expenses.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("error creating expense: %w", err)
	}
	return nil
}

func (s *MongoStore) ListExpenses(ctx context.Context, userID string) ([]models.Expense, error) {
	return findAll[models.Expense](ctx, s.expenses, bson.M{"userId": userID}, bson.D{{Key: "date", Value: -1}})
}

func (s *MongoStore) GetExpense(ctx context.Context, id, userID string) (*models.Expense, error) {
	return findOne[models.Expense](ctx, s.expenses, ownedBy(id, userID))
}

func (s *MongoStore) UpdateExpense(ctx context.Context, e *models.Expense) error {
	e.Date = e.Date.UTC()
	result, err := s.expenses.UpdateOne(ctx, ownedBy(e.ID, e.UserID), bson.M{"$set": bson.M{
		"title":    e.Title,
		"amount":   e.Amount,
		"category": e.Category,
		"date":     e.Date,
	}})
	if err != nil {
		return fmt.Errorf("error updating expense: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteExpense(ctx context.Context, id, userID string) error {
	return deleteOwned(ctx, s.expenses, id, userID)
}

func (s *MongoStore) CreateSavings(ctx context.Context, sv *models.Savings) error {
	sv.ID = newID()
	sv.StartDate, sv.EndDate = sv.StartDate.UTC(), sv.EndDate.UTC()

	if _, err := s.savings.InsertOne(ctx, sv); err != nil {
		return fmt.Errorf("error creating savings: %w", err)
	}
	return nil
}

func (s *MongoStore) ListSavings(ctx context.Context, userID string) ([]models.Savings, error) {
	return findAll[models.Savings](ctx, s.savings, bson.M{"userId": userID}, bson.D{{Key: "endDate", Value: 1}})
}

func (s *MongoStore) GetSavings(ctx context.Context, id, userID string) (*models.Savings, error) {
	return findOne[models.Savings](ctx, s.savings, ownedBy(id, userID))
}

func (s *MongoStore) UpdateSavings(ctx context.Context, sv *models.Savings) error {
	sv.StartDate, sv.EndDate = sv.StartDate.UTC(), sv.EndDate.UTC()
	result, err := s.savings.UpdateOne(ctx, ownedBy(sv.ID, sv.UserID), bson.M{"$set": bson.M{
		"category":      sv.Category,
		"name":          sv.Name,
		"targetAmount":  sv.TargetAmount,
		"currentAmount": sv.CurrentAmount,
		"startDate":     sv.StartDate,
		"endDate":       sv.EndDate,
	}})
	if err != nil {
		return fmt.Errorf("error updating savings: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteSavings(ctx context.Context, id, userID string) error {
	return deleteOwned(ctx, s.savings, id, userID)
}
