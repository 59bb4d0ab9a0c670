package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sabbirzzaman/go-autocar-server/internal/model"
)

// MongoCarRepo はMongoDBのコレクションを使用した車両リポジトリ。
// 車両のIDはObjectIDの16進文字列として公開する。
type MongoCarRepo struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoCarRepo はMongoCarRepoを生成する。
func NewMongoCarRepo(client *mongo.Client, database, collection string) *MongoCarRepo {
	return &MongoCarRepo{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}
}

// List は自然順に車両を取得する。limitが0の場合は件数制限なし。
func (r *MongoCarRepo) List(ctx context.Context, skip, limit int64) ([]model.Car, error) {
	opts := options.Find().SetSkip(skip).SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list cars: %w", err)
	}

	return decodeMongoCars(ctx, cursor)
}

// Count はコレクションのメタデータから推定した車両数を返す。
func (r *MongoCarRepo) Count(ctx context.Context) (int64, error) {
	count, err := r.collection.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count cars: %w", err)
	}
	return count, nil
}

// FindByEmail は所有者メールアドレスが一致する車両を取得する。
func (r *MongoCarRepo) FindByEmail(ctx context.Context, email string) ([]model.Car, error) {
	cursor, err := r.collection.Find(ctx, bson.M{model.CarEmailField: email})
	if err != nil {
		return nil, fmt.Errorf("failed to find cars by email: %w", err)
	}

	return decodeMongoCars(ctx, cursor)
}

// Insert は車両を登録し、採番したObjectIDを返す。
func (r *MongoCarRepo) Insert(ctx context.Context, car model.Car) (string, error) {
	doc := bson.M(car.WithoutID())
	oid := primitive.NewObjectID()
	doc[model.CarIDField] = oid

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("failed to insert car: %w", err)
	}

	return oid.Hex(), nil
}

// FindByID は指定IDの車両を取得する。見つからない場合はnilを返す。
func (r *MongoCarRepo) FindByID(ctx context.Context, id string) (model.Car, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var doc bson.M
	err = r.collection.FindOne(ctx, bson.M{model.CarIDField: oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find car by ID: %w", err)
	}

	return carFromDocument(doc), nil
}

// DeleteByID は指定IDの車両を削除し、削除件数を返す。
func (r *MongoCarRepo) DeleteByID(ctx context.Context, id string) (int64, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return 0, err
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{model.CarIDField: oid})
	if err != nil {
		return 0, fmt.Errorf("failed to delete car: %w", err)
	}

	return res.DeletedCount, nil
}

// UpsertQuantity は指定IDの車両のquantityを$setで更新する。
// 車両が存在しない場合は指定IDで作成する。
func (r *MongoCarRepo) UpsertQuantity(ctx context.Context, id string, quantity any) (*model.UpdateResult, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.M{model.CarIDField: oid},
		bson.M{"$set": bson.M{model.CarQuantityField: quantity}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update car quantity: %w", err)
	}

	result := &model.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
	}
	if res.UpsertedID != nil {
		upserted := normalizeBSONValue(res.UpsertedID)
		if s, ok := upserted.(string); ok {
			result.UpsertedID = &s
		}
	}

	return result, nil
}

// Ping はプライマリへの疎通を確認する。
func (r *MongoCarRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

// parseObjectID は車両IDをObjectIDに変換する。
func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	return oid, nil
}

// decodeMongoCars はカーソルの全ドキュメントを車両に変換する。
func decodeMongoCars(ctx context.Context, cursor *mongo.Cursor) ([]model.Car, error) {
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode cars: %w", err)
	}

	cars := make([]model.Car, 0, len(docs))
	for _, doc := range docs {
		cars = append(cars, carFromDocument(doc))
	}
	return cars, nil
}

// carFromDocument はBSONドキュメントをJSONに変換可能な車両に変換する。
func carFromDocument(doc bson.M) model.Car {
	car := make(model.Car, len(doc))
	for k, v := range doc {
		car[k] = normalizeBSONValue(v)
	}
	return car
}

// normalizeBSONValue はObjectIDを16進文字列に変換する。
// 入れ子のドキュメント・配列も再帰的に処理する。
func normalizeBSONValue(v any) any {
	switch val := v.(type) {
	case primitive.ObjectID:
		return val.Hex()
	case bson.M:
		m := make(map[string]any, len(val))
		for k, inner := range val {
			m[k] = normalizeBSONValue(inner)
		}
		return m
	case bson.A:
		a := make([]any, len(val))
		for i, inner := range val {
			a[i] = normalizeBSONValue(inner)
		}
		return a
	default:
		return v
	}
}
