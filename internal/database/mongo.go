package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// mongoConnectTimeout はサーバー選択のタイムアウト。
const mongoConnectTimeout = 10 * time.Second

// MongoDatabaseName は使用するデータベース名を決定する。
// configured（MONGO_DATABASE）を優先し、空の場合のみ接続URIのパスを使用する。
func MongoDatabaseName(uri, configured string) (string, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return "", fmt.Errorf("failed to parse mongodb connection string: %w", err)
	}
	if configured != "" {
		return configured, nil
	}
	if cs.Database != "" {
		return cs.Database, nil
	}
	return "", fmt.Errorf("mongodb database name is not configured")
}

// ConnectMongo はMongoDBクライアントを生成する。
// ドキュメントはbson.Mとしてデコードされるため、JSONへそのまま変換できる。
// 実際の接続確認にはclient.Ping()を使用すること。
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	if _, err := connstring.ParseAndValidate(uri); err != nil {
		return nil, fmt.Errorf("failed to parse mongodb connection string: %w", err)
	}

	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(mongoConnectTimeout).
		SetBSONOptions(&options.BSONOptions{
			DefaultDocumentM: true,
		})

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect mongodb: %w", err)
	}

	return client, nil
}
