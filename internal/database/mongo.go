package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// defaultMongoDBName はURIにデータベース名がない場合に使う名前。
const defaultMongoDBName = "portfolio"

// OpenMongo はMongoDBに接続して疎通を確認し、URIが指すデータベースを返す。
// 返されたクライアントは呼び出し側でDisconnectすること。
func OpenMongo(ctx context.Context, uri string) (*mongo.Client, *mongo.Database, error) {
	if uri == "" {
		return nil, nil, fmt.Errorf("mongo: empty uri")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(MongoDatabaseName(uri)), nil
}

// MongoDatabaseName はmongodb URIのパスからデータベース名を取り出す。
// パスが空または解析できない場合はdefaultMongoDBNameを返す。
func MongoDatabaseName(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return defaultMongoDBName
}
