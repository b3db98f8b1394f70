package store

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Transactor runs a function inside a MongoDB transaction when the server is
// a replica set or mongos. On a standalone server the function runs directly
// and callers rely on their own compensation.
type Transactor struct {
	client    *mongo.Client
	supported bool
}

func NewTransactor(ctx context.Context, client *mongo.Client) *Transactor {
	var hello struct {
		SetName string `bson:"setName"`
		Msg     string `bson:"msg"`
	}
	t := &Transactor{client: client}
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		log.Printf("⚠️ Could not detect MongoDB topology: %v", err)
		return t
	}
	t.supported = hello.SetName != "" || hello.Msg == "isdbgrid"
	if !t.supported {
		log.Println("⚠️ MongoDB is standalone, checkout runs without transactions")
	}
	return t
}

func (t *Transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.supported {
		return fn(ctx)
	}
	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}
