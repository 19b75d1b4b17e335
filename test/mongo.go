package test

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

// MongoImage is the MongoDB image used by the test containers.
const MongoImage = "mongo:7"

// StartMongoContainer starts a MongoDB container for testing. The caller must
// terminate it when the tests finish.
func StartMongoContainer(ctx context.Context) (*mongodb.MongoDBContainer, error) {
	return mongodb.Run(ctx, MongoImage)
}

// RandomDatabaseName returns a unique database name so parallel test
// packages sharing a server do not collide.
func RandomDatabaseName() string {
	return fmt.Sprintf("checkout-test-%s", uuid.New().String()[:8])
}
