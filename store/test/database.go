package test

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tidepool-org/yearly-summary/store"
	"github.com/tidepool-org/yearly-summary/test"
)

const (
	defaultMongoTestHost = "mongodb://127.0.0.1:27017"
	mongoTimeout         = time.Second * 5
)

var (
	database *mongo.Database
)

// SetupDatabase connects to the test mongo instance, MONGO_TEST_URI overrides
// the local default. Every ginkgo process gets its own database.
func SetupDatabase() {
	host := os.Getenv("MONGO_TEST_URI")
	if host == "" {
		host = defaultMongoTestHost
	}

	client, err := store.NewClient(host)
	Expect(err).ToNot(HaveOccurred())

	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()
	Expect(client.Ping(ctx, nil)).To(Succeed())

	databaseName := fmt.Sprintf("yearly_summary_test_%s_%d", test.Faker.Letter(), ginkgo.GinkgoParallelProcess())
	database = client.Database(databaseName)
}

func TeardownDatabase() {
	Expect(database).ToNot(BeNil())

	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()
	Expect(database.Drop(ctx)).To(Succeed())
	Expect(database.Client().Disconnect(ctx)).To(Succeed())
	database = nil
}

func GetTestDatabase() *mongo.Database {
	Expect(database).ToNot(BeNil())
	return database
}

// DropCollections removes the collections a spec wrote to
func DropCollections(names ...string) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	for _, name := range names {
		if name == "" {
			continue
		}
		Expect(GetTestDatabase().Collection(name).Drop(ctx)).To(Succeed())
	}
}
