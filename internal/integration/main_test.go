//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"

	"fxchain/internal/testkit"
)

func TestMain(m *testing.M) {
	testkit.Run(m, func() error {
		var err error
		testDB, err = testkit.OpenMigrated(context.Background(), testkit.Global().PostgresDSN())
		if err != nil {
			return err
		}

		testRDB = redis.NewClient(&redis.Options{
			Addr: testkit.Global().RedisAddr(),
		})
		return testRDB.Ping(context.Background()).Err()
	})
}
