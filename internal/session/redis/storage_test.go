package redis_test

import (
	"context"
	"os"
	"testing"

	"github.com/frahmantamala/admin-console/internal/session"
	sessionRedis "github.com/frahmantamala/admin-console/internal/session/redis"
	"github.com/go-redis/redis/v8"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSessionRedis(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Session Redis Suite")
}

var _ = Describe("Session Redis Storage", func() {
	It("should namespace keys with the prefix", func() {
		storage := sessionRedis.NewStorage(redis.NewClient(&redis.Options{}), "console:")
		Expect(storage.Key(session.KeyRefreshToken)).To(Equal("console:refreshToken"))
	})

	It("should reject a malformed URL", func() {
		_, err := sessionRedis.Open(context.Background(), "://nope", "console:")
		Expect(err).To(MatchError(ContainSubstring("failed to parse Redis URL")))
	})

	Context("against a live server", func() {
		var (
			ctx     context.Context
			storage *sessionRedis.Storage
		)

		BeforeEach(func() {
			url := os.Getenv("TEST_REDIS_URL")
			if url == "" {
				Skip("TEST_REDIS_URL not set")
			}
			ctx = context.Background()
			var err error
			storage, err = sessionRedis.Open(ctx, url, "admin-console-test:")
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(func() {
				storage.Delete(ctx, session.KeyAccessToken, session.KeyRefreshToken, session.KeyUser)
				storage.Close()
			})
		})

		It("should round-trip and delete values", func() {
			Expect(storage.Set(ctx, session.KeyAccessToken, "t1")).To(Succeed())

			value, found, err := storage.Get(ctx, session.KeyAccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeTrue())
			Expect(value).To(Equal("t1"))

			Expect(storage.Delete(ctx, session.KeyAccessToken)).To(Succeed())
			_, found, err = storage.Get(ctx, session.KeyAccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeFalse())
		})
	})
})
