package snapshot_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/snapshot"
	"github.com/frahmantamala/admin-console/pkg/logger"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSnapshot(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Snapshot Suite")
}

type role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

var _ = Describe("Snapshot Repository", func() {
	var (
		ctx  context.Context
		mock sqlmock.Sqlmock
		repo *snapshot.Repository
	)

	BeforeEach(func() {
		ctx = context.Background()
		db, m, err := sqlmock.New()
		Expect(err).NotTo(HaveOccurred())
		mock = m
		repo = snapshot.NewRepository(sqlx.NewDb(db, "sqlite3"))
		DeferCleanup(func() {
			Expect(mock.ExpectationsWereMet()).To(Succeed())
			db.Close()
		})
	})

	It("should upsert the encoded payload", func() {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO resource_snapshots (resource, payload, fetched_at) VALUES (?, ?, ?)")).
			WithArgs("roles", `[{"id":1,"name":"ADMIN"}]`, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		Expect(repo.Save(ctx, "roles", []role{{ID: 1, Name: "ADMIN"}})).To(Succeed())
	})

	It("should load a saved snapshot", func() {
		fetched := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT resource, payload, fetched_at FROM resource_snapshots WHERE resource = ?")).
			WithArgs("roles").
			WillReturnRows(sqlmock.NewRows([]string{"resource", "payload", "fetched_at"}).AddRow("roles", "[]", fetched))

		snap, err := repo.Load(ctx, "roles")

		Expect(err).NotTo(HaveOccurred())
		Expect(snap.Payload).To(Equal("[]"))
		Expect(snap.FetchedAt).To(Equal(fetched))
	})

	It("should return nil for an unknown resource", func() {
		mock.ExpectQuery("SELECT resource, payload, fetched_at FROM resource_snapshots").
			WithArgs("menus").
			WillReturnRows(sqlmock.NewRows([]string{"resource", "payload", "fetched_at"}))

		snap, err := repo.Load(ctx, "menus")

		Expect(err).NotTo(HaveOccurred())
		Expect(snap).To(BeNil())
	})

	It("should wrap database failures", func() {
		mock.ExpectExec("DELETE FROM resource_snapshots").
			WithArgs("menus").
			WillReturnError(errors.New("database is locked"))

		err := repo.Delete(ctx, "menus")

		Expect(err).To(MatchError(ContainSubstring("failed to delete menus snapshot")))
	})

	Describe("Through", func() {
		offline := internal.NewNetworkError("backend unreachable", internal.ErrCodeConnectionFailed, nil)

		It("should save a fresh listing", func() {
			mock.ExpectExec("INSERT INTO resource_snapshots").
				WithArgs("roles", `[{"id":2,"name":"USER"}]`, sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(1, 1))

			res, err := snapshot.Through(ctx, repo, logger.Discard(), "roles", func(context.Context) ([]role, error) {
				return []role{{ID: 2, Name: "USER"}}, nil
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Stale).To(BeFalse())
			Expect(res.Data).To(HaveLen(1))
		})

		It("should serve the saved listing when the backend is unreachable", func() {
			fetched := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
			mock.ExpectQuery("SELECT resource, payload, fetched_at FROM resource_snapshots").
				WithArgs("roles").
				WillReturnRows(sqlmock.NewRows([]string{"resource", "payload", "fetched_at"}).
					AddRow("roles", `[{"id":1,"name":"ADMIN"}]`, fetched))

			res, err := snapshot.Through(ctx, repo, logger.Discard(), "roles", func(context.Context) ([]role, error) {
				return nil, offline
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Stale).To(BeTrue())
			Expect(res.FetchedAt).To(Equal(fetched))
			Expect(res.Data).To(Equal([]role{{ID: 1, Name: "ADMIN"}}))
		})

		It("should return the network error when nothing was saved", func() {
			mock.ExpectQuery("SELECT resource, payload, fetched_at FROM resource_snapshots").
				WithArgs("roles").
				WillReturnRows(sqlmock.NewRows([]string{"resource", "payload", "fetched_at"}))

			_, err := snapshot.Through(ctx, repo, logger.Discard(), "roles", func(context.Context) ([]role, error) {
				return nil, offline
			})

			Expect(err).To(MatchError(offline))
		})

		It("should not mask other failures", func() {
			forbidden := internal.NewForbiddenError("Access denied", internal.ErrCodeAccessDenied)

			_, err := snapshot.Through(ctx, repo, logger.Discard(), "roles", func(context.Context) ([]role, error) {
				return nil, forbidden
			})

			Expect(err).To(MatchError(forbidden))
		})
	})
})
