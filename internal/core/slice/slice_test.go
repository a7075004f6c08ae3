package slice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/frahmantamala/admin-console/internal/core/slice"
	"github.com/frahmantamala/admin-console/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSlice(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Slice Suite")
}

type widget struct {
	ID   int64
	Name string
}

func (w widget) EntityID() int64 { return w.ID }

func (w *widget) SetEntityID(id int64) { w.ID = id }

// tag is a widget that cannot take an id back.
type tag struct {
	ID    int64
	Label string
}

func (t tag) EntityID() int64 { return t.ID }

func listOf(items ...widget) func(context.Context) (slice.ListResult[widget], error) {
	return func(context.Context) (slice.ListResult[widget], error) {
		return slice.ListResult[widget]{Items: items}, nil
	}
}

var _ = Describe("Slice", func() {
	var (
		ctx context.Context
		s   *slice.Slice[widget]
	)

	BeforeEach(func() {
		ctx = context.Background()
		s = slice.New[widget]("widgets", logger.Discard())
		Expect(s.FetchAll(ctx, listOf(widget{ID: 1, Name: "a"}, widget{ID: 2, Name: "b"}))).To(Succeed())
	})

	Describe("FetchAll", func() {
		It("should replace items wholesale and keep pagination", func() {
			err := s.FetchAll(ctx, func(context.Context) (slice.ListResult[widget], error) {
				return slice.ListResult[widget]{
					Items:      []widget{{ID: 9, Name: "z"}},
					Pagination: &slice.Pagination{Page: 1, PageSize: 10, Total: 1},
				}, nil
			})

			Expect(err).NotTo(HaveOccurred())
			state := s.State()
			Expect(state.Items).To(Equal([]widget{{ID: 9, Name: "z"}}))
			Expect(state.Pagination.Total).To(Equal(int64(1)))
			Expect(state.Loading).To(BeFalse())
		})

		It("should keep stale items and record the error on failure", func() {
			boom := errors.New("boom")

			err := s.FetchAll(ctx, func(context.Context) (slice.ListResult[widget], error) {
				return slice.ListResult[widget]{}, boom
			})

			Expect(err).To(MatchError(boom))
			state := s.State()
			Expect(state.Items).To(HaveLen(2))
			Expect(state.Err).To(MatchError(boom))
			Expect(state.Loading).To(BeFalse())
		})

		It("should mark loading while the call is in flight and clear a previous error", func() {
			s.FetchAll(ctx, func(context.Context) (slice.ListResult[widget], error) {
				return slice.ListResult[widget]{}, errors.New("first")
			})

			var during slice.State[widget]
			s.FetchAll(ctx, func(context.Context) (slice.ListResult[widget], error) {
				during = s.State()
				return slice.ListResult[widget]{}, nil
			})

			Expect(during.Loading).To(BeTrue())
			Expect(during.Err).To(BeNil())
			Expect(s.Items()).To(BeEmpty())
		})
	})

	Describe("Create", func() {
		It("should append the confirmed entity", func() {
			created, err := s.Create(ctx, func(context.Context) (widget, error) {
				return widget{ID: 3, Name: "c"}, nil
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(created.ID).To(Equal(int64(3)))
			Expect(s.Items()).To(HaveLen(3))
		})

		It("should leave items untouched on failure", func() {
			_, err := s.Create(ctx, func(context.Context) (widget, error) {
				return widget{}, errors.New("rejected")
			})

			Expect(err).To(HaveOccurred())
			Expect(s.Items()).To(HaveLen(2))
			Expect(s.Err()).To(HaveOccurred())
		})
	})

	Describe("Update", func() {
		It("should replace the matching entity in place", func() {
			_, err := s.Update(ctx, 2, func(context.Context) (widget, error) {
				return widget{ID: 2, Name: "renamed"}, nil
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(s.Items()).To(Equal([]widget{{ID: 1, Name: "a"}, {ID: 2, Name: "renamed"}}))
		})

		It("should match on the requested id when the response has none", func() {
			updated, err := s.Update(ctx, 2, func(context.Context) (widget, error) {
				return widget{Name: "renamed"}, nil
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.ID).To(Equal(int64(2)))
			Expect(s.Items()).To(Equal([]widget{{ID: 1, Name: "a"}, {ID: 2, Name: "renamed"}}))
			got, found := s.Get(2)
			Expect(found).To(BeTrue())
			Expect(got.Name).To(Equal("renamed"))
		})

		It("should replace by the requested id for entities without an id setter", func() {
			tags := slice.New[tag]("tags", logger.Discard())
			Expect(tags.FetchAll(ctx, func(context.Context) (slice.ListResult[tag], error) {
				return slice.ListResult[tag]{Items: []tag{{ID: 5, Label: "old"}}}, nil
			})).To(Succeed())

			_, err := tags.Update(ctx, 5, func(context.Context) (tag, error) {
				return tag{ID: 5, Label: "new"}, nil
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(tags.Items()).To(Equal([]tag{{ID: 5, Label: "new"}}))
		})

		It("should drop an update for an entity that is not cached", func() {
			before := s.Items()

			_, err := s.Update(ctx, 77, func(context.Context) (widget, error) {
				return widget{ID: 77, Name: "ghost"}, nil
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(s.Items()).To(Equal(before))
		})
	})

	Describe("Remove", func() {
		It("should filter out the removed id after confirmation", func() {
			Expect(s.Remove(ctx, 1, func(context.Context) error { return nil })).To(Succeed())

			_, found := s.Get(1)
			Expect(found).To(BeFalse())
			Expect(s.Items()).To(HaveLen(1))
		})

		It("should keep the entity when the backend refuses", func() {
			err := s.Remove(ctx, 1, func(context.Context) error { return errors.New("forbidden") })

			Expect(err).To(HaveOccurred())
			_, found := s.Get(1)
			Expect(found).To(BeTrue())
		})
	})

	It("should clear the error on demand", func() {
		s.FetchAll(ctx, func(context.Context) (slice.ListResult[widget], error) {
			return slice.ListResult[widget]{}, errors.New("x")
		})
		s.ClearError()
		Expect(s.Err()).To(BeNil())
	})

	It("should restore items without a remote call", func() {
		s.Restore([]widget{{ID: 5}})
		Expect(s.Items()).To(Equal([]widget{{ID: 5}}))
	})
})
