package apiclient_test

import (
	"context"
	"net/http"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/apiclient"
	"github.com/frahmantamala/admin-console/internal/apiclient/apiclienttest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type item struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

var _ = Describe("Normalize", func() {
	It("should yield the same items for bare and wrapped lists", func() {
		bare, err := apiclient.Normalize[[]item]([]byte(`[{"id":1,"name":"a"},{"id":2,"name":"b"}]`))
		Expect(err).NotTo(HaveOccurred())

		wrapped, err := apiclient.Normalize[[]item]([]byte(`{"success":true,"data":[{"id":1,"name":"a"},{"id":2,"name":"b"}]}`))
		Expect(err).NotTo(HaveOccurred())

		Expect(bare.Kind).To(Equal(apiclient.Bare))
		Expect(wrapped.Kind).To(Equal(apiclient.Wrapped))
		Expect(wrapped.Data).To(Equal(bare.Data))
		Expect(*wrapped.Success).To(BeTrue())
	})

	It("should treat an object without a data key as bare", func() {
		env, err := apiclient.Normalize[item]([]byte(`{"id":3,"name":"c"}`))

		Expect(err).NotTo(HaveOccurred())
		Expect(env.Kind).To(Equal(apiclient.Bare))
		Expect(env.Data).To(Equal(item{ID: 3, Name: "c"}))
	})

	It("should leave the payload empty for a null data field", func() {
		env, err := apiclient.Normalize[[]item]([]byte(`{"success":true,"message":"deleted","data":null}`))

		Expect(err).NotTo(HaveOccurred())
		Expect(env.Kind).To(Equal(apiclient.Wrapped))
		Expect(env.Data).To(BeNil())
		Expect(env.Message).To(Equal("deleted"))
	})

	It("should accept an empty body", func() {
		env, err := apiclient.Normalize[item](nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Data).To(BeZero())
	})

	DescribeTable("should read either pagination spelling",
		func(body string, page int, size int) {
			env, err := apiclient.Normalize[[]item]([]byte(body))

			Expect(err).NotTo(HaveOccurred())
			Expect(env.Pagination).NotTo(BeNil())
			Expect(env.Pagination.Page).To(Equal(page))
			Expect(env.Pagination.PageSize).To(Equal(size))
			Expect(env.Pagination.Total).To(Equal(int64(42)))
		},
		Entry("page", `{"data":[],"pagination":{"page":2,"pageSize":10,"total":42}}`, 2, 10),
		Entry("current", `{"data":[],"pagination":{"current":3,"pageSize":20,"total":42}}`, 3, 20),
		Entry("size", `{"data":[],"pagination":{"page":0,"size":5,"total":42}}`, 0, 5),
	)

	It("should report undecodable bodies", func() {
		_, err := apiclient.Normalize[[]item]([]byte(`{"data":"nope"}`))

		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeDecodeFailed))
	})
})

var _ = Describe("FetchList", func() {
	var api *apiclienttest.Requester

	BeforeEach(func() {
		api = apiclienttest.New()
	})

	DescribeTable("should yield the same items for every list shape",
		func(body string, total int64) {
			api.On(http.MethodGet, "/items", http.StatusOK, body)

			res, err := apiclient.FetchList[item](context.Background(), api, &apiclient.Request{Method: http.MethodGet, Path: "/items"})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Items).To(Equal([]item{{ID: 1, Name: "a"}}))
			if total < 0 {
				Expect(res.Pagination).To(BeNil())
				return
			}
			Expect(res.Pagination).NotTo(BeNil())
			Expect(res.Pagination.Total).To(Equal(total))
		},
		Entry("bare array", `[{"id":1,"name":"a"}]`, int64(-1)),
		Entry("wrapped array", `{"success":true,"data":[{"id":1,"name":"a"}]}`, int64(-1)),
		Entry("wrapped with pagination", `{"data":[{"id":1,"name":"a"}],"pagination":{"page":1,"pageSize":1,"total":9}}`, int64(9)),
		Entry("wrapped page object", `{"data":{"content":[{"id":1,"name":"a"}],"number":0,"size":1,"totalElements":7}}`, int64(7)),
	)

	It("should give an empty list for a null payload", func() {
		api.On(http.MethodGet, "/items", http.StatusOK, `{"success":true,"data":null}`)

		res, err := apiclient.FetchList[item](context.Background(), api, &apiclient.Request{Method: http.MethodGet, Path: "/items"})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Items).To(BeEmpty())
	})
})
