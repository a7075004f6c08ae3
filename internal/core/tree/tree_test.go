package tree_test

import (
	"testing"

	"github.com/frahmantamala/admin-console/internal/core/tree"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestTree(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Tree Suite")
}

type record struct {
	ID       int64
	ParentID *int64
	Name     string
}

func ref(id int64) *int64 { return &id }

func keyOf(r record) (int64, *int64) { return r.ID, r.ParentID }

// shape renders a forest as nested ids so two builds can be compared.
type shape struct {
	ID       int64
	Children []shape
}

func shapeOf(nodes []*tree.Node[record, int64]) []shape {
	out := make([]shape, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, shape{ID: n.ID, Children: shapeOf(n.Children)})
	}
	return out
}

var _ = Describe("Build", func() {
	It("should attach children under their parents in input order", func() {
		items := []record{
			{ID: 1, Name: "System"},
			{ID: 2, ParentID: ref(1), Name: "Users"},
			{ID: 3, ParentID: ref(1), Name: "Roles"},
			{ID: 4, Name: "Dashboard"},
			{ID: 5, ParentID: ref(2), Name: "Import"},
		}

		roots := tree.Build(items, keyOf)

		Expect(shapeOf(roots)).To(Equal([]shape{
			{ID: 1, Children: []shape{
				{ID: 2, Children: []shape{{ID: 5, Children: []shape{}}}},
				{ID: 3, Children: []shape{}},
			}},
			{ID: 4, Children: []shape{}},
		}))
	})

	It("should accept children listed before their parent", func() {
		items := []record{
			{ID: 2, ParentID: ref(1)},
			{ID: 1},
		}

		roots := tree.Build(items, keyOf)

		Expect(roots).To(HaveLen(1))
		Expect(roots[0].ID).To(Equal(int64(1)))
		Expect(roots[0].Children[0].ID).To(Equal(int64(2)))
	})

	It("should treat a zero parent id as a root", func() {
		roots := tree.Build([]record{{ID: 1, ParentID: ref(0)}}, keyOf)
		Expect(roots).To(HaveLen(1))
	})

	It("should promote orphans to roots", func() {
		items := []record{
			{ID: 1},
			{ID: 2, ParentID: ref(99)},
		}

		roots := tree.Build(items, keyOf)

		Expect(shapeOf(roots)).To(Equal([]shape{
			{ID: 1, Children: []shape{}},
			{ID: 2, Children: []shape{}},
		}))
	})

	It("should keep only the first record for a repeated id", func() {
		items := []record{
			{ID: 1, Name: "first"},
			{ID: 1, Name: "second"},
		}

		roots := tree.Build(items, keyOf)

		Expect(roots).To(HaveLen(1))
		Expect(roots[0].Item.Name).To(Equal("first"))
	})

	It("should return an empty forest for no items", func() {
		Expect(tree.Build([]record{}, keyOf)).To(BeEmpty())
	})

	Context("when parent references loop", func() {
		It("should break the loop at the first member in input order", func() {
			items := []record{
				{ID: 1},
				{ID: 2, ParentID: ref(3)},
				{ID: 3, ParentID: ref(2)},
				{ID: 4, ParentID: ref(3)},
			}

			roots := tree.Build(items, keyOf)

			Expect(shapeOf(roots)).To(Equal([]shape{
				{ID: 1, Children: []shape{}},
				{ID: 2, Children: []shape{
					{ID: 3, Children: []shape{{ID: 4, Children: []shape{}}}},
				}},
			}))
			Expect(tree.Count(roots)).To(Equal(len(items)))
		})

		It("should keep a record that hangs off a loop under its parent", func() {
			items := []record{
				{ID: 1},
				{ID: 4, ParentID: ref(3)},
				{ID: 2, ParentID: ref(3)},
				{ID: 3, ParentID: ref(2)},
			}

			roots := tree.Build(items, keyOf)

			Expect(shapeOf(roots)).To(Equal([]shape{
				{ID: 1, Children: []shape{}},
				{ID: 2, Children: []shape{
					{ID: 3, Children: []shape{{ID: 4, Children: []shape{}}}},
				}},
			}))
			Expect(tree.Find(roots, int64(3)).Children).To(HaveLen(1))
			Expect(tree.Find(roots, int64(3)).Children[0].ID).To(Equal(int64(4)))
		})

		It("should break two separate loops once each", func() {
			items := []record{
				{ID: 10, ParentID: ref(11)},
				{ID: 11, ParentID: ref(10)},
				{ID: 20, ParentID: ref(21)},
				{ID: 21, ParentID: ref(20)},
				{ID: 30, ParentID: ref(21)},
			}

			roots := tree.Build(items, keyOf)

			Expect(shapeOf(roots)).To(Equal([]shape{
				{ID: 10, Children: []shape{{ID: 11, Children: []shape{}}}},
				{ID: 20, Children: []shape{
					{ID: 21, Children: []shape{{ID: 30, Children: []shape{}}}},
				}},
			}))
		})

		It("should handle a record that is its own parent", func() {
			roots := tree.Build([]record{{ID: 7, ParentID: ref(7)}}, keyOf)

			Expect(roots).To(HaveLen(1))
			Expect(roots[0].Children).To(BeEmpty())
		})

		It("should report the loops", func() {
			items := []record{
				{ID: 1},
				{ID: 2, ParentID: ref(3)},
				{ID: 3, ParentID: ref(2)},
				{ID: 5, ParentID: ref(5)},
			}

			Expect(tree.Cycles(items, keyOf)).To(Equal([][]int64{{2, 3}, {5}}))
		})
	})

	Describe("Flatten", func() {
		It("should rebuild into an identical forest", func() {
			inputs := [][]record{
				{
					{ID: 3, ParentID: ref(1)},
					{ID: 1},
					{ID: 2, ParentID: ref(1)},
					{ID: 4, ParentID: ref(3)},
					{ID: 5, ParentID: ref(42)},
					{ID: 6},
				},
				{
					{ID: 1},
					{ID: 2, ParentID: ref(3)},
					{ID: 3, ParentID: ref(2)},
					{ID: 4, ParentID: ref(2)},
				},
			}

			for _, items := range inputs {
				first := tree.Build(items, keyOf)
				again := tree.Build(tree.Flatten(first), keyOf)
				Expect(shapeOf(again)).To(Equal(shapeOf(first)))
			}
		})

		It("should emit parents before children", func() {
			items := []record{
				{ID: 2, ParentID: ref(1)},
				{ID: 1},
			}

			flat := tree.Flatten(tree.Build(items, keyOf))

			Expect(flat[0].ID).To(Equal(int64(1)))
			Expect(flat[1].ID).To(Equal(int64(2)))
		})
	})

	Describe("Find and Walk", func() {
		var roots []*tree.Node[record, int64]

		BeforeEach(func() {
			roots = tree.Build([]record{
				{ID: 1},
				{ID: 2, ParentID: ref(1)},
				{ID: 3, ParentID: ref(2)},
			}, keyOf)
		})

		It("should locate nested nodes", func() {
			n := tree.Find(roots, int64(3))
			Expect(n).NotTo(BeNil())
			Expect(*n.ParentID).To(Equal(int64(2)))
			Expect(tree.Find(roots, int64(9))).To(BeNil())
		})

		It("should report depth and allow pruning", func() {
			depths := map[int64]int{}
			tree.Walk(roots, func(n *tree.Node[record, int64], depth int) bool {
				depths[n.ID] = depth
				return n.ID != 2
			})
			Expect(depths).To(Equal(map[int64]int{1: 0, 2: 1}))
		})
	})
})
