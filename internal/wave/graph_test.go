package wave_test

import (
	"errors"

	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/wave"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func vm(id, tenant string, deps ...string) inventory.VM {
	return inventory.VM{ID: id, TenantID: tenant, DependsOn: deps}
}

var _ = Describe("dependency graph", func() {
	It("ignores edges leaving the planning pass", func() {
		g := wave.NewGraph([]inventory.VM{vm("a", "t"), vm("b", "t", "a", "gone", "a")})
		Expect(g.Len()).To(Equal(2))
		Expect(g.Predecessors("b")).To(Equal([]string{"a"}))
		Expect(g.Successors("a")).To(Equal([]string{"b"}))
		Expect(g.DetectCycle()).To(BeNil())
	})

	It("finds a two node cycle", func() {
		g := wave.NewGraph([]inventory.VM{vm("a", "t", "b"), vm("b", "t", "a")})
		cycle := g.DetectCycle()
		Expect(cycle).To(HaveLen(3))
		Expect(cycle[0]).To(Equal(cycle[2]))
		Expect(cycle).To(ContainElements("a", "b"))
	})

	It("finds a cycle behind an acyclic prefix", func() {
		g := wave.NewGraph([]inventory.VM{
			vm("a", "t"),
			vm("b", "t", "a", "d"),
			vm("c", "t", "b"),
			vm("d", "t", "c"),
		})
		cycle := g.DetectCycle()
		Expect(cycle).To(Equal([]string{"b", "c", "d", "b"}))
	})

	It("treats a self dependency as a cycle", func() {
		g := wave.NewGraph([]inventory.VM{vm("a", "t", "a")})
		Expect(g.DetectCycle()).To(Equal([]string{"a", "a"}))
	})

	Context("topological order", func() {
		It("puts predecessors first and breaks ties by rank", func() {
			g := wave.NewGraph([]inventory.VM{
				vm("a", "t"),
				vm("b", "t", "a"),
				vm("c", "t"),
				vm("d", "t", "b", "c"),
			})
			order, err := g.TopoOrder(map[string]int{"c": 0, "a": 1, "b": 2, "d": 3})
			Expect(err).To(BeNil())
			Expect(order).To(Equal([]string{"c", "a", "b", "d"}))
		})

		It("fails on a cycle", func() {
			g := wave.NewGraph([]inventory.VM{vm("a", "t", "b"), vm("b", "t", "a")})
			_, err := g.TopoOrder(nil)
			var cycle *wave.ErrDependencyCycle
			Expect(errors.As(err, &cycle)).To(BeTrue())
			Expect(cycle.Cycle).NotTo(BeEmpty())
		})
	})
})
