package hooking_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/cachesim/sim/hooking"
)

type namedDomain struct {
	hooking.HookableBase
}

func (d *namedDomain) Name() string { return "Domain" }

var hookPosTest = &hooking.HookPos{Name: "Test"}
var hookPosOther = &hooking.HookPos{Name: "Other"}

var _ = Describe("HookableBase", func() {
	var d *namedDomain

	BeforeEach(func() {
		d = &namedDomain{}
	})

	It("should invoke registered hooks in order", func() {
		order := []int{}
		f1 := hooking.HookFunc(func(hooking.HookCtx) { order = append(order, 1) })
		f2 := hooking.HookFunc(func(hooking.HookCtx) { order = append(order, 2) })

		d.AcceptHook(&f1)
		d.AcceptHook(&f2)
		d.InvokeHook(hooking.HookCtx{Domain: d, Pos: hookPosTest})

		Expect(d.NumHooks()).To(Equal(2))
		Expect(d.Hooks()).To(HaveLen(2))
		Expect(order).To(Equal([]int{1, 2}))
	})

	It("should panic on duplicated hooks", func() {
		h := hooking.NewCountHook()
		d.AcceptHook(h)
		Expect(func() { d.AcceptHook(h) }).To(Panic())
	})

	It("should count positions and details", func() {
		h := hooking.NewCountHook()
		d.AcceptHook(h)

		d.InvokeHook(hooking.HookCtx{Domain: d, Pos: hookPosTest, Detail: "hit"})
		d.InvokeHook(hooking.HookCtx{Domain: d, Pos: hookPosTest, Detail: "hit"})
		d.InvokeHook(hooking.HookCtx{Domain: d, Pos: hookPosOther})

		Expect(h.Names()).To(Equal([]string{"Test.hit", "Other"}))
		Expect(h.Count("Test.hit")).To(Equal(uint64(2)))
		Expect(h.Count("Other")).To(Equal(uint64(1)))
	})

	It("should log only the selected positions", func() {
		buf := new(bytes.Buffer)
		logger := logrus.New()
		logger.SetOutput(buf)
		logger.SetLevel(logrus.DebugLevel)

		d.AcceptHook(hooking.NewLogHook(logger, hookPosTest))
		d.InvokeHook(hooking.HookCtx{Domain: d, Pos: hookPosTest, Now: 7, Item: 12})
		d.InvokeHook(hooking.HookCtx{Domain: d, Pos: hookPosOther, Item: 13})

		Expect(buf.String()).To(ContainSubstring("cycle=7"))
		Expect(buf.String()).To(ContainSubstring("where=Domain"))
		Expect(buf.String()).NotTo(ContainSubstring("Other"))
	})

	It("should average measured values per key", func() {
		t := hooking.NewAverageTracer(func(ctx hooking.HookCtx) (string, float64, bool) {
			v, ok := ctx.Item.(int)
			if !ok {
				return "", 0, false
			}

			return ctx.Pos.Name, float64(v), true
		})
		d.AcceptHook(t)

		d.InvokeHook(hooking.HookCtx{Domain: d, Pos: hookPosTest, Item: 1})
		d.InvokeHook(hooking.HookCtx{Domain: d, Pos: hookPosTest, Item: 4})
		d.InvokeHook(hooking.HookCtx{Domain: d, Pos: hookPosOther, Item: 10})
		d.InvokeHook(hooking.HookCtx{Domain: d, Pos: hookPosOther, Item: "skip"})

		Expect(t.Keys()).To(Equal([]string{"Test", "Other"}))
		Expect(t.Total("Test")).To(Equal(5.0))
		Expect(t.Average("Test")).To(Equal(2.5))
		Expect(t.Count("Other")).To(Equal(uint64(1)))
		Expect(t.Average("missing")).To(Equal(0.0))
	})
})
