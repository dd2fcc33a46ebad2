package models_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cosim/driver"
	"github.com/sarchlab/cosim/mem/syncmem"
	"github.com/sarchlab/cosim/models"
	"github.com/sarchlab/cosim/sim"
	"github.com/sarchlab/cosim/sim/hooking"
)

type accessRecorder struct {
	accesses []syncmem.Access
}

func (r *accessRecorder) Func(ctx hooking.HookCtx) {
	r.accesses = append(r.accesses, ctx.Item.(syncmem.Access))
}

var _ = Describe("Registry", func() {
	It("should list the built-in models", func() {
		Expect(models.Names()).To(Equal(
			[]string{"checksum", "directcopy", "idle", "memcopy"}))
	})

	It("should find models by name", func() {
		d, found := models.Lookup("memcopy")

		Expect(found).To(BeTrue())
		Expect(d.Ports).To(HaveLen(1))
		Expect(d.Ports[0].Region).To(Equal("main"))

		region, found := d.Region("main")
		Expect(found).To(BeTrue())
		Expect(region.AddrBits).To(Equal(uint(16)))
	})

	It("should not find unknown models", func() {
		_, found := models.Lookup("cpu")

		Expect(found).To(BeFalse())
		Expect(func() { models.MustLookup("cpu") }).To(Panic())
	})

	It("should refuse duplicated names", func() {
		Expect(func() {
			models.Register(models.Descriptor{
				Name: "idle",
				New:  func() sim.Model { return models.NewIdle() },
			})
		}).To(Panic())
	})

	It("should refuse ports on unknown regions", func() {
		Expect(func() {
			models.Register(models.Descriptor{
				Name:  "broken",
				Ports: []syncmem.PortSpec{syncmem.DataPort("D", "x", "")},
				New:   func() sim.Model { return models.NewIdle() },
			})
		}).To(Panic())
	})
})

var _ = Describe("Signals", func() {
	It("should mask values to the signal width", func() {
		m := models.NewMemCopy()

		m.Set("addr", 0x12345)
		m.Set("re", 3)

		Expect(m.Get("addr")).To(Equal(uint64(0x2345)))
		Expect(m.Get("re")).To(Equal(uint64(1)))
	})

	It("should ignore unknown signals", func() {
		m := models.NewIdle()

		m.Set("nope", 1)

		Expect(m.Get("nope")).To(BeZero())
	})

	It("should list signals in declaration order", func() {
		Expect(models.NewIdle().Signals()).To(Equal([]sim.SignalDesc{
			{Name: "clk", Width: 1},
			{Name: "rst", Width: 1},
			{Name: "cycles", Width: 32},
		}))
	})
})

var _ = Describe("Idle", func() {
	It("should count cycles out of reset until the budget runs out", func() {
		r := newRig("idle", driver.MakeBuilder().WithCycles(10))

		res := r.run()

		Expect(res.Reason).To(Equal(driver.HaltCycleBudget))
		Expect(res.HalfCycles).To(Equal(uint64(20)))
		Expect(res.Now).To(Equal(sim.VTime(100)))
		Expect(r.model.Get("cycles")).To(Equal(uint64(7)))
		Expect(r.model.Finished()).To(BeFalse())
	})
})

var _ = Describe("MemCopy", func() {
	It("should copy the words the header names", func() {
		r := newRig("memcopy", driver.MakeBuilder())
		r.load("main", 0x10, 0x20, 4)
		for i, w := range []uint64{0xa, 0xb, 0xc, 0xd} {
			r.stores["main"].Write(0x10+uint64(i), w)
		}

		res := r.run()

		Expect(res.Reason).To(Equal(driver.HaltFinish))
		Expect(r.stores["main"].Words()[0x20:0x25]).To(Equal(
			[]uint64{0xa, 0xb, 0xc, 0xd, 0}))
		Expect(r.stores["main"].Words()[0x10:0x14]).To(Equal(
			[]uint64{0xa, 0xb, 0xc, 0xd}))
		Expect(r.model.Get("done")).To(Equal(uint64(1)))
	})

	It("should go through the port once per word", func() {
		r := newRig("memcopy", driver.MakeBuilder())
		r.load("main", 0x10, 0x20, 3)
		recorder := &accessRecorder{}
		r.ports["Data"].AcceptHook(recorder)

		r.run()

		Expect(r.ports["Data"].NumReads()).To(Equal(uint64(6)))
		Expect(r.ports["Data"].NumWrites()).To(Equal(uint64(3)))
		Expect(recorder.accesses).To(HaveLen(9))
		Expect(recorder.accesses[0].Addr).To(Equal(uint64(0)))
		Expect(recorder.accesses[8]).To(Equal(syncmem.Access{
			Port:      "Data",
			Region:    "main",
			Direction: syncmem.Write,
			Addr:      0x22,
			Data:      0,
		}))
	})

	It("should finish at once on an empty copy", func() {
		r := newRig("memcopy", driver.MakeBuilder())
		r.load("main", 0x10, 0x20, 0)

		res := r.run()

		Expect(res.Reason).To(Equal(driver.HaltFinish))
		Expect(r.ports["Data"].NumWrites()).To(BeZero())
	})

	It("should stop on the cycle budget", func() {
		r := newRig("memcopy", driver.MakeBuilder().WithCycles(5))
		r.load("main", 0x10, 0x20, 100)

		res := r.run()

		Expect(res.Reason).To(Equal(driver.HaltCycleBudget))
		Expect(r.model.Finished()).To(BeFalse())
	})
})

var _ = Describe("Checksum", func() {
	It("should store the sum of the words before the first zero", func() {
		r := newRig("checksum", driver.MakeBuilder())
		r.load("rom", 1, 2, 3, 0x10, 0, 0x100)

		res := r.run()

		Expect(res.Reason).To(Equal(driver.HaltFinish))
		Expect(r.stores["ram"].Read(0)).To(Equal(uint64(0x16)))
		Expect(r.ports["Data"].NumWrites()).To(Equal(uint64(1)))
		Expect(r.model.Get("sum")).To(Equal(uint64(0x16)))
	})

	It("should wrap the sum to 16 bits", func() {
		r := newRig("checksum", driver.MakeBuilder())
		r.load("rom", 0xffff, 2)

		r.run()

		Expect(r.stores["ram"].Read(0)).To(Equal(uint64(1)))
	})

	It("should store zero for an empty rom", func() {
		r := newRig("checksum", driver.MakeBuilder())
		r.stores["ram"].Write(0, 0x55)

		r.run()

		Expect(r.stores["ram"].Read(0)).To(BeZero())
	})
})

var _ = Describe("DirectCopy", func() {
	It("should copy through the bound memory", func() {
		r := newRig("directcopy", driver.MakeBuilder())
		r.load("main", 0x8, 0x30, 3)
		for i, w := range []uint64{7, 8, 9} {
			r.stores["main"].Write(0x8+uint64(i), w)
		}

		res := r.run()

		Expect(res.Reason).To(Equal(driver.HaltFinish))
		Expect(r.stores["main"].Words()[0x30:0x33]).To(Equal(
			[]uint64{7, 8, 9}))
		Expect(r.model.Get("index")).To(Equal(uint64(3)))
	})

	It("should refuse unknown regions", func() {
		Expect(func() {
			models.NewDirectCopy().BindMemory("rom", nil)
		}).To(Panic())
	})

	It("should panic without memory", func() {
		m := models.NewDirectCopy()
		m.Set("clk", 1)

		Expect(m.Eval).To(Panic())
	})
})
