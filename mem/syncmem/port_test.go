package syncmem

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cosim/mem/storage"
)

var _ = Describe("Port", func() {
	var (
		store *storage.Storage
		port  *Port
	)

	BeforeEach(func() {
		store = storage.NewDefaultStorage()
		port = MakeBuilder().
			WithSpec(DataPort("", "main", "")).
			WithStorage(store).
			Build("Data")
	})

	It("should not access memory on the first rising edge", func() {
		store.Write(0, 0x1234)

		_, fired := port.Step(Sample{Clock: 1, ReadEnable: true})

		Expect(fired).To(BeFalse())
		Expect(port.Data()).To(BeZero())
	})

	It("should return the data of the latched address on the next rising edge",
		func() {
			store.Write(0x10, 0xaaaa)
			store.Write(0x20, 0xbbbb)

			_, fired := port.Step(Sample{Clock: 0, Addr: 0x10, ReadEnable: true})
			Expect(fired).To(BeFalse())

			data, fired := port.Step(
				Sample{Clock: 1, Addr: 0x20, ReadEnable: true})
			Expect(fired).To(BeTrue())
			Expect(data).To(Equal(uint64(0xaaaa)))

			data, fired = port.Step(
				Sample{Clock: 0, Addr: 0x20, ReadEnable: true})
			Expect(fired).To(BeFalse())
			Expect(data).To(Equal(uint64(0xaaaa)))

			data, fired = port.Step(Sample{Clock: 1})
			Expect(fired).To(BeTrue())
			Expect(data).To(Equal(uint64(0xbbbb)))
		})

	It("should read the stored value at the edge, not at the request", func() {
		store.Write(0x10, 1)
		port.Step(Sample{Clock: 0, Addr: 0x10, ReadEnable: true})

		store.Write(0x10, 2)
		data, _ := port.Step(Sample{Clock: 1})

		Expect(data).To(Equal(uint64(2)))
	})

	It("should hold the read data until the next read", func() {
		store.Write(1, 0x77)
		port.Step(Sample{Clock: 0, Addr: 1, ReadEnable: true})
		port.Step(Sample{Clock: 1})

		for i := 0; i < 4; i++ {
			data, fired := port.Step(Sample{Clock: uint64(i % 2), Addr: 9})
			Expect(fired).To(BeFalse())
			Expect(data).To(Equal(uint64(0x77)))
		}
	})

	It("should not act when the clock does not rise", func() {
		store.Write(3, 3)
		port.Step(Sample{Clock: 1})
		_, fired := port.Step(Sample{Clock: 1, Addr: 3, ReadEnable: true})
		Expect(fired).To(BeFalse())

		_, fired = port.Step(Sample{Clock: 1, Addr: 3, ReadEnable: true})
		Expect(fired).To(BeFalse())

		_, fired = port.Step(Sample{Clock: 0, Addr: 3, ReadEnable: true})
		Expect(fired).To(BeFalse())
		Expect(port.NumReads()).To(BeZero())
	})

	It("should write the latched address and data", func() {
		port.Step(Sample{
			Clock: 0, WriteEnable: true, WriteAddr: 5, WriteData: 0x55,
		})
		Expect(store.Read(5)).To(BeZero())

		port.Step(Sample{
			Clock: 1, WriteEnable: true, WriteAddr: 6, WriteData: 0x66,
		})

		Expect(store.Read(5)).To(Equal(uint64(0x55)))
		Expect(store.Read(6)).To(BeZero())
		Expect(port.NumWrites()).To(Equal(uint64(1)))
	})

	It("should make a write visible to a read in the next cycle", func() {
		port.Step(Sample{
			Clock: 0, WriteEnable: true, WriteAddr: 9, WriteData: 0x99,
		})
		port.Step(Sample{Clock: 1})
		port.Step(Sample{Clock: 0, Addr: 9, ReadEnable: true})
		data, fired := port.Step(Sample{Clock: 1})

		Expect(fired).To(BeTrue())
		Expect(data).To(Equal(uint64(0x99)))
	})

	It("should read before writing on the same edge", func() {
		store.Write(3, 1)

		port.Step(Sample{
			Clock: 0, Addr: 3, ReadEnable: true,
			WriteEnable: true, WriteAddr: 3, WriteData: 7,
		})
		data, _ := port.Step(Sample{Clock: 1})

		Expect(data).To(Equal(uint64(1)))
		Expect(store.Read(3)).To(Equal(uint64(7)))
	})

	It("should mask latched addresses to the storage width", func() {
		store.Write(0x0004, 0x44)

		port.Step(Sample{Clock: 0, Addr: 0x30004, ReadEnable: true})
		data, _ := port.Step(Sample{Clock: 1})

		Expect(data).To(Equal(uint64(0x44)))
	})

	It("should latch the current sample on every call", func() {
		s := Sample{Clock: 1, Addr: 2, WriteEnable: true, WriteData: 4}

		port.Step(s)

		Expect(port.Latch()).To(Equal(Latch(s)))
	})

	It("should invoke hooks for reads and writes", func() {
		recorder := &accessRecorder{}
		port.AcceptHook(recorder)
		store.Write(2, 0x22)

		port.Step(Sample{
			Clock: 0, Addr: 2, ReadEnable: true,
			WriteEnable: true, WriteAddr: 8, WriteData: 0x88,
		})
		port.Step(Sample{Clock: 1})

		Expect(recorder.accesses).To(Equal([]Access{
			{Port: "Data", Region: "main", Direction: Read, Addr: 2, Data: 0x22},
			{Port: "Data", Region: "main", Direction: Write, Addr: 8, Data: 0x88},
		}))
	})

	It("should behave as a registered memory for any request sequence",
		func() {
			r := rand.New(rand.NewSource(1))
			ref := make(map[uint64]uint64)
			randomSample := func(clock uint64) Sample {
				return Sample{
					Clock:       clock,
					Addr:        uint64(r.Intn(8)),
					ReadEnable:  r.Intn(2) == 0,
					WriteEnable: r.Intn(3) == 0,
					WriteAddr:   uint64(r.Intn(8)),
					WriteData:   uint64(r.Intn(0x10000)),
				}
			}
			expectedData := uint64(0)

			for i := 0; i < 2000; i++ {
				low := randomSample(0)
				data, fired := port.Step(low)
				Expect(fired).To(BeFalse())
				Expect(data).To(Equal(expectedData))

				// The signals presented with the rising edge itself must not
				// matter.
				data, fired = port.Step(randomSample(1))
				Expect(fired).To(Equal(low.ReadEnable))
				if low.ReadEnable {
					expectedData = ref[low.Addr]
				}
				if low.WriteEnable {
					ref[low.WriteAddr] = low.WriteData
				}
				Expect(data).To(Equal(expectedData))
			}

			for addr, data := range ref {
				Expect(store.Read(addr)).To(Equal(data))
			}
		})
})

var _ = Describe("Port wired to a model", func() {
	var (
		store *storage.Storage
		model *signalModel
	)

	BeforeEach(func() {
		store = storage.NewDefaultStorage()
		model = newSignalModel()
	})

	It("should drive the read data signal", func() {
		port := MakeBuilder().
			WithSpec(DataPort("", "main", "d")).
			WithStorage(store).
			Build("Data")
		store.Write(0x40, 0xcafe)

		model.Set("clk", 0)
		model.Set("daddr", 0x40)
		model.Set("dre", 1)
		port.Update(model)
		Expect(model.Get("drdata")).To(BeZero())

		model.Set("clk", 1)
		model.Set("dre", 0)
		port.Update(model)
		Expect(model.Get("drdata")).To(Equal(uint64(0xcafe)))

		model.Set("clk", 0)
		port.Update(model)
		Expect(model.Get("drdata")).To(Equal(uint64(0xcafe)))
	})

	It("should write through the model's signals", func() {
		port := MakeBuilder().
			WithSpec(DataPort("", "main", "d")).
			WithStorage(store).
			Build("Data")

		model.Set("clk", 0)
		model.Set("daddr", 0x12)
		model.Set("dwe", 1)
		model.Set("dwdata", 0x3456)
		port.Update(model)

		model.Set("clk", 1)
		port.Update(model)

		Expect(store.Read(0x12)).To(Equal(uint64(0x3456)))
	})

	It("should use a separate write address signal", func() {
		spec := DataPort("", "main", "d")
		spec.WriteAddr = "dwaddr"
		port := MakeBuilder().WithSpec(spec).WithStorage(store).Build("Data")

		model.Set("clk", 0)
		model.Set("daddr", 1)
		model.Set("dwaddr", 2)
		model.Set("dwe", 1)
		model.Set("dwdata", 0x22)
		port.Update(model)
		model.Set("clk", 1)
		port.Update(model)

		Expect(store.Read(1)).To(BeZero())
		Expect(store.Read(2)).To(Equal(uint64(0x22)))
	})

	It("should fetch on every cycle without an enable", func() {
		port := MakeBuilder().
			WithSpec(FetchPort("", "rom", "i")).
			WithStorage(store).
			Build("Fetch")
		for i := uint64(0); i < 4; i++ {
			store.Write(i, 0x100+i)
		}

		for addr := uint64(0); addr < 4; addr++ {
			model.Set("clk", 0)
			model.Set("iaddr", addr)
			port.Update(model)

			model.Set("clk", 1)
			port.Update(model)
			Expect(model.Get("idata")).To(Equal(0x100 + addr))
		}

		Expect(port.NumReads()).To(Equal(uint64(4)))
	})

	It("should never write on a fetch port", func() {
		port := MakeBuilder().
			WithSpec(FetchPort("", "rom", "i")).
			WithStorage(store).
			Build("Fetch")

		model.Set("clk", 0)
		model.Set("iwe", 1)
		port.Update(model)
		model.Set("clk", 1)
		port.Update(model)

		Expect(port.NumWrites()).To(BeZero())
	})
})

var _ = Describe("Builder", func() {
	It("should create a default storage", func() {
		port := MakeBuilder().Build("P")

		Expect(port.Storage().Capacity()).To(Equal(uint64(65536)))
		Expect(port.Spec().Name).To(Equal("P"))
	})

	It("should panic without a name", func() {
		Expect(func() { MakeBuilder().Build("") }).To(Panic())
	})

	It("should panic without a clock", func() {
		Expect(func() {
			MakeBuilder().WithSpec(PortSpec{Addr: "a"}).Build("P")
		}).To(Panic())
	})
})

var _ = Describe("Direct", func() {
	It("should access the storage immediately and invoke hooks", func() {
		store := storage.NewDefaultStorage()
		d := NewDirect("Backdoor", "main", store)
		recorder := &accessRecorder{}
		d.AcceptHook(recorder)

		d.Write(0x10010, 0x12345)

		Expect(d.Read(0x10)).To(Equal(uint64(0x2345)))
		Expect(recorder.accesses).To(Equal([]Access{
			{Port: "Backdoor", Region: "main", Direction: Write,
				Addr: 0x10, Data: 0x2345},
			{Port: "Backdoor", Region: "main", Direction: Read,
				Addr: 0x10, Data: 0x2345},
		}))
	})
})
