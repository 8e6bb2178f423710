package calib_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/fifocal/calib"
)

var _ = Describe("Matrix", func() {
	var (
		m *calib.Matrix
	)

	BeforeEach(func() {
		var err error
		m, err = calib.NewMatrix(calib.Bounds{MinDepth: 2, MaxDepth: 4, MinThreshold: 2})
		Expect(err).NotTo(HaveOccurred())
	})

	It("should cover depths by rows and thresholds by columns", func() {
		Expect(m.Rows()).To(Equal(3))
		Expect(m.Cols()).To(Equal(3))
		Expect(m.Depths()).To(Equal([]uint32{2, 3, 4}))
		Expect(m.Thresholds()).To(Equal([]uint32{2, 3, 4}))
	})

	It("should start empty", func() {
		Expect(m.Populated()).To(BeZero())
		for r := 0; r < m.Rows(); r++ {
			for c := 0; c < m.Cols(); c++ {
				Expect(m.At(r, c).Outcome).To(Equal(calib.Unswept))
			}
		}
	})

	It("should store and return verdicts", func() {
		v := calib.Verdict{Outcome: calib.StableUnderStress, Duration: 819}
		Expect(m.Set(calib.Config{Depth: 3, Threshold: 2}, v)).To(Succeed())

		got, ok := m.Get(3, 2)
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(v))
		Expect(m.At(1, 0)).To(Equal(v))
		Expect(m.Populated()).To(Equal(1))
		Expect(m.Count(calib.StableUnderStress)).To(Equal(1))
	})

	It("should report unset and outside cells as absent", func() {
		_, ok := m.Get(2, 3)
		Expect(ok).To(BeFalse())

		_, ok = m.Get(5, 2)
		Expect(ok).To(BeFalse())

		_, ok = m.Get(3, 1)
		Expect(ok).To(BeFalse())
	})

	It("should refuse a second write to the same cell", func() {
		c := calib.Config{Depth: 4, Threshold: 4}
		Expect(m.Set(c, calib.Verdict{Outcome: calib.UnstableImmediate})).To(Succeed())
		Expect(m.Set(c, calib.Verdict{Outcome: calib.StableIdle})).NotTo(Succeed())

		got, _ := m.Get(4, 4)
		Expect(got.Outcome).To(Equal(calib.UnstableImmediate))
	})

	It("should refuse cells outside the swept triangle", func() {
		v := calib.Verdict{Outcome: calib.StableIdle}
		Expect(m.Set(calib.Config{Depth: 2, Threshold: 3}, v)).NotTo(Succeed())
		Expect(m.Set(calib.Config{Depth: 5, Threshold: 2}, v)).NotTo(Succeed())
		Expect(m.Set(calib.Config{Depth: 3, Threshold: 1}, v)).NotTo(Succeed())
	})

	It("should refuse unswept verdicts", func() {
		Expect(m.Set(calib.Config{Depth: 3, Threshold: 3}, calib.Verdict{})).NotTo(Succeed())
	})

	It("should reject invalid bounds", func() {
		_, err := calib.NewMatrix(calib.Bounds{MinDepth: 3, MaxDepth: 2, MinThreshold: 1})
		Expect(err).To(HaveOccurred())

		_, err = calib.NewMatrix(calib.Bounds{MinDepth: 1, MaxDepth: calib.DepthLimit + 1, MinThreshold: 1})
		Expect(err).To(HaveOccurred())

		_, err = calib.NewMatrix(calib.Bounds{MinDepth: 1, MaxDepth: 4, MinThreshold: 5})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Config", func() {
	It("should derive the refill amount from depth and threshold", func() {
		Expect(calib.Config{Depth: 7, Threshold: 4}.RefillAmount()).To(Equal(uint32(4)))
		Expect(calib.Config{Depth: 5, Threshold: 5}.RefillAmount()).To(Equal(uint32(1)))
		Expect(calib.Config{Depth: 5, Threshold: 1}.RefillAmount()).To(Equal(uint32(5)))
	})

	It("should validate the threshold range", func() {
		Expect(calib.Config{Depth: 1, Threshold: 1}.Validate()).To(Succeed())
		Expect(calib.Config{Depth: 0, Threshold: 0}.Validate()).NotTo(Succeed())
		Expect(calib.Config{Depth: 3, Threshold: 0}.Validate()).NotTo(Succeed())
		Expect(calib.Config{Depth: 3, Threshold: 4}.Validate()).NotTo(Succeed())
	})

	It("should format as a pair", func() {
		Expect(calib.Config{Depth: 7, Threshold: 4}.String()).To(Equal("(7,4)"))
	})
})

var _ = Describe("Verdict", func() {
	It("should map outcomes onto the tri-state", func() {
		Expect(calib.Verdict{}.Class()).To(Equal(calib.ClassNone))
		Expect(calib.Verdict{Outcome: calib.UnstableImmediate}.Class()).To(Equal(calib.ClassUnstable))
		Expect(calib.Verdict{Outcome: calib.UnstableUnderStress}.Class()).To(Equal(calib.ClassUnstable))
		Expect(calib.Verdict{Outcome: calib.StableIdle}.Class()).To(Equal(calib.ClassStableIdle))
		Expect(calib.Verdict{Outcome: calib.StableUnderStress}.Class()).To(Equal(calib.ClassStableUnderStress))
	})

	It("should only call stable outcomes stable", func() {
		Expect(calib.Verdict{Outcome: calib.StableIdle}.Stable()).To(BeTrue())
		Expect(calib.Verdict{Outcome: calib.StableUnderStress}.Stable()).To(BeTrue())
		Expect(calib.Verdict{Outcome: calib.UnstableUnderStress}.Stable()).To(BeFalse())
		Expect(calib.Verdict{}.Stable()).To(BeFalse())
	})

	It("should print the duration of a stable verdict", func() {
		Expect(calib.Verdict{Outcome: calib.StableUnderStress, Duration: 42}.String()).
			To(Equal("StableUnderStress(42)"))
		Expect(calib.Verdict{Outcome: calib.UnstableImmediate}.String()).To(Equal("Unstable(immediate)"))
		Expect(calib.Verdict{Outcome: calib.UnstableUnderStress}.String()).To(Equal("Unstable(under_stress)"))
		Expect(calib.Verdict{Outcome: calib.StableIdle}.String()).To(Equal("StableIdle"))
	})
})
