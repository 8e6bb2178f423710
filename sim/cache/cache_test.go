package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/fifocal/sim/cache"
)

var _ = Describe("Cache", func() {
	var (
		c *cache.Cache
	)

	BeforeEach(func() {
		// Small cache for testing: 4KB, 4-way, 64B lines
		config := cache.Config{
			Size:          4 * 1024,
			Associativity: 4,
			BlockSize:     64,
			HitLatency:    1,
			MissLatency:   10,
		}
		c = cache.New(config)
	})

	Describe("Read operations", func() {
		It("should miss on cold cache", func() {
			result := c.Read(0x1000)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Latency).To(Equal(uint64(10)))
			Expect(result.Evicted).To(BeFalse())

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(0)))
		})

		It("should hit on cached data", func() {
			c.Read(0x1000)

			result := c.Read(0x1000)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Latency).To(Equal(uint64(1)))

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(2)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(1)))
		})

		It("should hit on different addresses in same cache line", func() {
			c.Read(0x1000)

			Expect(c.Read(0x1008).Hit).To(BeTrue())
			Expect(c.Read(0x1038).Hit).To(BeTrue())
			Expect(c.Read(0x1040).Hit).To(BeFalse())
		})

		It("should miss once per line on a sequential sweep", func() {
			for addr := uint64(0); addr < 0x400; addr += 8 {
				c.Read(addr)
			}

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(128)))
			Expect(stats.Misses).To(Equal(uint64(16)))
		})
	})

	Describe("Eviction", func() {
		It("should evict when cache is full", func() {
			// 16 sets; 0x0000, 0x0400, 0x0800, 0x0C00 and 0x1000 all map to set 0
			c.Read(0x0000)
			c.Read(0x0400)
			c.Read(0x0800)
			c.Read(0x0C00)

			Expect(c.Read(0x0000).Hit).To(BeTrue())
			Expect(c.Read(0x0400).Hit).To(BeTrue())
			Expect(c.Read(0x0800).Hit).To(BeTrue())
			Expect(c.Read(0x0C00).Hit).To(BeTrue())

			result := c.Read(0x1000)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Evicted).To(BeTrue())
			Expect(result.EvictedAddr).To(Equal(uint64(0x0000)))

			stats := c.Stats()
			Expect(stats.Evictions).To(Equal(uint64(1)))

			Expect(c.Read(0x0000).Hit).To(BeFalse())
		})
	})

	Describe("Reset", func() {
		It("should invalidate every line and clear statistics", func() {
			c.Read(0x2000)
			c.Reset()

			Expect(c.Stats()).To(Equal(cache.Statistics{}))
			Expect(c.Read(0x2000).Hit).To(BeFalse())
		})

		It("should keep lines when only statistics are reset", func() {
			c.Read(0x2000)
			c.ResetStats()

			Expect(c.Read(0x2000).Hit).To(BeTrue())
			Expect(c.Stats().Misses).To(BeZero())
		})
	})

	Describe("LineAddr", func() {
		It("should align to the block size", func() {
			Expect(c.LineAddr(0x1234)).To(Equal(uint64(0x1200)))
			Expect(c.LineAddr(0x1240)).To(Equal(uint64(0x1240)))
		})
	})

	Describe("Config", func() {
		It("should create the default data cache config", func() {
			config := cache.DefaultConfig()
			Expect(config.Size).To(Equal(32 * 1024))
			Expect(config.Associativity).To(Equal(8))
			Expect(config.BlockSize).To(Equal(64))
			Expect(config.Validate()).To(Succeed())
		})

		It("should reject impossible geometries", func() {
			config := cache.DefaultConfig()
			config.BlockSize = 12
			Expect(config.Validate()).NotTo(Succeed())

			config = cache.DefaultConfig()
			config.Associativity = 0
			Expect(config.Validate()).NotTo(Succeed())

			config = cache.DefaultConfig()
			config.Size = 1000
			Expect(config.Validate()).NotTo(Succeed())

			config = cache.DefaultConfig()
			config.MissLatency = 0
			Expect(config.Validate()).NotTo(Succeed())
		})
	})
})
