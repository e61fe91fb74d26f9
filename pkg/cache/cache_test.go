package cache

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Cache", func() {
	var (
		c   *Cache
		now time.Time
	)

	BeforeEach(func() {
		c = New(time.Hour)
		now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		c.now = func() time.Time { return now }
	})

	Describe("Lookup", func() {
		It("misses on an unknown prompt", func() {
			_, ok := c.Lookup("Привет")
			Expect(ok).To(BeFalse())
		})

		It("hits on a stored prompt within its TTL", func() {
			c.Store("Привет", "Здравствуйте!")

			now = now.Add(30 * time.Minute)
			text, ok := c.Lookup("Привет")
			Expect(ok).To(BeTrue())
			Expect(text).To(Equal("Здравствуйте!"))
		})

		It("keys on the exact prompt text", func() {
			c.Store("Привет", "Здравствуйте!")

			_, ok := c.Lookup("привет")
			Expect(ok).To(BeFalse())
			_, ok = c.Lookup("Привет!")
			Expect(ok).To(BeFalse())
		})

		It("still hits at exactly the expiry instant", func() {
			c.Store("Привет", "Здравствуйте!")

			now = now.Add(time.Hour)
			_, ok := c.Lookup("Привет")
			Expect(ok).To(BeTrue())
		})

		It("misses once the TTL has passed", func() {
			c.Store("Привет", "Здравствуйте!")

			now = now.Add(time.Hour + time.Second)
			_, ok := c.Lookup("Привет")
			Expect(ok).To(BeFalse())
		})

		It("drops an expired entry when it is discovered", func() {
			c.Store("Привет", "Здравствуйте!")
			Expect(c.Len()).To(Equal(1))

			now = now.Add(2 * time.Hour)
			_, ok := c.Lookup("Привет")
			Expect(ok).To(BeFalse())
			Expect(c.Len()).To(BeZero())
		})
	})

	Describe("Store", func() {
		It("overwrites an existing entry", func() {
			c.Store("Привет", "первый ответ")
			c.Store("Привет", "второй ответ")

			text, ok := c.Lookup("Привет")
			Expect(ok).To(BeTrue())
			Expect(text).To(Equal("второй ответ"))
			Expect(c.Len()).To(Equal(1))
		})

		It("restarts the TTL on overwrite", func() {
			c.Store("Привет", "первый ответ")

			now = now.Add(50 * time.Minute)
			c.Store("Привет", "второй ответ")

			// 100 minutes after the first store, 50 after the second
			now = now.Add(50 * time.Minute)
			text, ok := c.Lookup("Привет")
			Expect(ok).To(BeTrue())
			Expect(text).To(Equal("второй ответ"))
		})
	})

	It("falls back to the default TTL when none is configured", func() {
		Expect(New(0).ttl).To(Equal(DefaultTTL))
		Expect(New(-time.Minute).ttl).To(Equal(DefaultTTL))
	})
})
