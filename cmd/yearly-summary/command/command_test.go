package command

import (
	"bytes"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Command", func() {
	Describe("parseNow", func() {
		clock := func() time.Time {
			return time.Date(2025, time.March, 3, 10, 0, 0, 0, time.FixedZone("EST", -5*60*60))
		}

		It("uses the clock when no value is given", func() {
			now, err := parseNow("", clock)
			Expect(err).ToNot(HaveOccurred())
			Expect(now).To(Equal(time.Date(2025, time.March, 3, 15, 0, 0, 0, time.UTC)))
		})

		It("parses RFC3339 timestamps as UTC", func() {
			now, err := parseNow("2025-01-01T00:30:00+01:00", clock)
			Expect(err).ToNot(HaveOccurred())
			Expect(now).To(Equal(time.Date(2024, time.December, 31, 23, 30, 0, 0, time.UTC)))
		})

		It("rejects other formats", func() {
			_, err := parseNow("2025-01-01", clock)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("window", func() {
		It("prints the target year and window", func() {
			out := &bytes.Buffer{}
			rootCmd.SetOut(out)
			rootCmd.SetArgs([]string{"window", "--now", "2025-06-15T12:00:00Z"})
			DeferCleanup(func() {
				rootCmd.SetOut(nil)
				rootCmd.SetArgs(nil)
			})

			Expect(rootCmd.Execute()).To(Succeed())
			Expect(out.String()).To(Equal("2024 [2024-01-01T00:00:00Z, 2025-01-01T00:00:00Z)\n"))
		})
	})
})
