package test

import (
	"math/rand"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jaswdr/faker"
	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// Random data is seeded from ginkgo so a failing run can be reproduced with --seed
var (
	Source = rand.NewSource(ginkgo.GinkgoRandomSeed())
	Rand   = rand.New(Source)
	Faker  = faker.NewWithSeed(Source)
)

// Test runs the specs of the calling package. The suite is named after the
// package directory.
func Test(t *testing.T) {
	RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, suiteName())
}

func suiteName() string {
	_, file, _, ok := runtime.Caller(2)
	if !ok {
		return "yearly-summary"
	}
	return filepath.Base(filepath.Dir(file))
}
