package patients_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/tidepool-org/yearly-summary/patients"
	patientsTest "github.com/tidepool-org/yearly-summary/patients/test"
	"github.com/tidepool-org/yearly-summary/store"
)

var _ = Describe("Iterator", func() {
	var repo *patientsTest.MockRepository
	var ctrl *gomock.Controller

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		repo = patientsTest.NewMockRepository(ctrl)
	})

	AfterEach(func() {
		ctrl.Finish()
	})

	collect := func(iterator *patients.Iterator) []string {
		var ids []string
		for iterator.Next(context.Background()) {
			ids = append(ids, iterator.Patient().Id)
		}
		return ids
	}

	It("stops without a second query when the first page is short", func() {
		records := patientsTest.RandomPatientRecords(3)
		repo.EXPECT().List(gomock.Any(), store.Page{Limit: 5}).Return(records, nil)

		iterator := patients.NewIterator(repo, 5, "")
		Expect(collect(iterator)).To(Equal([]string{records[0].Id, records[1].Id, records[2].Id}))
		Expect(iterator.Err()).ToNot(HaveOccurred())
		Expect(iterator.Cursor()).To(Equal(records[2].Id))
	})

	It("fetches pages until an empty page when the collection size is a multiple of the page size", func() {
		records := patientsTest.RandomPatientRecords(4)
		gomock.InOrder(
			repo.EXPECT().List(gomock.Any(), store.Page{Limit: 2}).Return(records[:2], nil),
			repo.EXPECT().List(gomock.Any(), store.Page{Limit: 2, After: records[1].Id}).Return(records[2:], nil),
			repo.EXPECT().List(gomock.Any(), store.Page{Limit: 2, After: records[3].Id}).Return(nil, nil),
		)

		iterator := patients.NewIterator(repo, 2, "")
		Expect(collect(iterator)).To(HaveLen(4))
		Expect(iterator.Err()).ToNot(HaveOccurred())
	})

	It("yields nothing for an empty collection", func() {
		repo.EXPECT().List(gomock.Any(), store.Page{Limit: 10}).Return([]patients.PatientRecord{}, nil)

		iterator := patients.NewIterator(repo, 10, "")
		Expect(collect(iterator)).To(BeEmpty())
		Expect(iterator.Err()).ToNot(HaveOccurred())
		Expect(iterator.Cursor()).To(BeEmpty())
	})

	It("starts after the given patient", func() {
		records := patientsTest.RandomPatientRecords(5)
		repo.EXPECT().List(gomock.Any(), store.Page{Limit: 10, After: records[2].Id}).Return(records[3:], nil)

		iterator := patients.NewIterator(repo, 10, records[2].Id)
		Expect(iterator.Cursor()).To(Equal(records[2].Id))
		Expect(collect(iterator)).To(Equal([]string{records[3].Id, records[4].Id}))
	})

	It("stops and exposes the error when a page can't be fetched", func() {
		records := patientsTest.RandomPatientRecords(2)
		listErr := errors.New("connection reset")
		gomock.InOrder(
			repo.EXPECT().List(gomock.Any(), store.Page{Limit: 2}).Return(records, nil),
			repo.EXPECT().List(gomock.Any(), store.Page{Limit: 2, After: records[1].Id}).Return(nil, listErr),
		)

		iterator := patients.NewIterator(repo, 2, "")
		Expect(collect(iterator)).To(HaveLen(2))
		Expect(iterator.Err()).To(MatchError(listErr))
		Expect(iterator.Next(context.Background())).To(BeFalse())
	})
})
