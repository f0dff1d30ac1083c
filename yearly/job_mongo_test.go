package yearly_test

import (
	"context"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/mock/gomock"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/tidepool-org/yearly-summary/config"
	"github.com/tidepool-org/yearly-summary/errors"
	"github.com/tidepool-org/yearly-summary/outbox"
	outboxTest "github.com/tidepool-org/yearly-summary/outbox/test"
	"github.com/tidepool-org/yearly-summary/patients"
	patientsTest "github.com/tidepool-org/yearly-summary/patients/test"
	dbTest "github.com/tidepool-org/yearly-summary/store/test"
	"github.com/tidepool-org/yearly-summary/summaries"
	"github.com/tidepool-org/yearly-summary/telemetry"
	"github.com/tidepool-org/yearly-summary/yearly"
)

var _ = Describe("Job with mongo", func() {
	var cfg *config.Config
	var database *mongo.Database
	var now time.Time

	newJobWithOutbox := func(outboxRepo outbox.Repository) *yearly.Job {
		logger := zap.NewNop().Sugar()
		lifecycle := fxtest.NewLifecycle(GinkgoT())

		patientsRepo, err := patients.NewRepository(cfg, database, logger)
		Expect(err).ToNot(HaveOccurred())
		metricsRepo, err := patients.NewMetricsRepository(cfg, database)
		Expect(err).ToNot(HaveOccurred())
		summariesRepo, err := summaries.NewRepository(cfg, database, logger, lifecycle)
		Expect(err).ToNot(HaveOccurred())
		if outboxRepo == nil {
			outboxRepo, err = outbox.NewConfiguredRepository(cfg, database, logger, lifecycle)
			Expect(err).ToNot(HaveOccurred())
		}
		recorder, err := telemetry.NewRecorder(cfg, logger)
		Expect(err).ToNot(HaveOccurred())
		lifecycle.RequireStart()

		job, err := yearly.NewJob(yearly.Params{
			Config:     cfg,
			Patients:   patientsRepo,
			Metrics:    metricsRepo,
			Summaries:  summariesRepo,
			Outbox:     outboxRepo,
			Transactor: yearly.NewTransactor(cfg, database.Client()),
			Telemetry:  recorder,
			Logger:     logger,
		})
		Expect(err).ToNot(HaveOccurred())
		return job
	}

	newJob := func() *yearly.Job {
		return newJobWithOutbox(nil)
	}

	insertPatients := func(ids ...string) {
		documents := make([]interface{}, 0, len(ids))
		for _, id := range ids {
			documents = append(documents, bson.M{"_id": id, "name": "Patient " + id})
		}
		_, err := database.Collection(cfg.PatientsCollection).InsertMany(context.Background(), documents)
		Expect(err).ToNot(HaveOccurred())
	}

	insertMetrics := func(patientId string, timestamps ...time.Time) {
		documents := make([]interface{}, 0, len(timestamps))
		for _, timestamp := range timestamps {
			documents = append(documents, patientsTest.RandomMetricEntry(patientId, timestamp))
		}
		_, err := database.Collection(cfg.MetricsCollection).InsertMany(context.Background(), documents)
		Expect(err).ToNot(HaveOccurred())
	}

	findEvents := func(runId string) []outbox.YearlySummaryGeneratedPayload {
		cursor, err := database.Collection(cfg.OutboxCollection).Find(context.Background(), bson.M{"runId": runId})
		Expect(err).ToNot(HaveOccurred())
		var events []outbox.Event
		Expect(cursor.All(context.Background(), &events)).To(Succeed())

		payloads := make([]outbox.YearlySummaryGeneratedPayload, len(events))
		for i, event := range events {
			Expect(bson.Unmarshal(event.Payload, &payloads[i])).To(Succeed())
		}
		return payloads
	}

	findSummaries := func() []summaries.Summary {
		opts := options.Find().SetSort(bson.D{{Key: "patientId", Value: 1}})
		cursor, err := database.Collection(cfg.SummariesCollection).Find(context.Background(), bson.M{}, opts)
		Expect(err).ToNot(HaveOccurred())
		var result []summaries.Summary
		Expect(cursor.All(context.Background(), &result)).To(Succeed())
		return result
	}

	BeforeEach(func() {
		database = dbTest.GetTestDatabase()
		cfg = &config.Config{
			JobName:             "yearly-summary",
			BatchSize:           2,
			PatientsCollection:  "patient_records",
			MetricsCollection:   "metrics",
			SummariesCollection: "summaries",
			FailurePolicy:       config.FailurePolicyAbort,
			DuplicatePolicy:     config.DuplicatePolicyAppend,
			OutboxCollection:    "outbox",
		}
		now = time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	})

	AfterEach(func() {
		dbTest.DropCollections(cfg.PatientsCollection, cfg.MetricsCollection, cfg.SummariesCollection, cfg.OutboxCollection)
	})

	It("writes one summary per patient for the previous year", func() {
		insertPatients("p1", "p2", "p3")
		insertMetrics("p1",
			patientsTest.RandomTimeInYear(2024),
			patientsTest.RandomTimeInYear(2024),
			patientsTest.RandomTimeInYear(2024),
			patientsTest.RandomTimeInYear(2025),
			patientsTest.RandomTimeInYear(2025),
		)
		insertMetrics("p2",
			time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		)

		report, err := newJob().Run(context.Background(), now)
		Expect(err).ToNot(HaveOccurred())
		Expect(report.Count(yearly.StatusCreated)).To(Equal(3))

		result := findSummaries()
		Expect(result).To(HaveLen(3))
		Expect(result[0].PatientId).To(Equal("p1"))
		Expect(result[0].Year).To(Equal(2024))
		Expect(result[0].Type).To(Equal("yearly"))
		Expect(result[0].Text).To(Equal("Auto-generated yearly summary for 2024: 3 records."))
		Expect(result[0].GeneratedAt).ToNot(BeZero())
		Expect(result[1].Text).To(Equal("Auto-generated yearly summary for 2024: 1 records."))
		Expect(result[2].Text).To(Equal("Auto-generated yearly summary for 2024: 0 records."))
	})

	It("completes without summaries when there are no patients", func() {
		report, err := newJob().Run(context.Background(), now)
		Expect(err).ToNot(HaveOccurred())
		Expect(report.Results).To(BeEmpty())
		Expect(findSummaries()).To(BeEmpty())
	})

	It("creates duplicate summaries when run twice with the append policy", func() {
		insertPatients("p1")

		_, err := newJob().Run(context.Background(), now)
		Expect(err).ToNot(HaveOccurred())
		_, err = newJob().Run(context.Background(), now)
		Expect(err).ToNot(HaveOccurred())

		Expect(findSummaries()).To(HaveLen(2))
	})

	It("keeps a single summary when run twice with the upsert policy", func() {
		cfg.DuplicatePolicy = config.DuplicatePolicyUpsert
		insertPatients("p1")

		_, err := newJob().Run(context.Background(), now)
		Expect(err).ToNot(HaveOccurred())
		insertMetrics("p1", patientsTest.RandomTimeInYear(2024))
		report, err := newJob().Run(context.Background(), now)
		Expect(err).ToNot(HaveOccurred())
		Expect(report.Results[0].Status).To(Equal(yearly.StatusUpdated))

		result := findSummaries()
		Expect(result).To(HaveLen(1))
		Expect(result[0].Text).To(Equal("Auto-generated yearly summary for 2024: 1 records."))
	})

	It("writes outbox events when enabled", func() {
		cfg.OutboxEnabled = true
		insertPatients("p1", "p2")

		report, err := newJob().Run(context.Background(), now)
		Expect(err).ToNot(HaveOccurred())

		count, err := database.Collection(cfg.OutboxCollection).CountDocuments(context.Background(), bson.M{
			"eventType": string(outbox.EventTypeYearlySummaryGenerated),
			"runId":     report.RunId,
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(count).To(Equal(int64(2)))
	})

	It("references the updated summary in the outbox event of an upsert", func() {
		cfg.DuplicatePolicy = config.DuplicatePolicyUpsert
		cfg.OutboxEnabled = true
		insertPatients("p1")

		first, err := newJob().Run(context.Background(), now)
		Expect(err).ToNot(HaveOccurred())
		second, err := newJob().Run(context.Background(), now)
		Expect(err).ToNot(HaveOccurred())
		Expect(second.Results[0].Status).To(Equal(yearly.StatusUpdated))

		result := findSummaries()
		Expect(result).To(HaveLen(1))
		Expect(result[0].Id).ToNot(BeNil())

		created := findEvents(first.RunId)
		Expect(created).To(HaveLen(1))
		Expect(created[0].SummaryId).To(Equal(result[0].Id.Hex()))

		updated := findEvents(second.RunId)
		Expect(updated).To(HaveLen(1))
		Expect(updated[0].SummaryId).To(Equal(result[0].Id.Hex()))
	})

	It("doesn't write anything on a dry run", func() {
		insertPatients("p1")
		insertMetrics("p1", patientsTest.RandomTimeInYear(2024))

		report, err := newJob().RunWithOptions(context.Background(), now, yearly.Options{DryRun: true})
		Expect(err).ToNot(HaveOccurred())
		Expect(report.Results[0].RecordCount).To(Equal(1))
		Expect(findSummaries()).To(BeEmpty())
	})

	Context("with transactions", func() {
		BeforeEach(func() {
			var hello bson.M
			err := database.RunCommand(context.Background(), bson.D{{Key: "hello", Value: 1}}).Decode(&hello)
			Expect(err).ToNot(HaveOccurred())
			if setName, _ := hello["setName"].(string); setName == "" {
				Skip("transactions require a replica set")
			}

			cfg.TransactionsEnabled = true
			cfg.OutboxEnabled = true
		})

		It("commits the summary together with its outbox event", func() {
			insertPatients("p1", "p2")

			report, err := newJob().Run(context.Background(), now)
			Expect(err).ToNot(HaveOccurred())
			Expect(findSummaries()).To(HaveLen(2))
			Expect(findEvents(report.RunId)).To(HaveLen(2))
		})

		It("rolls back the summary when the outbox event can't be written", func() {
			insertPatients("p1")
			ctrl := gomock.NewController(GinkgoT())
			outboxRepo := outboxTest.NewMockRepository(ctrl)
			outboxRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
				Return(fmt.Errorf("%w: outbox unavailable", errors.StorageWrite))

			report, err := newJobWithOutbox(outboxRepo).Run(context.Background(), now)
			Expect(err).To(MatchError(errors.StorageWrite))
			Expect(report.Aborted).To(BeTrue())
			Expect(findSummaries()).To(BeEmpty())
		})
	})
})
