package test

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/tidepool-org/yearly-summary/patients"
	"github.com/tidepool-org/yearly-summary/test"
)

// RandomPatientRecords returns count records sorted the way the repository pages them
func RandomPatientRecords(count int) []patients.PatientRecord {
	records := make([]patients.PatientRecord, count)
	for i := range records {
		records[i] = patients.PatientRecord{
			Id: PatientId(i),
		}
	}
	return records
}

// PatientId returns ids whose lexical order matches i
func PatientId(i int) string {
	return fmt.Sprintf("patient-%06d", i)
}

func RandomMetricEntry(patientId string, timestamp time.Time) patients.MetricEntry {
	return patients.MetricEntry{
		PatientId: patientId,
		Timestamp: timestamp,
		Payload: bson.M{
			"type":  test.Faker.RandomStringElement([]string{"heartRate", "weight", "bloodPressure", "glucose"}),
			"value": test.Faker.Float64(2, 10, 200),
			"unit":  test.Faker.RandomStringElement([]string{"bpm", "kg", "mmHg", "mg/dL"}),
		},
	}
}

// RandomTimeInYear returns a random instant in [Jan 1 year, Jan 1 year+1) UTC
func RandomTimeInYear(year int) time.Time {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	offset := test.Rand.Int63n(int64(end.Sub(start) / time.Millisecond))
	return start.Add(time.Duration(offset) * time.Millisecond)
}
