package patients

import (
	"context"

	"github.com/tidepool-org/yearly-summary/store"
)

// Iterator lazily walks every patient record page by page. It can be
// restarted from any position by passing the id of the last processed
// patient to NewIterator.
type Iterator struct {
	repo    Repository
	page    store.Page
	buffer  []PatientRecord
	current PatientRecord
	started bool
	done    bool
	err     error
}

func NewIterator(repo Repository, pageSize int, startAfter string) *Iterator {
	return &Iterator{
		repo: repo,
		page: store.FirstPage(pageSize).WithAfter(startAfter),
	}
}

// Next advances to the next patient, fetching the next page when the current
// one is exhausted. It returns false at the end of the collection or on error.
func (i *Iterator) Next(ctx context.Context) bool {
	if i.err != nil {
		return false
	}

	if len(i.buffer) == 0 {
		if i.done {
			return false
		}

		records, err := i.repo.List(ctx, i.page)
		if err != nil {
			i.err = err
			return false
		}
		if len(records) < i.page.Limit {
			i.done = true
		}
		if len(records) == 0 {
			return false
		}

		i.buffer = records
		i.page = i.page.WithAfter(records[len(records)-1].Id)
	}

	i.current = i.buffer[0]
	i.buffer = i.buffer[1:]
	i.started = true
	return true
}

func (i *Iterator) Patient() PatientRecord {
	return i.current
}

func (i *Iterator) Err() error {
	return i.err
}

// Cursor is the id of the patient last returned by Next, or the starting
// position when Next has not returned a patient yet
func (i *Iterator) Cursor() string {
	if !i.started {
		return i.page.After
	}
	return i.current.Id
}
