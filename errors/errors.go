package errors

import (
	"errors"
)

var (
	StorageRead   = JobError{KindStorageRead, errors.New("storage read failed")}
	StorageWrite  = JobError{KindStorageWrite, errors.New("storage write failed")}
	Duplicate     = JobError{KindDuplicate, errors.New("duplicate")}
	InvalidConfig = JobError{KindInvalidConfig, errors.New("invalid configuration")}
	Cancelled     = JobError{KindCancelled, errors.New("cancelled")}
)

type Kind string

const (
	KindStorageRead   Kind = "storage_read"
	KindStorageWrite  Kind = "storage_write"
	KindDuplicate     Kind = "duplicate"
	KindInvalidConfig Kind = "invalid_config"
	KindCancelled     Kind = "cancelled"
	KindUnknown       Kind = "unknown"
)

type JobError struct {
	Kind Kind
	Err  error
}

func (j JobError) Unwrap() error {
	return j.Err
}

func (j JobError) Error() string {
	return j.Err.Error()
}

// KindOf returns the kind of the first JobError found in the error chain
func KindOf(err error) Kind {
	var jobErr JobError
	if errors.As(err, &jobErr) {
		return jobErr.Kind
	}
	return KindUnknown
}
