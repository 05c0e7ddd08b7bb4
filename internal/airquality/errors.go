package airquality

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport covers network failures and unusable HTTP responses during a fetch.
	ErrTransport = errors.New("transport failure")
	// ErrEnvelopeMissing is returned when a response lacks the expected success envelope.
	ErrEnvelopeMissing = errors.New("no data for region")
	// ErrEmptyDataset means a cycle produced nothing that could be aggregated.
	ErrEmptyDataset = errors.New("empty dataset")
)

// FetchError ties a fetch failure to the region it happened for.
type FetchError struct {
	Region string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Region, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
