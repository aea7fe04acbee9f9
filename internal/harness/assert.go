package harness

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/samvad-hq/petfriends-harness/pkg/petfriends"
)

// StatusError reports a status code outside the expected set.
type StatusError struct {
	Op      string
	Got     int
	Want    []int
	Exclude bool // Want lists forbidden codes instead of allowed ones
	Body    string
}

func (e *StatusError) Error() string {
	if e.Exclude {
		return fmt.Sprintf("%s: status %d, want anything but %v; body: %s", e.Op, e.Got, e.Want, e.Body)
	}
	return fmt.Sprintf("%s: status %d, want one of %v; body: %s", e.Op, e.Got, e.Want, e.Body)
}

func expectStatus(op string, res petfriends.Result, allowed ...int) error {
	if res.StatusIn(allowed...) {
		return nil
	}
	return &StatusError{Op: op, Got: res.Status, Want: allowed, Body: res.Body.String()}
}

func expectStatusNot(op string, res petfriends.Result, forbidden ...int) error {
	if !res.StatusIn(forbidden...) {
		return nil
	}
	return &StatusError{Op: op, Got: res.Status, Want: forbidden, Exclude: true, Body: res.Body.String()}
}

func expectField(op string, res petfriends.Result, field string, want any) error {
	got, ok := res.Body.Field(field)
	if !ok {
		return fmt.Errorf("%s: body has no %q field: %s", op, field, res.Body.String())
	}
	if want != nil && got != want {
		return fmt.Errorf("%s: %s = %v, want %v", op, field, got, want)
	}
	return nil
}

// expectMissingFile asserts err is a local photo error for a file that does
// not exist, meaning nothing was sent.
func expectMissingFile(op string, res petfriends.Result, err error) error {
	if err == nil {
		return fmt.Errorf("%s: expected a missing-file error, got status %d", op, res.Status)
	}
	var photoErr *petfriends.PhotoError
	if !errors.As(err, &photoErr) || !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: expected a missing-file error, got %w", op, err)
	}
	return nil
}
