package petfriends

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
)

// Result is the normalized outcome of one call: the status code and the body.
// Callers must check both; a 200 does not guarantee a structured body.
type Result struct {
	Status int
	Body   Body
}

// OK reports whether the service answered 200.
func (r Result) OK() bool { return r.Status == http.StatusOK }

// StatusIn reports whether the status is one of codes.
func (r Result) StatusIn(codes ...int) bool { return slices.Contains(codes, r.Status) }

// AuthKey decodes the body of a key response.
func (r Result) AuthKey() (AuthKey, error) {
	var key AuthKey
	if err := r.Body.Decode(&key); err != nil {
		return AuthKey{}, fmt.Errorf("auth key (status %d): %w", r.Status, err)
	}
	if key.Key == "" {
		return AuthKey{}, fmt.Errorf("auth key (status %d): %w", r.Status, errors.New("key missing from response"))
	}
	return key, nil
}

// Pets decodes the body of a listing response.
func (r Result) Pets() (PetList, error) {
	var list PetList
	if err := r.Body.Decode(&list); err != nil {
		return PetList{}, fmt.Errorf("pet list (status %d): %w", r.Status, err)
	}
	return list, nil
}

// Pet decodes the body of a single-pet response.
func (r Result) Pet() (Pet, error) {
	var pet Pet
	if err := r.Body.Decode(&pet); err != nil {
		return Pet{}, fmt.Errorf("pet (status %d): %w", r.Status, err)
	}
	return pet, nil
}
