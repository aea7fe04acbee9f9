package petfriends

import (
	"encoding/json"
	"fmt"
)

// Filter selects which pets a listing returns.
type Filter string

const (
	FilterAll    Filter = ""
	FilterMyPets Filter = "my_pets"
)

// Credentials identify a PetFriends account.
type Credentials struct {
	Email    string
	Password string
}

// AuthKey is the opaque token issued by the key endpoint.
type AuthKey struct {
	Key string `json:"key"`
}

// PetForm carries the fields submitted when creating or updating a pet.
type PetForm struct {
	Name       string
	AnimalType string
	Age        string
}

func (f PetForm) values() map[string]string {
	return map[string]string{
		"name":        f.Name,
		"animal_type": f.AnimalType,
		"age":         f.Age,
	}
}

// Pet is a pet record as returned by the remote service.
type Pet struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AnimalType string `json:"animal_type"`
	Age        Scalar `json:"age"`
	PetPhoto   string `json:"pet_photo"`
	UserID     string `json:"user_id"`
	CreatedAt  Scalar `json:"created_at"`
}

// PetList is the envelope of the listing endpoint.
type PetList struct {
	Pets []Pet `json:"pets"`
}

// IDs returns the ids of all pets in the list, in order.
func (l PetList) IDs() []string {
	ids := make([]string, 0, len(l.Pets))
	for _, p := range l.Pets {
		ids = append(ids, p.ID)
	}
	return ids
}

// Scalar holds a JSON string or number as text. The service is not
// consistent about how it encodes ages and timestamps.
type Scalar string

func (s *Scalar) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = Scalar(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("scalar must be a string or number: %w", err)
	}
	*s = Scalar(num.String())
	return nil
}

func (s Scalar) String() string { return string(s) }
