package harness

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/samvad-hq/petfriends-harness/assets/images"
	"github.com/samvad-hq/petfriends-harness/pkg/petfriends"
)

// The service's rejection codes are not documented; negative scenarios accept
// any code from these sets.
var (
	credentialRejections = []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden}
	keyRejections        = []int{http.StatusUnauthorized, http.StatusForbidden}
	missingIDRejections  = []int{http.StatusBadRequest, http.StatusNotFound}
)

const (
	invalidKey      = "invalid_key"
	invalidEmail    = "invalid_email"
	invalidPassword = "invalid_password"
	unknownPetID    = "valid_pet_id"
)

var (
	newPet     = petfriends.PetForm{Name: "Рыжик", AnimalType: "Котик", Age: "1"}
	updatedPet = petfriends.PetForm{Name: "Мурзик", AnimalType: "Котэ", Age: "5"}
	seedPet    = petfriends.PetForm{Name: "Суперкот", AnimalType: "кот", Age: "3"}
)

// Scenarios returns every scenario in run order.
func Scenarios() []Scenario {
	return []Scenario{
		{Name: "api-key-valid-user", Description: "valid credentials yield a key", Run: apiKeyValidUser},
		{Name: "list-all-pets", Description: "listing all pets is non-empty", Run: listAllPets},
		{Name: "add-pet-with-photo", Description: "add a pet with a photo", Run: addPetWithPhoto},
		{Name: "create-pet-simple", Description: "create a pet without a photo", Run: createPetSimple},
		{Name: "update-own-pet", Description: "update the first owned pet", Run: updateOwnPet},
		{Name: "delete-own-pet", Description: "delete the first owned pet", Run: deleteOwnPet},
		{Name: "set-photo-own-pet", Description: "set a photo on the first owned pet", Run: setPhotoOwnPet},
		rejectCredentials("api-key-empty-credentials", "empty email and password are rejected", func(petfriends.Credentials) (string, string) {
			return "", ""
		}),
		rejectCredentials("api-key-wrong-password", "a wrong password is rejected", func(c petfriends.Credentials) (string, string) {
			return c.Email, invalidPassword
		}),
		rejectCredentials("api-key-wrong-email", "an unknown email is rejected", func(c petfriends.Credentials) (string, string) {
			return invalidEmail, c.Password
		}),
		rejectCredentials("api-key-wrong-email-and-password", "unknown credentials are rejected", func(petfriends.Credentials) (string, string) {
			return invalidEmail, invalidPassword
		}),
		{Name: "add-pet-missing-photo", Description: "a missing photo fails before sending", Run: addPetMissingPhoto},
		{Name: "set-photo-missing-photo", Description: "a missing photo fails before sending", Run: setPhotoMissingPhoto},
		{Name: "set-photo-empty-file", Description: "an empty photo is not accepted", Run: setPhotoEmptyFile},
		{Name: "delete-pet-without-id", Description: "deleting without an id is rejected", Run: deletePetWithoutID},
		{Name: "list-pets-invalid-key", Description: "listing with an invalid key is rejected", Run: listPetsInvalidKey},
		{Name: "delete-pet-invalid-key", Description: "deleting with an invalid key is rejected", Run: deletePetInvalidKey},
		{Name: "create-pet-simple-invalid-key", Description: "creating with an invalid key is rejected", Run: createPetSimpleInvalidKey},
		{Name: "update-pet-invalid-key", Description: "updating with an invalid key is rejected", Run: updatePetInvalidKey},
		{Name: "add-pet-invalid-key", Description: "adding with an invalid key is rejected", Run: addPetInvalidKey},
		{Name: "set-photo-invalid-key", Description: "setting a photo with an invalid key is rejected", Run: setPhotoInvalidKey},
	}
}

func apiKeyValidUser(ctx context.Context, env *Env) error {
	res, err := env.Client.GetAPIKey(ctx, env.Creds.Email, env.Creds.Password)
	if err != nil {
		return err
	}
	if err := expectStatus("get api key", res, http.StatusOK); err != nil {
		return err
	}
	return expectField("get api key", res, "key", nil)
}

func listAllPets(ctx context.Context, env *Env) error {
	key, err := authenticate(ctx, env)
	if err != nil {
		return err
	}
	res, err := env.Client.ListPets(ctx, key, petfriends.FilterAll)
	if err != nil {
		return err
	}
	if err := expectStatus("list pets", res, http.StatusOK); err != nil {
		return err
	}
	list, err := res.Pets()
	if err != nil {
		return err
	}
	if len(list.Pets) == 0 {
		return fmt.Errorf("list pets: no pets returned")
	}
	return nil
}

func addPetWithPhoto(ctx context.Context, env *Env) error {
	key, err := authenticate(ctx, env)
	if err != nil {
		return err
	}
	res, err := env.Client.AddNewPet(ctx, key, newPet, env.Photo(images.GingerCat))
	if err != nil {
		return err
	}
	if err := expectStatus("add pet", res, http.StatusOK); err != nil {
		return err
	}
	return expectField("add pet", res, "name", newPet.Name)
}

func createPetSimple(ctx context.Context, env *Env) error {
	key, err := authenticate(ctx, env)
	if err != nil {
		return err
	}
	res, err := env.Client.CreatePetSimple(ctx, key, newPet)
	if err != nil {
		return err
	}
	if err := expectStatus("create pet simple", res, http.StatusOK); err != nil {
		return err
	}
	return expectField("create pet simple", res, "name", newPet.Name)
}

func updateOwnPet(ctx context.Context, env *Env) error {
	key, err := authenticate(ctx, env)
	if err != nil {
		return err
	}
	pet, err := firstOwnPet(ctx, env, key)
	if err != nil {
		return err
	}
	res, err := env.Client.UpdatePetInfo(ctx, key, pet.ID, updatedPet)
	if err != nil {
		return err
	}
	if err := expectStatus("update pet", res, http.StatusOK); err != nil {
		return err
	}
	return expectField("update pet", res, "name", updatedPet.Name)
}

func deleteOwnPet(ctx context.Context, env *Env) error {
	key, err := authenticate(ctx, env)
	if err != nil {
		return err
	}
	pet, err := firstOwnPet(ctx, env, key)
	if err != nil {
		return err
	}
	res, err := env.Client.DeletePet(ctx, key, pet.ID)
	if err != nil {
		return err
	}
	if err := expectStatus("delete pet", res, http.StatusOK); err != nil {
		return err
	}

	after, err := ownPets(ctx, env, key)
	if err != nil {
		return err
	}
	if slices.Contains(after.IDs(), pet.ID) {
		return fmt.Errorf("delete pet: pet %s is still listed", pet.ID)
	}
	return nil
}

func setPhotoOwnPet(ctx context.Context, env *Env) error {
	key, err := authenticate(ctx, env)
	if err != nil {
		return err
	}
	pet, err := firstOwnPet(ctx, env, key)
	if err != nil {
		return err
	}
	res, err := env.Client.SetPhotoPet(ctx, key, pet.ID, env.Photo(images.GingerCat))
	if err != nil {
		return err
	}
	if err := expectStatus("set photo", res, http.StatusOK); err != nil {
		return err
	}
	updated, err := res.Pet()
	if err != nil {
		return err
	}
	if updated.ID != pet.ID {
		return fmt.Errorf("set photo: response is for pet %s, want %s", updated.ID, pet.ID)
	}
	if updated.PetPhoto == "" {
		return fmt.Errorf("set photo: pet_photo is empty")
	}
	return nil
}

func rejectCredentials(name, desc string, creds func(petfriends.Credentials) (string, string)) Scenario {
	return Scenario{
		Name:        name,
		Description: desc,
		Run: func(ctx context.Context, env *Env) error {
			email, password := creds(env.Creds)
			res, err := env.Client.GetAPIKey(ctx, email, password)
			if err != nil {
				return err
			}
			return expectStatus("get api key", res, credentialRejections...)
		},
	}
}

func addPetMissingPhoto(ctx context.Context, env *Env) error {
	key, err := authenticate(ctx, env)
	if err != nil {
		return err
	}
	res, err := env.Client.AddNewPet(ctx, key, newPet, env.Photo(images.Missing))
	return expectMissingFile("add pet", res, err)
}

func setPhotoMissingPhoto(ctx context.Context, env *Env) error {
	key, err := authenticate(ctx, env)
	if err != nil {
		return err
	}
	res, err := env.Client.SetPhotoPet(ctx, key, unknownPetID, env.Photo(images.Missing))
	return expectMissingFile("set photo", res, err)
}

func setPhotoEmptyFile(ctx context.Context, env *Env) error {
	key, err := authenticate(ctx, env)
	if err != nil {
		return err
	}
	path, cleanup, err := env.emptyPhoto()
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := env.Client.SetPhotoPet(ctx, key, unknownPetID, path)
	if err != nil {
		return err
	}
	return expectStatusNot("set photo", res, http.StatusOK)
}

func deletePetWithoutID(ctx context.Context, env *Env) error {
	key, err := authenticate(ctx, env)
	if err != nil {
		return err
	}
	res, err := env.Client.DeletePet(ctx, key, "")
	if err != nil {
		return err
	}
	return expectStatus("delete pet", res, missingIDRejections...)
}

func listPetsInvalidKey(ctx context.Context, env *Env) error {
	res, err := env.Client.ListPets(ctx, petfriends.AuthKey{Key: invalidKey}, petfriends.FilterMyPets)
	if err != nil {
		return err
	}
	return expectStatus("list pets", res, keyRejections...)
}

func deletePetInvalidKey(ctx context.Context, env *Env) error {
	res, err := env.Client.DeletePet(ctx, petfriends.AuthKey{Key: invalidKey}, unknownPetID)
	if err != nil {
		return err
	}
	return expectStatus("delete pet", res, keyRejections...)
}

func createPetSimpleInvalidKey(ctx context.Context, env *Env) error {
	res, err := env.Client.CreatePetSimple(ctx, petfriends.AuthKey{Key: invalidKey}, newPet)
	if err != nil {
		return err
	}
	return expectStatus("create pet simple", res, keyRejections...)
}

func updatePetInvalidKey(ctx context.Context, env *Env) error {
	res, err := env.Client.UpdatePetInfo(ctx, petfriends.AuthKey{Key: invalidKey}, unknownPetID, updatedPet)
	if err != nil {
		return err
	}
	return expectStatus("update pet", res, keyRejections...)
}

func addPetInvalidKey(ctx context.Context, env *Env) error {
	res, err := env.Client.AddNewPet(ctx, petfriends.AuthKey{Key: invalidKey}, newPet, env.Photo(images.GingerCat))
	if err != nil {
		return err
	}
	return expectStatus("add pet", res, keyRejections...)
}

func setPhotoInvalidKey(ctx context.Context, env *Env) error {
	res, err := env.Client.SetPhotoPet(ctx, petfriends.AuthKey{Key: invalidKey}, unknownPetID, env.Photo(images.GingerCat))
	if err != nil {
		return err
	}
	return expectStatus("set photo", res, keyRejections...)
}

// authenticate opens a fresh session for one scenario.
func authenticate(ctx context.Context, env *Env) (petfriends.AuthKey, error) {
	res, err := env.Client.GetAPIKey(ctx, env.Creds.Email, env.Creds.Password)
	if err != nil {
		return petfriends.AuthKey{}, err
	}
	if err := expectStatus("get api key", res, http.StatusOK); err != nil {
		return petfriends.AuthKey{}, err
	}
	return res.AuthKey()
}

func ownPets(ctx context.Context, env *Env, key petfriends.AuthKey) (petfriends.PetList, error) {
	res, err := env.Client.ListPets(ctx, key, petfriends.FilterMyPets)
	if err != nil {
		return petfriends.PetList{}, err
	}
	if err := expectStatus("list own pets", res, http.StatusOK); err != nil {
		return petfriends.PetList{}, err
	}
	return res.Pets()
}

// firstOwnPet returns the first owned pet, creating one when there is none.
func firstOwnPet(ctx context.Context, env *Env, key petfriends.AuthKey) (petfriends.Pet, error) {
	list, err := ownPets(ctx, env, key)
	if err != nil {
		return petfriends.Pet{}, err
	}
	if len(list.Pets) > 0 {
		return list.Pets[0], nil
	}

	res, err := env.Client.AddNewPet(ctx, key, seedPet, env.Photo(images.Seed))
	if err != nil {
		return petfriends.Pet{}, fmt.Errorf("seed pet: %w", err)
	}
	if err := expectStatus("seed pet", res, http.StatusOK); err != nil {
		return petfriends.Pet{}, err
	}
	if list, err = ownPets(ctx, env, key); err != nil {
		return petfriends.Pet{}, err
	}
	if len(list.Pets) == 0 {
		return petfriends.Pet{}, fmt.Errorf("seed pet: own pet list still empty")
	}
	return list.Pets[0], nil
}
