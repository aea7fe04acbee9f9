package petfriends_test

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/petfriends-harness/assets/images"
	"github.com/samvad-hq/petfriends-harness/internal/fakeserver"
	"github.com/samvad-hq/petfriends-harness/pkg/petfriends"
)

const (
	email    = "user@example.com"
	password = "secret"
)

type fixture struct {
	fake   *fakeserver.Server
	client *petfriends.Client
	photos string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fake := fakeserver.New(email, password)
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := petfriends.New(petfriends.Options{BaseURL: srv.URL})
	require.NoError(t, err)
	dir, err := images.Resolve("")
	require.NoError(t, err)
	return &fixture{fake: fake, client: client, photos: dir}
}

func (f *fixture) key(t *testing.T) petfriends.AuthKey {
	t.Helper()
	res, err := f.client.GetAPIKey(context.Background(), email, password)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	key, err := res.AuthKey()
	require.NoError(t, err)
	return key
}

func TestNewNormalizesBaseURL(t *testing.T) {
	c, err := petfriends.New(petfriends.Options{})
	require.NoError(t, err)
	assert.Equal(t, petfriends.DefaultBaseURL, c.BaseURL())

	c, err = petfriends.New(petfriends.Options{BaseURL: "http://localhost:8080/prefix"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/prefix/", c.BaseURL())

	_, err = petfriends.New(petfriends.Options{BaseURL: "petfriends.local"})
	assert.Error(t, err)
}

func TestGetAPIKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.client.GetAPIKey(ctx, email, password)
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.True(t, res.Body.Has("key"))

	res, err = f.client.GetAPIKey(ctx, email, "wrong")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.False(t, res.Body.IsStructured())
	_, err = res.AuthKey()
	assert.Error(t, err)
}

func TestPetLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := f.key(t)

	res, err := f.client.AddNewPet(ctx, key, petfriends.PetForm{Name: "Рыжик", AnimalType: "Котик", Age: "1"},
		filepath.Join(f.photos, images.GingerCat))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	added, err := res.Pet()
	require.NoError(t, err)
	assert.Equal(t, "Рыжик", added.Name)
	assert.Equal(t, petfriends.Scalar("1"), added.Age)
	assert.NotEmpty(t, added.PetPhoto)

	res, err = f.client.CreatePetSimple(ctx, key, petfriends.PetForm{Name: "Барсик", AnimalType: "кот", Age: "2"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	simple, err := res.Pet()
	require.NoError(t, err)
	assert.Empty(t, simple.PetPhoto)

	res, err = f.client.ListPets(ctx, key, petfriends.FilterMyPets)
	require.NoError(t, err)
	own, err := res.Pets()
	require.NoError(t, err)
	assert.Equal(t, []string{simple.ID, added.ID}, own.IDs())

	res, err = f.client.UpdatePetInfo(ctx, key, simple.ID, petfriends.PetForm{Name: "Мурзик", AnimalType: "Котэ", Age: "5"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	name, _ := res.Body.Field("name")
	assert.Equal(t, "Мурзик", name)

	res, err = f.client.SetPhotoPet(ctx, key, simple.ID, filepath.Join(f.photos, images.Seed))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	withPhoto, err := res.Pet()
	require.NoError(t, err)
	assert.Equal(t, simple.ID, withPhoto.ID)
	assert.NotEmpty(t, withPhoto.PetPhoto)

	res, err = f.client.DeletePet(ctx, key, simple.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, petfriends.KindRaw, res.Body.Kind())

	res, err = f.client.ListPets(ctx, key, petfriends.FilterAll)
	require.NoError(t, err)
	all, err := res.Pets()
	require.NoError(t, err)
	assert.NotContains(t, all.IDs(), simple.ID)
	assert.Contains(t, all.IDs(), added.ID)
}

func TestMissingPhotoSendsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := f.key(t)
	before := f.fake.Requests()
	missing := filepath.Join(f.photos, images.Missing)

	_, err := f.client.AddNewPet(ctx, key, petfriends.PetForm{Name: "a", AnimalType: "b", Age: "1"}, missing)
	var photoErr *petfriends.PhotoError
	require.True(t, errors.As(err, &photoErr))
	assert.Equal(t, missing, photoErr.Path)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = f.client.SetPhotoPet(ctx, key, "valid_pet_id", missing)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = f.client.SetPhotoPet(ctx, key, "valid_pet_id", f.photos)
	assert.ErrorIs(t, err, fs.ErrInvalid)

	assert.Equal(t, before, f.fake.Requests())
}

func TestEmptyPhotoIsSent(t *testing.T) {
	f := newFixture(t)
	key := f.key(t)
	empty := filepath.Join(t.TempDir(), "empty.jpg")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	res, err := f.client.SetPhotoPet(context.Background(), key, "valid_pet_id", empty)
	require.NoError(t, err)
	assert.NotEqual(t, http.StatusOK, res.Status)
}

func TestInvalidKeyRejectedByEveryAuthenticatedCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bad := petfriends.AuthKey{Key: "invalid_key"}
	form := petfriends.PetForm{Name: "Рыжик", AnimalType: "Котик", Age: "1"}
	photo := filepath.Join(f.photos, images.GingerCat)

	calls := map[string]func() (petfriends.Result, error){
		"list":      func() (petfriends.Result, error) { return f.client.ListPets(ctx, bad, petfriends.FilterMyPets) },
		"add":       func() (petfriends.Result, error) { return f.client.AddNewPet(ctx, bad, form, photo) },
		"create":    func() (petfriends.Result, error) { return f.client.CreatePetSimple(ctx, bad, form) },
		"update":    func() (petfriends.Result, error) { return f.client.UpdatePetInfo(ctx, bad, "valid_pet_id", form) },
		"delete":    func() (petfriends.Result, error) { return f.client.DeletePet(ctx, bad, "valid_pet_id") },
		"set photo": func() (petfriends.Result, error) { return f.client.SetPhotoPet(ctx, bad, "valid_pet_id", photo) },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			res, err := call()
			require.NoError(t, err)
			assert.True(t, res.StatusIn(http.StatusUnauthorized, http.StatusForbidden), "status %d", res.Status)
		})
	}
	assert.Empty(t, f.fake.OwnPets())
}

func TestDeleteWithoutIDRejected(t *testing.T) {
	f := newFixture(t)
	res, err := f.client.DeletePet(context.Background(), f.key(t), "")
	require.NoError(t, err)
	assert.True(t, res.StatusIn(http.StatusBadRequest, http.StatusNotFound), "status %d", res.Status)
}

func TestPetIDIsPathEscaped(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := petfriends.New(petfriends.Options{BaseURL: srv.URL})
	require.NoError(t, err)
	res, err := c.DeletePet(context.Background(), petfriends.AuthKey{Key: "k"}, "a/b c")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, "/api/pets/a%2Fb%20c", gotPath)
}

func TestTransportErrorIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := petfriends.New(petfriends.Options{BaseURL: base})
	require.NoError(t, err)
	_, err = c.GetAPIKey(context.Background(), email, password)
	assert.Error(t, err)
}

type recordingLogger struct {
	debug []map[string]any
}

func (l *recordingLogger) DebugObj(_, _ string, obj interface{}) {
	if m, ok := obj.(map[string]any); ok {
		l.debug = append(l.debug, m)
	}
}

func (l *recordingLogger) WarnObj(string, string, interface{}) {}

func TestRequestLogIncludesResponseContentType(t *testing.T) {
	srv := httptest.NewServer(fakeserver.New(email, password))
	defer srv.Close()

	log := &recordingLogger{}
	c, err := petfriends.New(petfriends.Options{BaseURL: srv.URL, Logger: log})
	require.NoError(t, err)

	_, err = c.GetAPIKey(context.Background(), "", "")
	require.NoError(t, err)
	_, err = c.GetAPIKey(context.Background(), email, password)
	require.NoError(t, err)

	require.Len(t, log.debug, 2)
	assert.Equal(t, "text/html; charset=utf-8", log.debug[0]["content_type"])
	assert.Equal(t, "application/json", log.debug[1]["content_type"])
	assert.Equal(t, http.StatusForbidden, log.debug[0]["status"])
}
