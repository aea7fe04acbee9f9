package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/petfriends-harness/internal/config"
	"github.com/samvad-hq/petfriends-harness/internal/fakeserver"
)

const (
	testEmail    = "user@example.com"
	testPassword = "secret"
)

func newTestConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	return &config.Config{
		BaseURL:                baseURL,
		Email:                  testEmail,
		Password:               testPassword,
		HTTPTimeout:            5 * time.Second,
		StorageType:            "bbolt",
		BBoltPath:              filepath.Join(t.TempDir(), "runs.db"),
		StorageTTL:             time.Hour,
		StorageCleanupInterval: time.Hour,
	}
}

func execute(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewCommand(cfg, nil)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestKeyCommand(t *testing.T) {
	srv := httptest.NewServer(fakeserver.New(testEmail, testPassword))
	defer srv.Close()
	cfg := newTestConfig(t, srv.URL)

	out, err := execute(t, cfg, "key")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "status: 200\n"), out)
	assert.Contains(t, out, `"key"`)

	out, err = execute(t, cfg, "key", "--password", "wrong")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "status: 403\n"), out)
	assert.Contains(t, out, "This user wasn't found in database")
}

func TestPetCommandsRoundTrip(t *testing.T) {
	fake := fakeserver.New(testEmail, testPassword)
	srv := httptest.NewServer(fake)
	defer srv.Close()
	cfg := newTestConfig(t, srv.URL)

	out, err := execute(t, cfg, "add", "--name", "Рыжик", "--type", "Котик", "--age", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "status: 200")
	require.Len(t, fake.OwnPets(), 1)
	id := fake.OwnPets()[0].ID

	out, err = execute(t, cfg, "create", "--name", "Барсик", "--type", "кот", "--age", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Барсик")

	out, err = execute(t, cfg, "update", id, "--name", "Мурзик", "--type", "Котэ", "--age", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Мурзик")

	out, err = execute(t, cfg, "set-photo", id, "--photo", "cat1.jpg")
	require.NoError(t, err)
	assert.Contains(t, out, "data:image/jpeg;base64,")

	out, err = execute(t, cfg, "list", "--filter", "my_pets")
	require.NoError(t, err)
	assert.Contains(t, out, id)

	out, err = execute(t, cfg, "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "status: 200")
	assert.Len(t, fake.OwnPets(), 1)
}

func TestAuthKeyOverride(t *testing.T) {
	srv := httptest.NewServer(fakeserver.New(testEmail, testPassword))
	defer srv.Close()
	cfg := newTestConfig(t, srv.URL)
	cfg.Email, cfg.Password = "", ""

	out, err := execute(t, cfg, "list", "--auth-key", "bogus")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "status: 403\n"), out)

	_, err = execute(t, cfg, "list")
	assert.Error(t, err)
}

func TestAddMissingPhotoFailsLocally(t *testing.T) {
	fake := fakeserver.New(testEmail, testPassword)
	srv := httptest.NewServer(fake)
	defer srv.Close()
	cfg := newTestConfig(t, srv.URL)

	_, err := execute(t, cfg, "add", "--name", "a", "--type", "b", "--age", "1",
		"--photo", filepath.Join(t.TempDir(), "missing.jpg"))
	require.Error(t, err)
	// Only the key request reached the server.
	assert.EqualValues(t, 1, fake.Requests())
}

func TestSmokeAndHistoryCommands(t *testing.T) {
	srv := httptest.NewServer(fakeserver.New(testEmail, testPassword))
	defer srv.Close()
	cfg := newTestConfig(t, srv.URL)

	out, err := execute(t, cfg, "smoke", "--scenario", "api-key-valid-user", "--scenario", "list-all-pets")
	require.NoError(t, err)
	assert.Contains(t, out, "PASS api-key-valid-user")
	assert.Contains(t, out, "2 scenarios, 0 failed")

	out, err = execute(t, cfg, "history", "--limit", "1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "list-all-pets")
}

func TestSmokeList(t *testing.T) {
	out, err := execute(t, &config.Config{}, "smoke", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "delete-pet-without-id")
}
