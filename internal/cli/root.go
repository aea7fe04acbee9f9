// Package cli exposes the PetFriends client and the smoke harness as
// cobra commands.
package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/petfriends-harness/assets/images"
	"github.com/samvad-hq/petfriends-harness/internal/app"
	"github.com/samvad-hq/petfriends-harness/internal/config"
	"github.com/samvad-hq/petfriends-harness/internal/logger"
	"github.com/samvad-hq/petfriends-harness/pkg/petfriends"
)

type rootFlags struct {
	authKey string
}

type petFlags struct {
	name       string
	animalType string
	age        string
}

func (f *petFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Pet name.")
	cmd.Flags().StringVar(&f.animalType, "type", "", "Animal type.")
	cmd.Flags().StringVar(&f.age, "age", "", "Pet age.")
}

func (f *petFlags) form() petfriends.PetForm {
	return petfriends.PetForm{Name: f.name, AnimalType: f.animalType, Age: f.age}
}

// runtime is shared by every subcommand.
type runtime struct {
	cfg   *config.Config
	log   logger.Logger
	flags *rootFlags
}

// NewCommand creates the petfriends root command.
func NewCommand(cfg *config.Config, log logger.Logger) *cobra.Command {
	if log == nil {
		log = &logger.NopLogger{}
	}
	rt := &runtime{cfg: cfg, log: log, flags: &rootFlags{}}

	cmd := &cobra.Command{
		Use:           "petfriends",
		Short:         "Call the PetFriends API and run its smoke scenarios",
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cmd.SilenceUsage = true
		},
	}
	cmd.PersistentFlags().StringVar(&rt.flags.authKey, "auth-key", "",
		"Use this auth key instead of requesting one with the configured credentials.")

	cmd.AddCommand(
		newKeyCmd(rt),
		newListCmd(rt),
		newAddCmd(rt),
		newCreateCmd(rt),
		newUpdateCmd(rt),
		newDeleteCmd(rt),
		newSetPhotoCmd(rt),
		newSmokeCmd(rt),
		newHistoryCmd(rt),
	)
	return cmd
}

func (rt *runtime) client() (*petfriends.Client, error) {
	return app.NewClient(rt.cfg, rt.log)
}

// key returns the --auth-key override or a fresh key for the configured account.
func (rt *runtime) key(cmd *cobra.Command, client *petfriends.Client) (petfriends.AuthKey, error) {
	if k := strings.TrimSpace(rt.flags.authKey); k != "" {
		return petfriends.AuthKey{Key: k}, nil
	}
	if err := rt.cfg.RequireCredentials(); err != nil {
		return petfriends.AuthKey{}, err
	}
	res, err := client.GetAPIKey(cmd.Context(), rt.cfg.Email, rt.cfg.Password)
	if err != nil {
		return petfriends.AuthKey{}, err
	}
	if !res.OK() {
		return petfriends.AuthKey{}, fmt.Errorf("get api key: status %d: %s", res.Status, res.Body.String())
	}
	return res.AuthKey()
}

// photo resolves a photo flag; bare names are looked up in the images dir.
func (rt *runtime) photo(path string) (string, error) {
	if path == "" {
		path = images.GingerCat
	}
	if filepath.Base(path) != path {
		return path, nil
	}
	dir, err := images.Resolve(rt.cfg.ImagesDir)
	if err != nil {
		return "", fmt.Errorf("resolve images dir: %w", err)
	}
	return filepath.Join(dir, path), nil
}

func printResult(w io.Writer, res petfriends.Result) {
	fmt.Fprintf(w, "status: %d\n%s\n", res.Status, res.Body.String())
}
