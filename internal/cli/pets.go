package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/petfriends-harness/pkg/petfriends"
)

// authed wraps a command body that needs a client and an auth key.
func (rt *runtime) authed(fn func(cmd *cobra.Command, args []string, client *petfriends.Client, key petfriends.AuthKey) (petfriends.Result, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		client, err := rt.client()
		if err != nil {
			return err
		}
		key, err := rt.key(cmd, client)
		if err != nil {
			return err
		}
		res, err := fn(cmd, args, client, key)
		if err != nil {
			return err
		}
		printResult(cmd.OutOrStdout(), res)
		return nil
	}
}

func newKeyCmd(rt *runtime) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Request an auth key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := rt.client()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("email") {
				email = rt.cfg.Email
			}
			if !cmd.Flags().Changed("password") {
				password = rt.cfg.Password
			}
			res, err := client.GetAPIKey(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email. Defaults to the configured one.")
	cmd.Flags().StringVar(&password, "password", "", "Account password. Defaults to the configured one.")
	return cmd
}

func newListCmd(rt *runtime) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pets",
		Args:  cobra.NoArgs,
		RunE: rt.authed(func(cmd *cobra.Command, _ []string, client *petfriends.Client, key petfriends.AuthKey) (petfriends.Result, error) {
			return client.ListPets(cmd.Context(), key, petfriends.Filter(filter))
		}),
	}
	cmd.Flags().StringVar(&filter, "filter", "", fmt.Sprintf("Listing filter: empty for all pets or %q.", petfriends.FilterMyPets))
	return cmd
}

func newAddCmd(rt *runtime) *cobra.Command {
	pet := &petFlags{}
	var photo string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a pet with a photo",
		Args:  cobra.NoArgs,
		RunE: rt.authed(func(cmd *cobra.Command, _ []string, client *petfriends.Client, key petfriends.AuthKey) (petfriends.Result, error) {
			path, err := rt.photo(photo)
			if err != nil {
				return petfriends.Result{}, err
			}
			return client.AddNewPet(cmd.Context(), key, pet.form(), path)
		}),
	}
	pet.register(cmd)
	cmd.Flags().StringVar(&photo, "photo", "", "Photo path, or a file name in the images dir.")
	return cmd
}

func newCreateCmd(rt *runtime) *cobra.Command {
	pet := &petFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a pet without a photo",
		Args:  cobra.NoArgs,
		RunE: rt.authed(func(cmd *cobra.Command, _ []string, client *petfriends.Client, key petfriends.AuthKey) (petfriends.Result, error) {
			return client.CreatePetSimple(cmd.Context(), key, pet.form())
		}),
	}
	pet.register(cmd)
	return cmd
}

func newUpdateCmd(rt *runtime) *cobra.Command {
	pet := &petFlags{}
	cmd := &cobra.Command{
		Use:   "update <pet-id>",
		Short: "Update a pet's name, type and age",
		Args:  cobra.ExactArgs(1),
		RunE: rt.authed(func(cmd *cobra.Command, args []string, client *petfriends.Client, key petfriends.AuthKey) (petfriends.Result, error) {
			return client.UpdatePetInfo(cmd.Context(), key, args[0], pet.form())
		}),
	}
	pet.register(cmd)
	return cmd
}

func newDeleteCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <pet-id>",
		Short: "Delete a pet",
		Args:  cobra.ExactArgs(1),
		RunE: rt.authed(func(cmd *cobra.Command, args []string, client *petfriends.Client, key petfriends.AuthKey) (petfriends.Result, error) {
			return client.DeletePet(cmd.Context(), key, args[0])
		}),
	}
}

func newSetPhotoCmd(rt *runtime) *cobra.Command {
	var photo string
	cmd := &cobra.Command{
		Use:   "set-photo <pet-id>",
		Short: "Upload a photo for a pet",
		Args:  cobra.ExactArgs(1),
		RunE: rt.authed(func(cmd *cobra.Command, args []string, client *petfriends.Client, key petfriends.AuthKey) (petfriends.Result, error) {
			path, err := rt.photo(photo)
			if err != nil {
				return petfriends.Result{}, err
			}
			return client.SetPhotoPet(cmd.Context(), key, args[0], path)
		}),
	}
	cmd.Flags().StringVar(&photo, "photo", "", "Photo path, or a file name in the images dir.")
	return cmd
}
