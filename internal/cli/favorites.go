package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vlr-matches/internal/config"
)

// newFavoritesCmd manages the favorite-teams list in the user profile.
func newFavoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "Manage favorite teams",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <team>",
		Short: "Add a team to favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateProfile(func(p *config.Profile) error {
				team := strings.TrimSpace(args[0])
				if team == "" {
					return fmt.Errorf("team name must not be empty")
				}
				p.AddFavoriteTeam(team)
				fmt.Printf("Added %q to favorites.\n", team)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <team>",
		Short: "Remove a team from favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateProfile(func(p *config.Profile) error {
				if !p.RemoveFavoriteTeam(args[0]) {
					return fmt.Errorf("%q is not in favorites", args[0])
				}
				fmt.Printf("Removed %q from favorites.\n", args[0])
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List favorite teams",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := config.LoadProfile("")
			if err != nil {
				return err
			}
			if len(profile.FavoriteTeams) == 0 {
				fmt.Println("No favorite teams set.")
				return nil
			}
			for _, team := range profile.FavoriteTeams {
				fmt.Println(team)
			}
			return nil
		},
	})

	return cmd
}

// updateProfile loads the profile, applies fn, and saves it back.
func updateProfile(fn func(*config.Profile) error) error {
	profile, err := config.LoadProfile("")
	if err != nil {
		return err
	}
	if err := fn(profile); err != nil {
		return err
	}
	return config.SaveProfile(profile, "")
}
