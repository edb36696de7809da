package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/mrlokans/pixeljournal/internal/logger"
	"github.com/mrlokans/pixeljournal/internal/oauth2"
)

// igdbTokenCmd mints an IGDB access token from Twitch application credentials
var igdbTokenCmd = &cobra.Command{
	Use:   "igdb-token",
	Short: "Exchanges Twitch client credentials for an IGDB access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		clientID, _ := cmd.Flags().GetString("client-id")
		clientSecret, _ := cmd.Flags().GetString("client-secret")
		if clientID == "" || clientSecret == "" {
			return oauth2.ErrMissingClientCredentials
		}

		issuer := oauth2.NewTwitchProvider(
			cfg.Providers.TwitchTokenURL,
			&http.Client{Timeout: cfg.Providers.HTTPTimeout},
			logger.Log,
		)
		exchange, err := issuer.ExchangeClientCredentials(context.Background(), oauth2.ClientCredentials{
			ClientID:     clientID,
			ClientSecret: clientSecret,
		})
		if err != nil {
			return err
		}

		fmt.Println(string(exchange.Raw))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(igdbTokenCmd)

	igdbTokenCmd.Flags().String("client-id", "", "Twitch application client id")
	igdbTokenCmd.Flags().String("client-secret", "", "Twitch application client secret")
}
