package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/avvvet/voicebuddy-actions/internal/actions"
	"github.com/avvvet/voicebuddy-actions/internal/availability"
	"github.com/avvvet/voicebuddy-actions/internal/config"
	"github.com/avvvet/voicebuddy-actions/internal/models"
)

var rootCmd = &cobra.Command{
	Use:   "voicebuddy-schema",
	Short: "Inspect and try the actions exposed to the voice agent",
	Long:  `Prints the tool schemas derived for a call and runs actions against a local call, with speech and SMS printed to the terminal.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional, flags and environment win
		_ = godotenv.Load()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("languages", "", "Available languages, e.g. \"fr-FR=Français,en-US=English\" (default from LANG_AVAILABLES)")
	rootCmd.PersistentFlags().String("lang", "", "Current language short code (default from LANG_DEFAULT)")
	rootCmd.PersistentFlags().String("slots", "", "Advisor calendar file (default from SLOTS_FILE)")
	rootCmd.PersistentFlags().String("phone", "+33600000000", "Caller phone number")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup builds the registry and a local call from config and flags
func setup(cmd *cobra.Command) (*actions.Registry, *models.CallState, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("languages"); v != "" {
		langs, err := config.ParseLanguages(v)
		if err != nil {
			return nil, nil, err
		}
		if len(langs) == 0 {
			return nil, nil, fmt.Errorf("--languages lists no language")
		}
		cfg.Languages.Availables = langs
		cfg.Languages.DefaultShortCode = langs[0].ShortCode
	}
	if v, _ := flags.GetString("lang"); v != "" {
		cfg.Languages.DefaultShortCode = v
	}
	if v, _ := flags.GetString("slots"); v != "" {
		cfg.SlotsFile = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	registry, err := actions.NewDefaultRegistry(actions.Deps{
		Slots: availability.NewFileSource(cfg.SlotsFile),
	})
	if err != nil {
		return nil, nil, err
	}

	phone, _ := flags.GetString("phone")
	call := models.NewCallState("local", models.CallInitiate{
		PhoneNumber: phone,
		BotName:     cfg.BotName,
		BotCompany:  cfg.BotCompany,
		ProsodyRate: cfg.ProsodyRate,
		Lang:        cfg.Languages,
	})
	return registry, call, nil
}
