package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avvvet/voicebuddy-actions/internal/actions"
	"github.com/avvvet/voicebuddy-actions/internal/llm"
	"github.com/avvvet/voicebuddy-actions/internal/models"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the derived action descriptors",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, call, err := setup(cmd)
		if err != nil {
			return err
		}
		descriptors, err := actions.Derive(cmd.Context(), registry, call)
		if err != nil {
			return err
		}

		var out any = descriptors
		if format, _ := cmd.Flags().GetString("format"); format == "tools" {
			out = llm.Tools(descriptors)
		} else if format != "descriptors" {
			return fmt.Errorf("unknown format %q, expected descriptors or tools", format)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint",
	Short: "Print the fingerprint of the derived schema set",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, call, err := setup(cmd)
		if err != nil {
			return err
		}
		descriptors, err := actions.Derive(cmd.Context(), registry, call)
		if err != nil {
			return err
		}
		fingerprint, err := actions.Fingerprint(descriptors)
		if err != nil {
			return err
		}
		fmt.Println(fingerprint)
		return nil
	},
}

var invokeCmd = &cobra.Command{
	Use:   "invoke <action> [arguments-json]",
	Short: "Run one action against a local call",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, call, err := setup(cmd)
		if err != nil {
			return err
		}

		raw := "{}"
		if len(args) == 2 {
			raw = args[1]
		}
		parsed, err := llm.ParseArguments([]byte(raw))
		if err != nil {
			return err
		}

		failSMS, _ := cmd.Flags().GetBool("fail-sms")
		dispatcher := actions.NewDispatcher(registry)
		result := dispatcher.Invoke(cmd.Context(), args[0], parsed, call, &consoleEffects{failSMS: failSMS})

		fmt.Printf("result: %s\n", result)
		fmt.Printf("lang: %s, speed: %v\n", call.LangShortCode, call.Initiate.ProsodyRate)

		transcript, err := llm.Transcript(cmd.Context(), call)
		if err != nil {
			return err
		}
		fmt.Print(transcript)
		return nil
	},
}

func init() {
	schemaCmd.Flags().String("format", "descriptors", "Output format: descriptors or tools")
	invokeCmd.Flags().Bool("fail-sms", false, "Make SMS delivery fail")
	rootCmd.AddCommand(schemaCmd, fingerprintCmd, invokeCmd)
}

// consoleEffects prints side effects instead of performing them
type consoleEffects struct {
	failSMS bool
}

func (c *consoleEffects) Speak(ctx context.Context, text string, style models.Style) error {
	fmt.Printf("speak [%s/%s]: %s\n", actions.SpeechContext(ctx), style, text)
	return nil
}

func (c *consoleEffects) Persist(ctx context.Context, call *models.CallState) error {
	fmt.Printf("persist: %s\n", call.ID)
	return nil
}

func (c *consoleEffects) Terminate(ctx context.Context) error {
	fmt.Println("hangup")
	return nil
}

func (c *consoleEffects) SendMessage(ctx context.Context, content, recipient string) (bool, error) {
	fmt.Printf("sms to %s: %s\n", recipient, content)
	return !c.failSMS, nil
}
