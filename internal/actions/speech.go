package actions

import (
	"context"
	"fmt"

	"github.com/avvvet/voicebuddy-actions/internal/models"
	"github.com/avvvet/voicebuddy-actions/internal/prompts"
)

// Prosody bounds for speech_speed. Out of range values are clamped, never rejected.
const (
	MinSpeed = 0.75
	MaxSpeed = 1.25
)

// ClampSpeed bounds a requested voice speed to [MinSpeed, MaxSpeed].
func ClampSpeed(v float64) float64 {
	return max(MinSpeed, min(v, MaxSpeed))
}

type speechSpeedArgs struct {
	CustomerResponse string  `mapstructure:"customer_response"`
	Speed            float64 `mapstructure:"speed"`
}

func speechSpeed() Action {
	return Define(Action{
		Name: "speech_speed",
		Doc: prompts.Doc{
			Text: "Use this if the customer wants to change the speed of the voice.",
			Behavior: []string{
				"Update the voice speed",
				"Return a confirmation message",
			},
			Usage: []string{
				"Speed up or slow down the voice",
				"Trouble understanding the voice because it is too fast or too slow",
			},
		},
		Params: []Param{
			{
				Name: "customer_response",
				Type: TypeString,
				Doc: prompts.CustomerResponse(
					"I am slowing down the speech.",
					"I am speeding up the voice.",
					"My voice is now faster.",
				),
			},
			{
				Name: "speed",
				Type: TypeNumber,
				Doc: prompts.Doc{
					Text: fmt.Sprintf("The new speed of the voice. Should be between %s and %s, where 1.0 is the normal speed.",
						formatRate(MinSpeed), formatRate(MaxSpeed)),
				},
			},
		},
	}, func(ctx context.Context, call *models.CallState, fx SideEffects, args speechSpeedArgs) (string, error) {
		speed := ClampSpeed(args.Speed)
		initial := call.Initiate.ProsodyRate
		call.Initiate.ProsodyRate = speed

		// Spoken with the new speed
		if err := confirm(ctx, fx, args.CustomerResponse); err != nil {
			return "", err
		}
		return fmt.Sprintf("Voice speed set to %s (was %s)", formatRate(speed), formatRate(initial)), nil
	})
}

type speechLangArgs struct {
	CustomerResponse string `mapstructure:"customer_response"`
	Lang             string `mapstructure:"lang"`
}

func speechLang() Action {
	return Define(Action{
		Name: "speech_lang",
		Doc: prompts.Doc{
			Text: "Use this if the customer wants to speak in another language.",
			Behavior: []string{
				"Update the conversation language",
				"Return a confirmation message",
			},
			Usage: []string{
				"A participant wants to speak in another language",
				"Customer made a mistake in the language selection",
				"Trouble understanding the voice in the current language",
			},
		},
		Params: []Param{
			{
				Name: "customer_response",
				Type: TypeString,
				Doc: prompts.Doc{
					Text:  "Phrase used to confirm the update, in the new selected language. This phrase will be spoken to the user.",
					Rules: []string{"Action should be rephrased in the present tense", "Must be in a single sentence"},
					Examples: []string{
						"For de-DE, 'Ich spreche jetzt auf Deutsch.'",
						"For es-ES, 'Espero que me entiendas mejor en español.'",
						"For fr-FR, 'Cela devrait être mieux en français.'",
					},
				},
			},
			{
				Name: "lang",
				Type: TypeString,
				Doc: prompts.Doc{
					Text:     "The new language of the conversation.",
					Examples: []string{"en-US", "es-ES", "zh-CN"},
					Template: prompts.AvailableLanguages,
				},
			},
		},
	}, func(ctx context.Context, call *models.CallState, fx SideEffects, args speechLangArgs) (string, error) {
		if _, ok := call.Initiate.Lang.Find(args.Lang); !ok {
			return "", reject(ErrUnsupportedValue, "Language %s not available", args.Lang)
		}

		initial := call.Lang().ShortCode
		call.LangShortCode = args.Lang

		// Spoken in the new language
		if err := confirm(ctx, fx, args.CustomerResponse); err != nil {
			return "", err
		}
		return fmt.Sprintf("Voice language set to %s (was %s)", args.Lang, initial), nil
	})
}
