package actions

import (
	"context"
	"fmt"

	"github.com/avvvet/voicebuddy-actions/internal/logging"
	"github.com/avvvet/voicebuddy-actions/internal/models"
	"github.com/avvvet/voicebuddy-actions/internal/prompts"
)

// endCall says goodbye, then hangs up. Never the other way round.
func endCall() Action {
	return Action{
		Name: "end_call",
		Doc: prompts.Doc{
			Text: "Use this if the customer said they want to end the call.",
			Behavior: []string{
				"Hangup the call for everyone",
				"The call with Assistant is ended",
			},
			Rules: []string{
				"Requires an explicit verbal validation from the customer",
				"Never use this action directly after a recall",
			},
			Usage: []string{
				"All participants are satisfied and agree to end the call",
				"Customer said 'bye bye'",
			},
		},
		Run: func(ctx context.Context, call *models.CallState, fx SideEffects, _ map[string]any) (string, error) {
			text, err := prompts.Goodbye(call)
			if err != nil {
				return "", err
			}

			// The customer asked to leave: a failed goodbye does not keep the line open
			if err := fx.Speak(WithSpeechContext(ctx, SpeechContextGoodbye), text, models.StyleNone); err != nil {
				logging.L().Warn("goodbye not played", "session_id", call.ID, "error", err)
			}

			if err := fx.Terminate(ctx); err != nil {
				return "", reject(ErrSideEffect, "Failed to end the call")
			}
			return "Call ended", nil
		},
	}
}

type sendSMSArgs struct {
	CustomerResponse string `mapstructure:"customer_response"`
	Message          string `mapstructure:"message"`
}

func sendSMS() Action {
	return Define(Action{
		Name: "send_sms",
		Doc: prompts.Doc{
			Text: "Use when there is a real need to send a SMS to the customer.",
			Usage: []string{
				"Ask a question, if the call quality is bad",
				"Confirm a detail like a reference number, if there is a misunderstanding",
				"Send a confirmation, if the customer wants to have a written proof",
			},
		},
		Params: []Param{
			{
				Name: "customer_response",
				Type: TypeString,
				Doc: prompts.CustomerResponse(
					"I am sending a SMS to your phone number.",
					"I am texting you the information right now.",
					"SMS with the details is sent.",
				),
			},
			{
				Name: "message",
				Type: TypeString,
				Doc:  prompts.Doc{Text: "The message to send to the customer."},
			},
		},
	}, func(ctx context.Context, call *models.CallState, fx SideEffects, args sendSMSArgs) (string, error) {
		if err := confirm(ctx, fx, args.CustomerResponse); err != nil {
			return "", err
		}

		ok, err := fx.SendMessage(ctx, args.Message, call.Initiate.PhoneNumber)
		if err != nil || !ok {
			return "", &RejectError{Text: "Failed to send SMS", Kind: fmt.Errorf("%w: send sms: %v", ErrSideEffect, err)}
		}

		call.AppendMessage(models.Message{
			Action:  models.MessageActionSMS,
			Content: args.Message,
			Persona: models.PersonaAssistant,
		})
		return "SMS sent", nil
	})
}
