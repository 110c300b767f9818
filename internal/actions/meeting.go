package actions

import (
	"context"

	"github.com/avvvet/voicebuddy-actions/internal/availability"
	"github.com/avvvet/voicebuddy-actions/internal/models"
	"github.com/avvvet/voicebuddy-actions/internal/prompts"
)

type bookMeetingArgs struct {
	CustomerResponse string `mapstructure:"customer_response"`
	Reason           string `mapstructure:"reason"`
	StartTimestamp   string `mapstructure:"start_timestamp"`
	EndTimestamp     string `mapstructure:"end_timestamp"`
}

func bookMeeting() Action {
	return Define(Action{
		Name: "book_meeting",
		Doc: prompts.Doc{
			Text: "Use this to confirm the meeting.",
			Behavior: []string{
				"Get the availability for the requested date",
				"Get the reason of the meeting",
				"Return a confirmation message",
			},
			Rules: []string{"Use this every time a new meeting is requested before booking it"},
			Usage: []string{
				"The client wants to book an new meeting",
				"A customer ask questions about an availability",
			},
		},
		Params: []Param{
			{
				Name: "customer_response",
				Type: TypeString,
				Doc: prompts.Doc{
					Text:     "Phrase used to confirm the action, in the same language as the client. This phrase will be spoken to the user.",
					Rules:    []string{"Action should be rephrased in the present tense", "Must be in a single sentence"},
					Examples: []string{"I'm trying to book it.", "I'm booking it."},
				},
			},
			{
				Name: "reason",
				Type: TypeString,
				Doc: prompts.Doc{
					Text:     "The reason why the client wants a meeting.",
					Rules:    []string{"The reason should be in the context of the banking industry"},
					Examples: []string{"A new credit loan.", "A mortgage simulation."},
				},
			},
			{
				Name:    "start_timestamp",
				Type:    TypeString,
				Pattern: availability.TimestampPattern,
				Doc:     prompts.Doc{Text: "Date and time in 'YYYY-MM-DDTHH:MM' format of the start of the meeting."},
			},
			{
				Name:    "end_timestamp",
				Type:    TypeString,
				Pattern: availability.TimestampPattern,
				Doc:     prompts.Doc{Text: "Date and time in 'YYYY-MM-DDTHH:MM' format of the end of the meeting."},
			},
		},
	}, func(ctx context.Context, call *models.CallState, fx SideEffects, args bookMeetingArgs) (string, error) {
		start, err := availability.ParseTimestamp(args.StartTimestamp)
		if err != nil {
			return "", reject(ErrInvalidArguments, "Invalid start_timestamp %q, expected YYYY-MM-DDTHH:MM", args.StartTimestamp)
		}
		end, err := availability.ParseTimestamp(args.EndTimestamp)
		if err != nil {
			return "", reject(ErrInvalidArguments, "Invalid end_timestamp %q, expected YYYY-MM-DDTHH:MM", args.EndTimestamp)
		}
		if !end.After(start) {
			return "", reject(ErrInvalidArguments, "The meeting must end after it starts")
		}

		if err := confirm(ctx, fx, args.CustomerResponse); err != nil {
			return "", err
		}
		return "The meeting is booked.", nil
	})
}

type availableSlotArgs struct {
	CustomerResponse string `mapstructure:"customer_response"`
	StartTimestamp   string `mapstructure:"start_timestamp"`
	EndTimestamp     string `mapstructure:"end_timestamp"`
}

// advisorAvailableSlot is read-only and answers without a spoken confirmation.
func advisorAvailableSlot(source availability.Source) Action {
	return Define(Action{
		Name:     "get_advisor_available_slot",
		ReadOnly: true,
		Doc: prompts.Doc{
			Text: "Use this if you need to get the banking advisor available slots.\n\n" +
				"The function returns the available slot.\n\n" +
				"For example 'The advisor is available from 2024-07-11T16:00 to 2024-07-11T16:30'",
		},
		Params: []Param{
			{
				Name:    "customer_response",
				Type:    TypeString,
				Default: "",
				Doc: prompts.Doc{
					Text:     "Phrase used to confirm the action, in the same language as the client. It is not spoken for this action.",
					Rules:    []string{"Action should be rephrased in the present tense", "Must be in a single sentence"},
					Examples: []string{"I'm checking the advisor's calendar."},
				},
			},
			{
				Name:    "start_timestamp",
				Type:    TypeString,
				Pattern: availability.TimestampPattern,
				Doc:     prompts.Doc{Text: "Date and time in 'YYYY-MM-DDTHH:MM' format of the start of the period requested by the client for the appointment."},
			},
			{
				Name:    "end_timestamp",
				Type:    TypeString,
				Pattern: availability.TimestampPattern,
				Doc:     prompts.Doc{Text: "Date and time in 'YYYY-MM-DDTHH:MM' format of the end of the period requested by the client for the appointment."},
			},
		},
	}, func(ctx context.Context, call *models.CallState, fx SideEffects, args availableSlotArgs) (string, error) {
		from, err := availability.ParseTimestamp(args.StartTimestamp)
		if err != nil {
			return "", reject(ErrInvalidArguments, "Invalid start_timestamp %q, expected YYYY-MM-DDTHH:MM", args.StartTimestamp)
		}
		to, err := availability.ParseTimestamp(args.EndTimestamp)
		if err != nil {
			return "", reject(ErrInvalidArguments, "Invalid end_timestamp %q, expected YYYY-MM-DDTHH:MM", args.EndTimestamp)
		}
		if source == nil {
			return "", reject(ErrSideEffect, "The advisor calendar is not available right now.")
		}

		slots, err := source.Slots(ctx)
		if err != nil {
			return "", reject(ErrSideEffect, "The advisor calendar is not available right now.")
		}
		slot, ok := availability.Earliest(slots, from, to)
		if !ok {
			return "The advisor is not available at this period.", nil
		}
		return "The advisor is available from '" + slot.Start.Format(availability.DisplayLayout) +
			"' to '" + slot.End.Format(availability.DisplayLayout) + "'.", nil
	})
}
