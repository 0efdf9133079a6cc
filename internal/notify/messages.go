package notify

import (
	"math/rand"

	"github.com/Rubicon0149/WorkBuddy/internal/record"
)

var titles = map[record.ReminderKind]string{
	record.KindBreak:        "Time for a Break",
	record.KindHydration:    "Hydration Check",
	record.KindEyeStrain:    "20-20-20 Rule",
	record.KindPosture:      "Posture Check",
	record.KindMood:         "Mood Check-in",
	record.KindDailySummary: "Daily Summary",
}

var messages = map[record.ReminderKind][]string{
	record.KindBreak: {
		"You've been working for a while. Stand up and stretch for a few minutes.",
		"Step away from the screen. A short walk resets your focus.",
		"Take five. Your next idea is waiting outside this window.",
		"Time to pause. Grab a coffee, look around, breathe.",
	},
	record.KindHydration: {
		"Have a glass of water. Small sips, big difference.",
		"When did you last drink something? Refill that bottle.",
		"Hydration check: your brain runs better with water in it.",
	},
	record.KindEyeStrain: {
		"Look at something 20 feet away for 20 seconds.",
		"Blink slowly ten times, then focus on the farthest thing you can see.",
		"Rest your eyes: cover them with your palms for half a minute.",
	},
	record.KindPosture: {
		"Shoulders back, chin tucked. How's your sitting position?",
		"Roll your shoulders backward ten times, then forward ten times.",
		"Check your chair height and screen distance. Adjust if needed.",
		"Squeeze your shoulder blades together and hold for five seconds.",
	},
	record.KindMood: {
		"How are you feeling right now? Take a second to notice.",
		"Quick check-in: energized, neutral, or running on fumes?",
		"Pause and rate your energy. Log it with `workbuddy-cli energy`.",
	},
}

// Message picks a title and a rotating body for a reminder kind. The daily
// summary body is built from usage data by the scheduler instead.
func Message(kind record.ReminderKind) (title, body string) {
	title = titles[kind]
	pool := messages[kind]
	if len(pool) == 0 {
		return title, ""
	}
	return title, pool[rand.Intn(len(pool))]
}
