package question

import "github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/model/game"

// bank is the built-in fallback material, keyed by game kind. Entries
// carry the difficulty they were written for.
var bank = map[game.Kind][]game.Question{
	game.KindTrivia: {
		{
			Prompt:     "Which of these is the capital of France?",
			Options:    []string{"Paris", "London", "Rome", "Berlin"},
			Answer:     "Paris",
			Difficulty: 0.2,
			Hints:      []string{"It is known as the city of light.", "The Eiffel Tower is there."},
		},
		{
			Prompt:     "What is the longest interstate highway in the United States?",
			Options:    []string{"I-90", "I-80", "I-10", "I-95"},
			Answer:     "I-90",
			Difficulty: 0.5,
			Hints:      []string{"It runs coast to coast.", "It starts in Seattle."},
		},
		{
			Prompt:     "Which planet has the most moons?",
			Options:    []string{"Jupiter", "Saturn", "Uranus", "Neptune"},
			Answer:     "Saturn",
			Difficulty: 0.4,
			Hints:      []string{"It is famous for its rings."},
		},
		{
			Prompt:     "Route 66 originally connected Chicago to which city?",
			Options:    []string{"Los Angeles", "San Francisco", "Santa Monica", "San Diego"},
			Answer:     "Santa Monica",
			Difficulty: 0.7,
			Hints:      []string{"It ends at a pier.", "It is on the Pacific coast."},
		},
		{
			Prompt:     "Which country has the most time zones, including territories?",
			Options:    []string{"Russia", "United States", "France", "China"},
			Answer:     "France",
			Difficulty: 0.85,
			Hints:      []string{"Think about overseas territories."},
		},
		{
			Prompt:     "What color are most highway exit signs in the United States?",
			Options:    []string{"Green", "Blue", "Brown", "Yellow"},
			Answer:     "Green",
			Difficulty: 0.1,
			Hints:      []string{"You pass dozens of them every hour."},
		},
	},
	game.KindTwentyQuestions: {
		{
			Prompt:     "I'm thinking of something you might find in this car.",
			Answer:     "steering wheel",
			Difficulty: 0.3,
			Hints:      []string{"The driver touches it the whole trip.", "It is round.", "It controls where we go."},
		},
		{
			Prompt:     "I'm thinking of something you see at a rest stop.",
			Answer:     "vending machine",
			Difficulty: 0.5,
			Hints:      []string{"It takes your money.", "It hums quietly.", "Snacks drop out of it."},
		},
		{
			Prompt:     "I'm thinking of something along the highway.",
			Answer:     "billboard",
			Difficulty: 0.4,
			Hints:      []string{"It is tall and flat.", "It tries to sell you things.", "You read it at seventy miles an hour."},
		},
	},
}

// spottingItems label bingo boards for the "I see a ..." spotting game.
// Kept well above the 24 labels a 5x5 board needs so boards never reuse
// a label.
var spottingItems = []string{
	"red car", "blue truck", "motorcycle", "school bus", "police car",
	"gas station", "water tower", "barn", "windmill", "bridge",
	"train", "tractor", "horse", "cow", "dog in a car",
	"license plate from another state", "rest area sign", "speed limit sign",
	"billboard", "rv", "semi truck", "convertible", "traffic cone",
	"american flag", "church", "cell tower", "river", "mountain",
}
