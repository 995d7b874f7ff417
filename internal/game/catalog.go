package game

import "slices"

// DefaultCatalog returns a fresh copy of the seven trials with only the first one
// unlocked.
func DefaultCatalog() []Challenge {
	return []Challenge{
		{
			ID:          1,
			Title:       "Spell Recognition",
			Description: "Test your knowledge of magical spells and their effects",
			Difficulty:  DifficultyEasy,
			Points:      80,
			Payload: Quiz{
				Question:     "Which spell is used to disarm an opponent?",
				Options:      []string{"Expelliarmus", "Expecto Patronum", "Stupefy", "Avada Kedavra"},
				CorrectIndex: 0,
			},
			Unlocked: true,
		},
		{
			ID:          2,
			Title:       "Memory Potion",
			Description: "Remember the magical ingredient sequence",
			Difficulty:  DifficultyEasy,
			Points:      100,
			Payload:     Memory{Sequence: []string{"🍄", "🌟", "💎", "🔮", "🌿", "⚡"}},
		},
		{
			ID:          3,
			Title:       "Lightning Speed Quiz",
			Description: "Answer magical math questions quickly!",
			Difficulty:  DifficultyMedium,
			Points:      120,
			Payload: Speed{
				TimeLimitSeconds: 15,
				Questions: []SpeedQuestion{
					{Prompt: "If you have 7 unicorn hairs and use 3 in a potion, how many remain?", Answer: "4"},
					{Prompt: "A dragon breathes fire every 5 seconds. How many times in 25 seconds?", Answer: "5"},
					{Prompt: "What is 9 + 15?", Answer: "24"},
				},
			},
		},
		{
			ID:          4,
			Title:       "Pattern Vision",
			Description: "Follow the magical pattern sequence",
			Difficulty:  DifficultyMedium,
			Points:      110,
			Payload: Pattern{
				Sequence: []int{0, 1, 2, 0, 1, 2, 0},
				Colors:   []string{"🔴", "🟡", "🔵"},
			},
		},
		{
			ID:          5,
			Title:       "Wisdom Riddle",
			Description: "Solve the ancient magical riddle",
			Difficulty:  DifficultyHard,
			Points:      150,
			Payload: Riddle{
				Text:   "I am not alive, but I grow; I don't have lungs, but I need air; I don't have a mouth, but water kills me. What am I?",
				Answer: "fire",
				Hints:  []string{"I dance and flicker", "I'm warm and bright", "Dragons breathe me"},
			},
		},
		{
			ID:          6,
			Title:       "House Sorting",
			Description: "Sort magical items into correct categories",
			Difficulty:  DifficultyMedium,
			Points:      130,
			Payload: Sorting{
				Items: []SortingItem{
					{Name: "Phoenix Feather", Category: "Wand Core"},
					{Name: "Gillyweed", Category: "Potion Ingredient"},
					{Name: "Time-Turner", Category: "Magical Device"},
					{Name: "Dragon Heartstring", Category: "Wand Core"},
					{Name: "Bezoar", Category: "Potion Ingredient"},
					{Name: "Marauder's Map", Category: "Magical Device"},
				},
				Categories: []string{"Wand Core", "Potion Ingredient", "Magical Device"},
			},
		},
		{
			ID:          7,
			Title:       "Master's Trial",
			Description: "The ultimate magical knowledge test",
			Difficulty:  DifficultyHard,
			Points:      200,
			Payload: Quiz{
				Question:     "What is the most complex and dangerous branch of magic?",
				Options:      []string{"Transfiguration", "Dark Arts", "Time Magic", "Soul Magic"},
				CorrectIndex: 3,
			},
		},
	}
}

// cloneCatalog copies a catalog and resets the unlock flags so only the first
// entry is playable.
func cloneCatalog(catalog []Challenge) []Challenge {
	out := slices.Clone(catalog)
	for i := range out {
		out[i].Unlocked = i == 0
	}
	return out
}
