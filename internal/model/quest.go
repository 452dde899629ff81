package model

import "time"

type QuestItem struct {
	ID          string
	HikeID      string
	Name        string
	Category    string
	Hint        string
	XP          int
	Rarity      Rarity
	Completed   bool
	CompletedAt *time.Time
}

type SpeciesHint struct {
	Name     string
	Category string
	Hint     string
	Rarity   Rarity
	XP       int
}

type QuestState struct {
	Items           []QuestItem
	TotalXP         int
	EarnedXP        int
	CompletionBonus int
	Completed       bool
	Fallback        bool
}
