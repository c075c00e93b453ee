package game

// Theme pools for one round. Honest players should converge on the same
// subject, so repeats inside the honest pool are fine; saboteur themes
// are de-duplicated best-effort so two saboteurs rarely get the same
// divergent instruction.

var saboteurThemes = []string{
	"A circle",
	"A straight line",
	"A square",
	"Three dots",
	"A cross",
	"A triangle",
	"A rectangle",
	"An X",
	"Five lines",
	"A zigzag",
}

var honestThemes = []string{
	"A house",
	"A dog",
	"A tree",
	"A flower",
	"A sun",
	"A smiley face",
	"A star",
	"A cloud",
	"A mountain",
	"A car",
	"A bird",
	"A fish",
	"An apple",
	"A heart",
	"A moon",
}
