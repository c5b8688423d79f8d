package coordinator

import "github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/model/game"

// Winning pattern names, reported in the fixed check order below.
const (
	PatternHorizontal   = "horizontal"
	PatternVertical     = "vertical"
	PatternDiagonal     = "diagonal"
	PatternAntiDiagonal = "anti_diagonal"
	PatternCorners      = "corners"
	PatternBlackout     = "blackout"
)

// minCornersSize gates the four-corners pattern.
const minCornersSize = 4

// CheckPatterns reports every completed winning pattern on the board,
// checked in fixed order: horizontal lines, vertical lines, both
// diagonals, four corners (when enabled and the board is large enough),
// blackout. A single action may complete several patterns at once; the
// full set is returned, not just the first found.
func CheckPatterns(board *game.Board, enableCorners bool) []string {
	if board == nil {
		return nil
	}
	var wins []string
	size := board.Size

	for row := 0; row < size; row++ {
		complete := true
		for col := 0; col < size; col++ {
			if !board.Squares[row][col].Found {
				complete = false
				break
			}
		}
		if complete {
			wins = append(wins, PatternHorizontal)
			break
		}
	}

	for col := 0; col < size; col++ {
		complete := true
		for row := 0; row < size; row++ {
			if !board.Squares[row][col].Found {
				complete = false
				break
			}
		}
		if complete {
			wins = append(wins, PatternVertical)
			break
		}
	}

	diagonal := true
	antiDiagonal := true
	for i := 0; i < size; i++ {
		if !board.Squares[i][i].Found {
			diagonal = false
		}
		if !board.Squares[i][size-1-i].Found {
			antiDiagonal = false
		}
	}
	if diagonal {
		wins = append(wins, PatternDiagonal)
	}
	if antiDiagonal {
		wins = append(wins, PatternAntiDiagonal)
	}

	if enableCorners && size >= minCornersSize {
		if board.Squares[0][0].Found &&
			board.Squares[0][size-1].Found &&
			board.Squares[size-1][0].Found &&
			board.Squares[size-1][size-1].Found {
			wins = append(wins, PatternCorners)
		}
	}

	if board.FoundCount() == size*size {
		wins = append(wins, PatternBlackout)
	}
	return wins
}
