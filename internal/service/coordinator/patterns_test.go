package coordinator

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/model/game"
)

func testBoard(t *testing.T, size int) *game.Board {
	t.Helper()
	count := size * size
	if size%2 == 1 {
		count--
	}
	labels := make([]string, count)
	for i := range labels {
		labels[i] = fmt.Sprintf("item %d", i)
	}
	board, err := game.NewBoard(size, labels)
	require.NoError(t, err)
	return board
}

func markAt(board *game.Board, row, col int) {
	board.Squares[row][col].Found = true
	board.Squares[row][col].FoundBy = "tester"
	board.Squares[row][col].FoundAt = time.Now()
}

func TestCheckPatternsEmptyBoard(t *testing.T) {
	board := testBoard(t, 4)
	assert.Empty(t, CheckPatterns(board, true))
	assert.Empty(t, CheckPatterns(nil, true))
}

func TestCheckPatternsHorizontal(t *testing.T) {
	board := testBoard(t, 4)
	for col := 0; col < 4; col++ {
		markAt(board, 1, col)
	}
	assert.Equal(t, []string{PatternHorizontal}, CheckPatterns(board, true))
}

func TestCheckPatternsVertical(t *testing.T) {
	board := testBoard(t, 4)
	for row := 0; row < 4; row++ {
		markAt(board, row, 2)
	}
	assert.Equal(t, []string{PatternVertical}, CheckPatterns(board, true))
}

func TestCheckPatternsDiagonalUsesFreeCenter(t *testing.T) {
	board := testBoard(t, 5)
	for i := 0; i < 5; i++ {
		if i != 2 {
			markAt(board, i, i)
		}
	}
	// The center square starts found, completing the diagonal.
	assert.Contains(t, CheckPatterns(board, true), PatternDiagonal)
}

func TestCheckPatternsAntiDiagonal(t *testing.T) {
	board := testBoard(t, 4)
	for i := 0; i < 4; i++ {
		markAt(board, i, 3-i)
	}
	assert.Equal(t, []string{PatternAntiDiagonal}, CheckPatterns(board, true))
}

func TestCheckPatternsCornersGatedBySize(t *testing.T) {
	small := testBoard(t, 3)
	for _, pos := range [][2]int{{0, 0}, {0, 2}, {2, 0}, {2, 2}} {
		markAt(small, pos[0], pos[1])
	}
	assert.NotContains(t, CheckPatterns(small, true), PatternCorners, "corners need a board of at least 4")

	large := testBoard(t, 4)
	for _, pos := range [][2]int{{0, 0}, {0, 3}, {3, 0}, {3, 3}} {
		markAt(large, pos[0], pos[1])
	}
	assert.Contains(t, CheckPatterns(large, true), PatternCorners)
	assert.NotContains(t, CheckPatterns(large, false), PatternCorners, "corners can be disabled")
}

func TestCheckPatternsBlackoutReportsFullSet(t *testing.T) {
	board := testBoard(t, 4)
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			markAt(board, row, col)
		}
	}
	wins := CheckPatterns(board, true)
	assert.Equal(t, []string{
		PatternHorizontal,
		PatternVertical,
		PatternDiagonal,
		PatternAntiDiagonal,
		PatternCorners,
		PatternBlackout,
	}, wins, "a full board completes every pattern in fixed order")
}

func TestCheckPatternsSingleMarkCompletesSeveral(t *testing.T) {
	board := testBoard(t, 3)
	// Fill the top row and the left column except their shared corner.
	markAt(board, 0, 1)
	markAt(board, 0, 2)
	markAt(board, 1, 0)
	markAt(board, 2, 0)
	require.Empty(t, CheckPatterns(board, true))

	markAt(board, 0, 0)
	wins := CheckPatterns(board, true)
	assert.Equal(t, []string{PatternHorizontal, PatternVertical}, wins)
}
