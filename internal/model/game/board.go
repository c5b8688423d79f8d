package game

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// FreeSquareLabel marks the pre-found center square on odd-sized boards.
const FreeSquareLabel = "FREE"

// Square is one cell of a bingo-style board.
type Square struct {
	ID      string    `json:"id"`
	Label   string    `json:"label"`
	Found   bool      `json:"found"`
	FoundBy string    `json:"foundBy,omitempty"`
	FoundAt time.Time `json:"foundAt,omitempty"`
}

// Board is an N×N grid of labelled squares. Labels are unique within a
// board; odd-sized boards carry a free center square pre-marked found.
type Board struct {
	Size    int        `json:"size"`
	Squares [][]Square `json:"squares"`
}

// NewBoard lays out labels row by row. The center of an odd-sized board
// becomes the free square regardless of the supplied labels, so callers
// provide size*size labels for even boards and size*size-1 for odd ones.
func NewBoard(size int, labels []string) (*Board, error) {
	if size < 2 {
		return nil, errors.Errorf("board size %d too small", size)
	}
	needed := size * size
	hasFree := size%2 == 1
	if hasFree {
		needed--
	}
	if len(labels) < needed {
		return nil, errors.Errorf("board needs %d labels, got %d", needed, len(labels))
	}

	seen := make(map[string]struct{}, needed)
	board := &Board{Size: size, Squares: make([][]Square, size)}
	next := 0
	center := size / 2
	for row := 0; row < size; row++ {
		board.Squares[row] = make([]Square, size)
		for col := 0; col < size; col++ {
			if hasFree && row == center && col == center {
				board.Squares[row][col] = Square{
					ID:    uuid.NewString(),
					Label: FreeSquareLabel,
					Found: true,
				}
				continue
			}
			label := strings.TrimSpace(labels[next])
			next++
			key := strings.ToLower(label)
			if _, dup := seen[key]; dup {
				return nil, errors.Errorf("duplicate board label %q", label)
			}
			seen[key] = struct{}{}
			board.Squares[row][col] = Square{ID: uuid.NewString(), Label: label}
		}
	}
	return board, nil
}

// Mark finds the square with the given label and marks it found. A nil
// square means the label is not on the board; fresh is false when the
// square was already found, which keeps the first finder's credit and
// tells the caller not to score the repeat.
func (b *Board) Mark(label, playerID string, at time.Time) (sq *Square, fresh bool) {
	needle := strings.ToLower(strings.TrimSpace(label))
	for row := range b.Squares {
		for col := range b.Squares[row] {
			sq := &b.Squares[row][col]
			if strings.ToLower(sq.Label) != needle {
				continue
			}
			if sq.Found {
				return sq, false
			}
			sq.Found = true
			sq.FoundBy = playerID
			sq.FoundAt = at
			return sq, true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	clone := &Board{Size: b.Size, Squares: make([][]Square, len(b.Squares))}
	for row := range b.Squares {
		clone.Squares[row] = append([]Square(nil), b.Squares[row]...)
	}
	return clone
}

// FoundCount returns how many squares are marked found.
func (b *Board) FoundCount() int {
	count := 0
	for row := range b.Squares {
		for col := range b.Squares[row] {
			if b.Squares[row][col].Found {
				count++
			}
		}
	}
	return count
}
