package wheel

import (
	"fmt"
)

// Board is the display order of the wheel, fixed when the table is created.
type Board []string

// Shuffle returns a uniformly random permutation of labels using Fisher-Yates.
// The input slice is left untouched.
func Shuffle(labels []string, src Source) ([]string, error) {
	shuffled := make([]string, len(labels))
	copy(shuffled, labels)

	for i := len(shuffled) - 1; i > 0; i-- {
		j, err := src.Intn(i + 1)
		if err != nil {
			return nil, fmt.Errorf("failed to shuffle board - %w", err)
		}
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	return shuffled, nil
}

// NewBoard shuffles the 38 slots into a board.
func NewBoard(src Source) (Board, error) {
	b, err := Shuffle(slots, src)
	if err != nil {
		return nil, err
	}
	return Board(b), nil
}

// Draw picks the outcome slot by a uniform index into the board.
func (b Board) Draw(src Source) (string, error) {
	if len(b) == 0 {
		return "", fmt.Errorf("board is empty")
	}
	i, err := src.Intn(len(b))
	if err != nil {
		return "", fmt.Errorf("failed to draw outcome - %w", err)
	}
	return b[i], nil
}
