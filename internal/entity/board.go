package entity

const (
	BoardSide = 3
	BoardSize = BoardSide * BoardSide
)

type Cell uint8

const (
	EmptyCell Cell = iota
	MarkX
	MarkO
)

func (that Cell) String() string {
	switch that {
	case MarkX:
		return "X"
	case MarkO:
		return "O"
	default:
		return ""
	}
}

// WinCombos - every line that wins the game.
var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Board is a 3x3 grid stored row-major, so move m addresses (m/3, m%3).
type Board [BoardSize]Cell

// IsLegal - checks that the move is on the board and its cell is empty.
func (that *Board) IsLegal(move int) bool {
	return move >= 0 && move < BoardSize && that[move] == EmptyCell
}

// Apply - marks the cell. The caller is responsible for checking IsLegal first.
func (that *Board) Apply(move int, mark Cell) {
	that[move] = mark
}

// CheckWin - checks only the lines that lastMove could have completed.
func (that *Board) CheckWin(lastMove int) bool {
	mark := that[lastMove]
	if mark == EmptyCell {
		return false
	}

	row, col := lastMove/BoardSide, lastMove%BoardSide

	if that.holds(mark, row*BoardSide, row*BoardSide+1, row*BoardSide+2) {
		return true
	}

	if that.holds(mark, col, col+BoardSide, col+2*BoardSide) {
		return true
	}

	if row == col && that.holds(mark, 0, 4, 8) {
		return true
	}

	return row+col == BoardSide-1 && that.holds(mark, 2, 4, 6)
}

// Winner - scans the full board and returns the mark owning a complete line.
func (that *Board) Winner() Cell {
	for _, combo := range WinCombos {
		a, b, c := that[combo[0]], that[combo[1]], that[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	return EmptyCell
}

func (that *Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

func (that *Board) holds(mark Cell, a, b, c int) bool {
	return that[a] == mark && that[b] == mark && that[c] == mark
}
