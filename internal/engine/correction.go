package engine

import (
	"github.com/chessplay-engine/chessplay/internal/board"
)

// corrHistMax bounds every correction table and sets the gravity scale,
// mirroring Stockfish's CORRECTION_HISTORY_LIMIT.
const corrHistMax = 1024

// corrHistGravity applies the same self-limiting update the move-ordering
// histories use, scaled to correction history's narrower range.
func corrHistGravity(v, bonus int) int {
	if bonus > corrHistMax {
		bonus = corrHistMax
	}
	if bonus < -corrHistMax {
		bonus = -corrHistMax
	}
	return v + bonus - v*absInt(bonus)/corrHistMax
}

const corrHistSize = 16384 // must be a power of two

// CorrectionHistory adjusts static evaluation based on search results.
// When the search discovers the static eval was wrong, it records the
// error and applies corrections to similar positions in the future.
// Split the way Stockfish's correction history is: a pawn-structure table,
// a non-pawn-material table per side, and a continuation table keyed by
// the move that led to the current position, since each captures a
// different source of static-eval bias.
type CorrectionHistory struct {
	pawn         [2][corrHistSize]int32   // [side][pawnKey & mask]
	nonPawn      [2][2][corrHistSize]int32 // [side][material-owner][nonPawnKey & mask]
	continuation [2][12][64]int32          // [side][prevPiece][prevTo]
}

// NewCorrectionHistory creates a new correction history table.
func NewCorrectionHistory() *CorrectionHistory {
	return &CorrectionHistory{}
}

// Get returns the correction value for a position, combining the
// pawn-structure and non-pawn-material signals with the continuation term
// for the move that produced this position (prevPiece/prevTo may be
// board.NoPiece/board.NoSquare at the root, where the term is skipped).
func (ch *CorrectionHistory) Get(pos *board.Position, prevPiece board.Piece, prevTo board.Square) int {
	us := pos.SideToMove
	them := us.Other()

	correction := int(ch.pawn[us][pos.PawnKey&(corrHistSize-1)])
	correction += int(ch.nonPawn[us][us][pos.NonPawnKey[us]&(corrHistSize-1)])
	correction += int(ch.nonPawn[us][them][pos.NonPawnKey[them]&(corrHistSize-1)])

	if prevPiece != board.NoPiece {
		correction += int(ch.continuation[us][prevPiece][prevTo])
	}

	return correction / 256
}

// Update records a correction based on the difference between the search
// result and the static evaluation, distributing the gravity-scaled bonus
// across the pawn, non-pawn, and continuation tables.
func (ch *CorrectionHistory) Update(pos *board.Position, prevPiece board.Piece, prevTo board.Square, searchScore, staticEval, depth int) {
	if depth < 1 {
		return
	}

	us := pos.SideToMove
	them := us.Other()

	diff := (searchScore - staticEval) * 256
	bonus := diff * depth / 8

	pIdx := pos.PawnKey & (corrHistSize - 1)
	ch.pawn[us][pIdx] = int32(corrHistGravity(int(ch.pawn[us][pIdx]), bonus))

	npUsIdx := pos.NonPawnKey[us] & (corrHistSize - 1)
	ch.nonPawn[us][us][npUsIdx] = int32(corrHistGravity(int(ch.nonPawn[us][us][npUsIdx]), bonus))

	npThemIdx := pos.NonPawnKey[them] & (corrHistSize - 1)
	ch.nonPawn[us][them][npThemIdx] = int32(corrHistGravity(int(ch.nonPawn[us][them][npThemIdx]), bonus/2))

	if prevPiece != board.NoPiece {
		idx := &ch.continuation[us][prevPiece][prevTo]
		*idx = int32(corrHistGravity(int(*idx), bonus/2))
	}
}

// Clear resets all correction values.
func (ch *CorrectionHistory) Clear() {
	*ch = CorrectionHistory{}
}

// Age scales down all correction values (called between games/positions).
func (ch *CorrectionHistory) Age() {
	for s := range ch.pawn {
		for i := range ch.pawn[s] {
			ch.pawn[s][i] /= 2
		}
	}
	for s := range ch.nonPawn {
		for o := range ch.nonPawn[s] {
			for i := range ch.nonPawn[s][o] {
				ch.nonPawn[s][o][i] /= 2
			}
		}
	}
	for s := range ch.continuation {
		for p := range ch.continuation[s] {
			for t := range ch.continuation[s][p] {
				ch.continuation[s][p][t] /= 2
			}
		}
	}
}
