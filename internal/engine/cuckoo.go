package engine

import (
	"github.com/chessplay-engine/chessplay/internal/board"
)

// Cuckoo hashing detects "upcoming" repetitions: a repetition that the side
// to move could force with its very next reversible move, without having
// to search that far to discover it. Every reversible non-pawn move (the
// from/to pair of a knight, bishop, rook, queen or king slide) has a
// Zobrist key delta that is reproducible in either direction; cuckoo
// hashing lets a single XOR-and-lookup test whether some earlier position
// in the search differs from the current one by exactly one such move.
// Ported from Alexandria's cuckoo table (src/cuckoo.h, initCuckoo in
// src/init.cpp, hasGameCycle in src/position.cpp).
const cuckooTableSize = 8192

var (
	cuckooKeys  [cuckooTableSize]uint64
	cuckooMoves [cuckooTableSize]board.Move
)

func cuckooH1(key uint64) uint64 { return key & (cuckooTableSize - 1) }
func cuckooH2(key uint64) uint64 { return (key >> 16) & (cuckooTableSize - 1) }

func init() {
	initCuckoo()
}

// initCuckoo fills the cuckoo tables with every reversible non-pawn move.
// Exactly 3668 such (piece, from, to) triples exist on an empty board; a
// mismatch here would mean the attack tables or Zobrist keys disagree with
// the construction Alexandria and Stockfish both rely on.
func initCuckoo() {
	for c := board.White; c <= board.Black; c++ {
		for pt := board.Knight; pt <= board.King; pt++ {
			for fromIdx := 0; fromIdx < 64; fromIdx++ {
				for toIdx := fromIdx + 1; toIdx < 64; toIdx++ {
					from := board.Square(fromIdx)
					to := board.Square(toIdx)
					if !pseudoAttacksEmpty(pt, from, to) {
						continue
					}

					move := board.NewMove(from, to)
					key := board.ZobristPiece(c, pt, from) ^ board.ZobristPiece(c, pt, to) ^ board.ZobristSideToMove()

					i := cuckooH1(key)
					for {
						cuckooKeys[i], key = key, cuckooKeys[i]
						cuckooMoves[i], move = move, cuckooMoves[i]
						if move == board.NoMove {
							break
						}
						if i == cuckooH1(key) {
							i = cuckooH2(key)
						} else {
							i = cuckooH1(key)
						}
					}
				}
			}
		}
	}
}

// pseudoAttacksEmpty reports whether a piece of type pt attacks square to
// from square from on an otherwise empty board - i.e. whether the move
// between them is reversible in one step.
func pseudoAttacksEmpty(pt board.PieceType, from, to board.Square) bool {
	switch pt {
	case board.Knight:
		return board.KnightAttacks(from)&board.SquareBB(to) != 0
	case board.Bishop:
		return board.BishopAttacks(from, 0)&board.SquareBB(to) != 0
	case board.Rook:
		return board.RookAttacks(from, 0)&board.SquareBB(to) != 0
	case board.Queen:
		return board.QueenAttacks(from, 0)&board.SquareBB(to) != 0
	case board.King:
		return board.KingAttacks(from)&board.SquareBB(to) != 0
	}
	return false
}

// HasUpcomingRepetition reports whether the side to move can reach a
// position already seen earlier in the game by playing a single reversible
// move, i.e. a repetition is one ply away even though it hasn't happened
// yet. history holds the Zobrist hashes of all positions from the game
// root (or the last irreversible move) up to, but not including, the
// current position; ply is the current search ply.
//
// Grounded on Alexandria's hasGameCycle: walk back through the history two
// plies at a time (repetitions always have even parity), XORing the current
// key with each earlier key and testing both cuckoo slots for a match whose
// connecting squares are actually empty.
func HasUpcomingRepetition(pos *board.Position, history []uint64, ply int) bool {
	end := pos.HalfMoveClock
	if pos.PlyFromNull < end {
		end = pos.PlyFromNull
	}
	if end < 3 {
		return false
	}

	occupied := pos.AllOccupied
	originalKey := pos.Hash
	histLen := len(history)

	other := originalKey
	for i := 3; i <= end; i += 2 {
		idx := histLen - i
		if idx < 0 {
			break
		}
		diff := other ^ history[idx]

		var j uint64
		if cuckooKeys[cuckooH1(diff)] == diff {
			j = cuckooH1(diff)
		} else if cuckooKeys[cuckooH2(diff)] == diff {
			j = cuckooH2(diff)
		} else {
			continue
		}

		move := cuckooMoves[j]
		from, to := move.From(), move.To()

		if board.Between(from, to)&occupied != 0 {
			continue
		}

		if ply > i {
			return true
		}

		// The repetition would occur before the root; only count it if the
		// position that would repeat belongs to the side to move, matching
		// Alexandria's hasGameCycle semantics for a cycle found outside the
		// search tree.
		midSq := from
		if pos.PieceAt(midSq) == board.NoPiece {
			midSq = to
		}
		if pc := pos.PieceAt(midSq); pc != board.NoPiece && pc.Color() == pos.SideToMove {
			return true
		}
	}

	return false
}
