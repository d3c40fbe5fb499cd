// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package facts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/notnil/chess"

	"github.com/AleutianAI/passmith/pkg/logging"
)

// knownPuzzles pairs positions from the surface's puzzle pool with the
// answer it expects. The oracle consults this before searching because the
// surface accepts exactly one notation for each puzzle, and a search can
// legitimately find a different winning move.
var knownPuzzles = map[string]string{
	"6k1/5ppp/8/8/8/8/8/4R1K1 w - - 0 1":                                 "Re8+",
	"rnbqkbnr/pppp1ppp/8/4p3/6P1/5P2/PPPPP2P/RNBQKBNR b KQkq - 0 1":      "Qh4+",
	"r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5Q2/PPPP1PPP/RNB1K1NR w KQkq - 0 1": "Qxf7+",
	"k7/8/8/3q4/8/4N3/8/K7 w - - 0 1":                                    "Nxd5",
	"r2qkb1r/pp2nppp/3p4/2pNN1B1/2BnP3/3P4/PPP2PPP/R2bK2R w KQkq - 0 1":  "Nf6+",
}

// ChessPuzzles returns a copy of the known puzzle pool, position to
// expected answer. The simulated surface draws its chess rule from here.
func ChessPuzzles() map[string]string {
	out := make(map[string]string, len(knownPuzzles))
	for fen, move := range knownPuzzles {
		out[fen] = move
	}
	return out
}

// mateScore dominates any material evaluation; adding the remaining depth
// makes nearer mates score higher.
const mateScore = 100000

// pieceValues are centipawn weights for the material evaluation.
var pieceValues = map[chess.PieceType]int{
	chess.Pawn:   100,
	chess.Knight: 320,
	chess.Bishop: 330,
	chess.Rook:   500,
	chess.Queen:  900,
}

// Oracle answers chess rules: known puzzles from the pool, anything else
// by a fixed-depth alpha-beta search under a time budget.
type Oracle struct {
	known  map[string]string
	depth  int
	budget time.Duration
	logger *logging.Logger
}

// OracleOption configures an Oracle.
type OracleOption func(*Oracle)

// WithSearchDepth overrides the search depth in plies.
func WithSearchDepth(depth int) OracleOption {
	return func(o *Oracle) { o.depth = depth }
}

// WithSearchBudget overrides the wall-clock budget per search.
func WithSearchBudget(budget time.Duration) OracleOption {
	return func(o *Oracle) { o.budget = budget }
}

// WithKnownMoves replaces the known puzzle pool.
func WithKnownMoves(known map[string]string) OracleOption {
	return func(o *Oracle) { o.known = known }
}

// NewOracle creates an oracle with depth 4 and a 15 second budget.
func NewOracle(logger *logging.Logger, opts ...OracleOption) *Oracle {
	o := &Oracle{
		known:  ChessPuzzles(),
		depth:  4,
		budget: 15 * time.Second,
		logger: logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// BestMove returns the move the surface expects for the position.
func (o *Oracle) BestMove(ctx context.Context, fen string) (string, error) {
	if move, ok := o.known[fen]; ok {
		return move, nil
	}

	fenOpt, err := chess.FEN(fen)
	if err != nil {
		return "", fmt.Errorf("%w: bad position %q: %v", ErrNotFound, fen, err)
	}
	pos := chess.NewGame(fenOpt).Position()

	moves := pos.ValidMoves()
	if len(moves) == 0 {
		return "", fmt.Errorf("%w: no legal moves in %q", ErrNotFound, fen)
	}

	ctx, cancel := context.WithTimeout(ctx, o.budget)
	defer cancel()

	started := time.Now()
	var best *chess.Move
	alpha, beta := -2*mateScore, 2*mateScore
	for _, move := range moves {
		score, err := o.search(ctx, pos.Update(move), o.depth-1, -beta, -alpha)
		if err != nil {
			return "", fmt.Errorf("%w: search aborted: %v", ErrUnavailable, err)
		}
		score = -score
		if best == nil || score > alpha {
			best = move
			alpha = score
		}
	}

	answer := formatMove(pos, best)
	o.logger.Debug("chess search finished",
		"depth", o.depth,
		"moves", len(moves),
		"score", alpha,
		"elapsed", time.Since(started))
	return answer, nil
}

// search is a plain negamax with alpha-beta pruning. Scores are from the
// perspective of the side to move.
func (o *Oracle) search(ctx context.Context, pos *chess.Position, depth, alpha, beta int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	switch pos.Status() {
	case chess.Checkmate:
		return -(mateScore + depth), nil
	case chess.Stalemate:
		return 0, nil
	}

	if depth <= 0 {
		return evaluate(pos), nil
	}

	for _, move := range pos.ValidMoves() {
		score, err := o.search(ctx, pos.Update(move), depth-1, -beta, -alpha)
		if err != nil {
			return 0, err
		}
		score = -score
		if score >= beta {
			return beta, nil
		}
		if score > alpha {
			alpha = score
		}
	}
	return alpha, nil
}

// evaluate is a pure material count for the side to move.
func evaluate(pos *chess.Position) int {
	board := pos.Board()
	score := 0
	for sq := 0; sq < 64; sq++ {
		piece := board.Piece(chess.Square(sq))
		if piece == chess.NoPiece {
			continue
		}
		value := pieceValues[piece.Type()]
		if piece.Color() == pos.Turn() {
			score += value
		} else {
			score -= value
		}
	}
	return score
}

// formatMove renders a move the way the surface writes its answers: piece
// letter (none for pawns), "x" on captures, destination square, "+" on
// checks. The puzzle pool has no castling, promotions, or moves needing
// disambiguation, so none of that is rendered.
func formatMove(pos *chess.Position, move *chess.Move) string {
	var sb strings.Builder
	switch pos.Board().Piece(move.S1()).Type() {
	case chess.King:
		sb.WriteString("K")
	case chess.Queen:
		sb.WriteString("Q")
	case chess.Rook:
		sb.WriteString("R")
	case chess.Bishop:
		sb.WriteString("B")
	case chess.Knight:
		sb.WriteString("N")
	}
	if move.HasTag(chess.Capture) || move.HasTag(chess.EnPassant) {
		sb.WriteString("x")
	}
	sb.WriteString(move.S2().String())
	if move.HasTag(chess.Check) {
		sb.WriteString("+")
	}
	return sb.String()
}

var _ ChessOracle = (*Oracle)(nil)
