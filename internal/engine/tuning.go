package engine

// Feature toggles for the search heuristics. Kept as compile-time constants
// (rather than UCI options) since none of them are meant to be tuned by the
// operator; they exist so a heuristic can be isolated during debugging by
// flipping one value here.
const (
	EnableThreatExt       = true
	EnableHindsightDepth  = true
	EnableRFP             = true
	EnableRazoring        = true
	EnableNMP             = true
	EnableProbcut         = true
	EnableMulticut        = true
	EnableFutilityPruning = true
	EnableSingularExt     = true
	EnableSEEPruning      = true
	EnableLMP             = true
	EnableHistoryPruning  = true
)

const (
	threatExtensionMinDepth  = 5
	threatExtensionThreshold = 300 // roughly a minor piece

	probcutDepth = 5

	multicutDepth    = 8
	multicutMoves    = 6
	multicutRequired = 3

	historyPruningThreshold = -2000

	// lazyEvalMargin gates the lazy-eval shortcut in quiescence: when the
	// material-only estimate (EvaluateMaterial) clears alpha/beta by this
	// much, the full evaluation is skipped.
	lazyEvalMargin = 1100

	// persistDepthFloor is the minimum store depth mirrored to the
	// optional on-disk hash store; shallow/noisy results stay in-memory only.
	persistDepthFloor = 16
)

// lmpThreshold[depth] is the move-count cutoff for late move pruning of
// quiet moves at a given remaining depth.
var lmpThreshold = [16]int{
	0, 5, 8, 13, 20, 28, 38, 50, 64, 80, 98, 118, 140, 164, 190, 218,
}
