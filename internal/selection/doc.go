// Package selection reduces an ordered sequence of extracted frames to a
// representative subsequence.
//
// Three strategies share one contract: the result is an order-preserving
// subsequence of the input and never contains references that were not in
// the input. Uniform picks frames at a fixed stride. Scene picks frames
// whose color histogram differs from the previous decoded frame by more
// than a chi-square threshold. Motion picks frames whose mean dense optical
// flow against the previous decoded frame exceeds a threshold.
//
// Scene and Motion decode frames ahead of the comparison through a bounded
// lookahead pipeline while folding features strictly in input order, so the
// previous-frame state is always the immediately preceding decoded frame.
package selection
