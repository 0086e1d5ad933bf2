// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package flowgraph holds the storage-free logic of a swipe flow.

# Authoring

ValidateFlow checks a SaveFlowRequest before anything is written:

 1. Field constraints (go-playground/validator tags on the request types)
 2. Branch indices must point into the same card list
 3. The branch graph must be acyclic (DetectCycle)

Failures are returned as *ValidationError with Kind "malformed",
"invalid-branch" or "cycle". BuildCards then assigns IDs and materializes
branch edges as CardConnections.

# Execution

Resolve decides the next card for an answer. Explicit branches are followed
only when the target is a member of the flow's live card set; a foreign
target is reported in Resolution.Rejected and traversal continues in
sequential order.

# Outcomes

SumScore totals a run's answers. MatchTemplate picks the first template, by
(order, id), whose inclusive [min_score, max_score] range contains the score;
a nil max_score is unbounded.
*/
package flowgraph
