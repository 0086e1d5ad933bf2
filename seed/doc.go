// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package seed loads flow fixtures from YAML at start-up.

A fixture file lists flows with their owner, cards and result templates:

	flows:
	  - owner: author-1
	    name: Coffee personality
	    is_public: true
	    cards:
	      - question: Do you take it black?
	        scores: [0, 10]
	        branches: [null, 2]
	      - question: Oat milk?
	    templates:
	      - title: Espresso
	        content: Full strength
	        min_score: 10

Fixtures go through the same save path as API requests, so a cyclic or
malformed flow stops start-up with the usual validation error. Flows the
owner already has (by name) are skipped.
*/
package seed
