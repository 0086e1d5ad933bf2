// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides token generation and comparison utilities.

Caller authentication itself happens upstream; this package only mints and
checks the secrets the run engine hands out.

# Run IDs

Runs are addressed by random UUIDv4 values so IDs cannot be enumerated:

	runID, err := auth.GenerateRunID()

# Session Tokens

Anonymous runs are bound to a random 24-byte (192-bit) session token:

	token, err := auth.GenerateSessionToken()
	err = auth.ValidateSessionToken(presented, stored)

Tokens are URL-safe base64 encoded and travel as "Authorization: Bearer".
Comparison is constant time.

# Share Tokens

Each run gets a 32 character alphanumeric token for its result link:

	token, err := auth.GenerateShareToken()

# Public Slugs

Public flows are reachable through a deterministic base62 slug:

	slug := auth.GenerateShareSlug(flowID, salt)

# ID Generation

Random hex IDs for flows, cards and templates:

	id, err := auth.GenerateID(16)  // 32 hex characters

# IP Hashing

For privacy-preserving request metadata on runs:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
