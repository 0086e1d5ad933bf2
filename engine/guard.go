// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"github.com/danielhkuo/swipeflow/auth"
	"github.com/danielhkuo/swipeflow/models"
)

// authorizeRun checks that caller may read or write run.
//
// Runs owned by a user accept only that user; a mismatch is ErrForbidden.
// Anonymous runs accept only the session token issued at creation, and any
// mismatch is reported as ErrRunNotFound so run IDs cannot be probed.
func authorizeRun(run *models.FlowRun, caller models.Caller) error {
	if run.UserID != nil {
		if caller.UserID == *run.UserID {
			return nil
		}
		return ErrForbidden
	}

	stored := ""
	if run.SessionToken != nil {
		stored = *run.SessionToken
	}
	if err := auth.ValidateSessionToken(caller.SessionToken, stored); err != nil {
		return ErrRunNotFound
	}
	return nil
}

// authorizeFlowOwner checks that caller authored flow
func authorizeFlowOwner(flow *models.Flow, caller models.Caller) error {
	if !caller.Authenticated() || caller.UserID != flow.OwnerID {
		return ErrForbidden
	}
	return nil
}

// authorizeRunCreation applies the visibility rules for starting a run on flow
func authorizeRunCreation(flow *models.Flow, caller models.Caller) error {
	if caller.Authenticated() && caller.UserID == flow.OwnerID {
		return nil
	}
	if !flow.IsPublic {
		return ErrFlowNotFound
	}
	if !caller.Authenticated() && !flow.AllowAnonymous {
		return ErrAnonymousNotAllowed
	}
	return nil
}
