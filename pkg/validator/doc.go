// Package validator provides composable validation rules.
//
// Each rule pairs a check with the error reported when the check fails.
// Apply evaluates every rule and returns the failures as ValidationErrors:
//
//	err := validator.Apply(
//		validator.Required("session_id", batch.SessionID),
//		validator.MaxLen("session_id", batch.SessionID, 128),
//	)
//
// ValidationErrors carries a translation key per failure so callers can
// localise messages without parsing them.
package validator
