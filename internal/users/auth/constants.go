// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

// # Client Messages

const (
	MsgMissingRegisterData = "Malformed body - Missing data in request body."
	MsgEmailInUse          = "Email already in use."
	MsgUserCreated         = "User successfully created."
	MsgMissingInput        = "Missing input."
	MsgBadCredentials      = "User email or password incorrect."
	MsgNotVerified         = "User email not verified."
	MsgUserNotFound        = "User not found."
	MsgAlreadyVerified     = "User already verified."
	MsgTokenSuperseded     = "Verification token superseded."
	MsgVerified            = "User verification successful."
	MsgVerificationResent  = "New user verification successfully requested."
	MsgMissingEmailParam   = "Input parameters incorrect."
	MsgLogout              = "Logout successful."
	MsgAuthRequired        = "Authentication required."
)

// # Metric Events

const (
	eventRegister = "register"
	eventLogin    = "login"
	eventVerify   = "verify"
	eventRefresh  = "refresh"
	eventLogout   = "logout"

	outcomeSuccess  = "success"
	outcomeRejected = "rejected"
	outcomeConflict = "conflict"
)
