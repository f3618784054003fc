// Package service provides business logic services for the CKBFS faucet.
package service

import "errors"

// Common service errors.
var (
	// Claim attribute errors
	ErrRequestUUIDInvalid = errors.New("request_uuid must be a 0x-prefixed 32-byte hex string")
	ErrPk160Invalid       = errors.New("pk160 must be a 0x-prefixed 20-byte hex string")
	ErrRequestTypeInvalid = errors.New("request_type must be 0 or 1")
	ErrAcpTypeInvalid     = errors.New("acp_type must be 1")

	// Quota errors
	ErrQuotaBusy = errors.New("timed out waiting for the claim quota lock")

	// General errors
	ErrEncryptionFailed = errors.New("encryption failed")
	ErrDecryptionFailed = errors.New("decryption failed")
	ErrInternalError    = errors.New("internal server error")
)
