package host

import "errors"

var (
	// ErrInputShape reports a matrix or tour whose size disagrees with n, or
	// an n the loaded circuit cannot hold.
	ErrInputShape = errors.New("host: input shape mismatch")
	// ErrProvingFailed wraps every failure of the engine's Execute, including
	// an invalid tour rejected by the validator.
	ErrProvingFailed = errors.New("host: proving failed")
	// ErrVerification means the local check of a fresh receipt failed. No
	// artifacts are produced after it.
	ErrVerification = errors.New("host: local verification failed")
	ErrExport       = errors.New("host: artifact export failed")
)
