package client

import "github.com/TFMV/deltabox/pkg/errors"

// Error codes for client package
var (
	// Connection errors
	ErrClientNotConnected = errors.MustNewCode("client.not_connected")
	ErrConnectionFailed   = errors.MustNewCode("client.connection_failed")

	// Table operation errors
	ErrHistoryFailed = errors.MustNewCode("client.history_failed")
	ErrDetailFailed  = errors.MustNewCode("client.detail_failed")
	ErrRestoreFailed = errors.MustNewCode("client.restore_failed")
	ErrConvertFailed = errors.MustNewCode("client.convert_failed")
	ErrCheckFailed   = errors.MustNewCode("client.check_failed")
)
