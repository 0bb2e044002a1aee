package domain

import "errors"

var (
	ErrInvalidSample     = errors.New("invalid sample")
	ErrMalformedDatagram = errors.New("malformed datagram")
	ErrNoData            = errors.New("no climate data available")
	ErrUnknownMode       = errors.New("unknown actuation mode")
	ErrUnknownUnit       = errors.New("unknown temperature unit")
	ErrUnknownColdStart  = errors.New("unknown cold start strategy")
)
