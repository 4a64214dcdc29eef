package service

import (
	"errors"

	"github.com/d60-Lab/notify-fanout/internal/event"
)

var (
	ErrEventNotFound  = errors.New("domain event not found")
	ErrThreadNotFound = errors.New("chat thread not found")
	// 与 event 包共用同一个哨兵，errors.Is 两边都成立
	ErrInvalidPayload   = event.ErrInvalid
	ErrUnsupportedEvent = event.ErrUnsupported
)
