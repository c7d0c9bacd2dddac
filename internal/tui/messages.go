package tui

import (
	"github.com/Veraticus/bankctl/internal/notify"
	"github.com/Veraticus/bankctl/internal/status"
)

// changeMsg carries a tracker mutation.
type changeMsg status.Change

// noticeMsg carries a global notice.
type noticeMsg notify.Notice

// loadSettledMsg is sent when an issued load has settled or been skipped.
type loadSettledMsg struct {
	page int
}

// toastExpiredMsg hides the toast with the matching sequence number.
type toastExpiredMsg struct {
	seq int
}
