// internal/workers/communication/notify-matches/models.go
package notifymatches

import "sponsorloop-workers/internal/matching"

type Input struct {
	Channel    string                 `json:"channel"`
	Recipient  string                 `json:"recipient"`
	ViewerName string                 `json:"viewerName,omitempty"`
	Matches    []matching.MatchResult `json:"matches"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Channel        string `json:"channel"`
	Status         string `json:"status"`
	MessageID      string `json:"messageId,omitempty"`
	SentAt         string `json:"sentAt"`
}

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

const (
	StatusSent     = "sent"
	StatusSkipped  = "skipped"
	StatusDisabled = "disabled"
)
