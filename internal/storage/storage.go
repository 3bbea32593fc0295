package storage

import "pointscope/internal/model"

// NotificationSink is a sink for trade notifications, used to capture engine
// output for later replay and to quarantine records the accrual pipeline
// could not process.
type NotificationSink interface {
	PutNotificationBatch(notes []model.TradeNotification) error
}
