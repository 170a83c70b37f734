package infrastructure

import (
	"fmt"

	"lotto/events"
)

const (
	SubjectPlayCompleted = "lotto.play.completed"
	SubjectBalanceChange = "lotto.balance.changed"
)

// MapEventToSubject converts an event to its NATS subject
func MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypePlayCompleted:
		return SubjectPlayCompleted
	case events.EventTypeBalanceChange:
		return SubjectBalanceChange
	default:
		return fmt.Sprintf("lotto.unknown.%s", event.Type())
	}
}
