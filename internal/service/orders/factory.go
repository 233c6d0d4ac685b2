package orders

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type actionFunc func(context.Context, uuid.UUID, Event) error

type actionFactory struct {
	byStatus map[string]actionFunc
}

func newActionFactory(onCanceled actionFunc) *actionFactory {
	return &actionFactory{
		byStatus: map[string]actionFunc{
			"canceled":  onCanceled,
			"cancelled": onCanceled,
			"deleted":   onCanceled,
		},
	}
}

func (f *actionFactory) get(status string) (actionFunc, bool) {
	status = strings.ToLower(strings.TrimSpace(status))
	fn, ok := f.byStatus[status]
	return fn, ok
}
