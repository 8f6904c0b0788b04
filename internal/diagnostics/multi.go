package diagnostics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-dbaccess/internal/infrastructure/database"
)

// Multi fans an event out to every sink in order. A failing sink does not
// stop the rest; all errors are joined.
type Multi []database.EventSink

// Record implements database.EventSink.
func (m Multi) Record(ctx context.Context, ev database.Event) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// encodeParams renders bound parameters the way the file log shows them.
func encodeParams(params []any) string {
	if len(params) == 0 {
		return "[]"
	}
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprint(params)
	}
	return string(data)
}
