package diagnostics

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-dbaccess/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-dbaccess/internal/infrastructure/logging"
)

// Log channels written by FileRecorder.
const (
	ChannelSlow  = "db-slow.log"
	ChannelInfo  = "info.log"
	ChannelError = "error.log"
)

// FileRecorder writes events to the channelized file log.
type FileRecorder struct {
	sink *logging.FileSink
}

// NewFileRecorder returns a recorder writing to sink. A nil or disabled
// sink records nothing.
func NewFileRecorder(sink *logging.FileSink) *FileRecorder {
	return &FileRecorder{sink: sink}
}

// Record writes ev to its channel:
//   - slow queries as a JSON {cost, sql, params, rows} record at WARNING on db-slow.log
//   - reconnects at INFO on info.log
//   - failures at ERROR on error.log
func (r *FileRecorder) Record(_ context.Context, ev database.Event) error {
	switch ev.Kind {
	case database.EventSlowQuery:
		return r.sink.Write(logging.SeverityWarning, ev.SlowQuery(), ChannelSlow)
	case database.EventReconnect:
		msg := fmt.Sprintf("[dbaccess] Database reconnect (attempt %d) [%s]", ev.Attempt, ev.Message)
		return r.sink.Write(logging.SeverityInfo, msg, ChannelInfo)
	case database.EventFailure:
		msg := fmt.Sprintf("[dbaccess] Database %s failed [%s][%s]%s",
			ev.Action, ev.Message, ev.SQL, encodeParams(ev.Params))
		return r.sink.Write(logging.SeverityError, msg, ChannelError)
	default:
		return nil
	}
}
