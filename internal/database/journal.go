// internal/database/journal.go
package database

import (
	"errors"
	"time"

	"nagwatch/internal/command"
)

// RecordsFor builds journal entries for a submitted batch. err is the result
// of the submission; with a partial write only the leading commands that
// reached the sink are marked written.
func RecordsFor(cmds []command.Command, at time.Time, err error) []CommandRecord {
	written := len(cmds)
	if err != nil {
		written = 0
		var werr *command.WriteError
		if errors.As(err, &werr) {
			written = werr.Written
		}
	}

	records := make([]CommandRecord, 0, len(cmds))
	for i, cmd := range cmds {
		rec := CommandRecord{
			Name:        cmd.Name(),
			Params:      cmd.Params(),
			Line:        cmd.Line(at.Unix()),
			SubmittedAt: at,
			Written:     i < written,
		}
		if !rec.Written && err != nil {
			rec.Error = err.Error()
		}
		records = append(records, rec)
	}
	return records
}
