package turn

import "context"

// recordTurn hands the audit record to the interaction logger without
// awaiting it: persistence runs on a detached context so it survives
// response-path cancellation, and its failure is logged locally, never
// surfaced to the caller.
func (e *Engine) recordTurn(ctx context.Context, rec AuditRecord) {
	if e.collab.Recorder == nil {
		return
	}

	bg := context.WithoutCancel(ctx)
	go func() {
		if err := e.collab.Recorder.SaveTurn(bg, rec); err != nil {
			e.logger.Warn("turn audit persistence failed", "turn", rec.TurnID, "error", err)
		}
	}()
}
