package coach

import (
	"context"
	"time"

	"habit-coach-backend/internal/ai"
	"habit-coach-backend/internal/apperr"
	"habit-coach-backend/internal/tasks"
)

// Recorder turns a validated score into exactly one progress record and
// links it to its task. The store does both in one transaction.
type Recorder struct {
	Store tasks.Store
	// Now stamps the record's date; time.Now when nil.
	Now func() time.Time
}

// Record snapshots task and stores score. A context cancelled before the
// write leaves nothing behind.
func (r *Recorder) Record(ctx context.Context, task tasks.Task, score ai.ScoreReport) (*tasks.ProgressRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, ai.OpScore, err)
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	rec := &tasks.ProgressRecord{
		TaskID:      task.ID,
		Date:        now().UTC(),
		UserID:      task.UserID,
		Progress:    task.Progress,
		IsCompleted: task.Status == tasks.StatusCompleted,
		AIScore:     score.Score,
		AIFeedback:  score.Feedback,
	}
	if task.Type != tasks.TypeContinuous {
		rec.Progress = nil
	}

	if err := r.Store.AppendProgressRecord(ctx, rec); err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, ai.OpScore, err)
	}
	return rec, nil
}
