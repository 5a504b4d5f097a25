package cli

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strconv"

	"github.com/coachsync/coachsync/internal/client/client"
	"github.com/coachsync/coachsync/internal/client/models"
)

// submit sends the mutation directly when online and falls back to the
// local queue when the server is unreachable. Queued entries replay later
// in the order they were recorded.
func (a *App) submit(ctx context.Context, action string, payload json.RawMessage) error {
	if a.Mode == ModeOnline {
		err := a.api.PostEvent(ctx, a.accessToken(ctx), action, payload)
		if err == nil {
			printlnFn("Saved")
			return nil
		}
		if !errors.Is(err, client.ErrUnavailable) {
			printlnFn("error:", err)
			return err
		}
		a.setMode(ModeOffline)
	}

	if err := a.store.Enqueue(ctx, action, payload); err != nil {
		printlnFn("error queueing:", err)
		return err
	}
	printlnFn("Saved locally; will sync when online")
	return nil
}

// LogWorkout records a completed set for an exercise.
func (a *App) LogWorkout(ctx context.Context) error {
	exerciseID, err := GetSimpleText(a.reader, "Exercise id", os.Stdout)
	if err != nil {
		return err
	}
	repsText, err := GetSimpleText(a.reader, "Reps", os.Stdout)
	if err != nil {
		return err
	}
	reps, err := strconv.Atoi(repsText)
	if err != nil {
		printlnFn("Reps must be a number")
		return err
	}
	weightText, err := GetSimpleText(a.reader, "Weight, kg (empty for bodyweight)", os.Stdout)
	if err != nil {
		return err
	}

	body := map[string]any{"exerciseId": exerciseID, "reps": reps}
	if weightText != "" {
		weight, err := strconv.ParseFloat(weightText, 64)
		if err != nil {
			printlnFn("Weight must be a number")
			return err
		}
		body["weightKg"] = weight
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return a.submit(ctx, models.WorkoutActionLog, payload)
}

// CompleteWorkout marks a scheduled workout finished.
func (a *App) CompleteWorkout(ctx context.Context) error {
	workoutID, err := GetSimpleText(a.reader, "Workout id", os.Stdout)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]string{"workoutId": workoutID})
	if err != nil {
		return err
	}
	return a.submit(ctx, models.WorkoutActionComplete, payload)
}

// SkipWorkout marks a scheduled workout skipped.
func (a *App) SkipWorkout(ctx context.Context) error {
	workoutID, err := GetSimpleText(a.reader, "Workout id", os.Stdout)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]string{"workoutId": workoutID})
	if err != nil {
		return err
	}
	return a.submit(ctx, models.WorkoutActionSkip, payload)
}

// LogMetric records a body metric measurement (weight, body fat, etc).
func (a *App) LogMetric(ctx context.Context) error {
	name, err := GetSimpleText(a.reader, "Metric name (e.g. weight)", os.Stdout)
	if err != nil {
		return err
	}
	valueText, err := GetSimpleText(a.reader, "Value", os.Stdout)
	if err != nil {
		return err
	}
	value, err := strconv.ParseFloat(valueText, 64)
	if err != nil {
		printlnFn("Value must be a number")
		return err
	}

	payload, err := json.Marshal(map[string]any{"metric": name, "value": value})
	if err != nil {
		return err
	}
	return a.submit(ctx, models.MetricActionLog, payload)
}

// Sync replays the queued mutations and reports the tally.
func (a *App) Sync(ctx context.Context) error {
	result, err := a.syncer.Sync(ctx)
	if err != nil {
		printlnFn("Sync error:", err)
		return err
	}
	printlnFn("Synced:", result.Synced, "failed:", result.Failed)
	return nil
}
