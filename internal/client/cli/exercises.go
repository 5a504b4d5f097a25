package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
)

// Pull downloads the exercise library and caches it locally for offline
// browsing.
func (a *App) Pull(ctx context.Context) error {
	items, err := a.api.FetchExercises(ctx, a.accessToken(ctx))
	if err != nil {
		printlnFn("Fetch failed:", err)
		return err
	}

	if err := a.store.CacheExercises(ctx, items); err != nil {
		printlnFn("Caching failed:", err)
		return err
	}

	printlnFn("Cached", len(items), "exercises")
	return nil
}

// List prints the locally cached exercise library.
func (a *App) List(ctx context.Context) error {
	items, err := a.store.CachedExercises(ctx)
	if err != nil {
		printlnFn("error:", err)
		return err
	}
	if len(items) == 0 {
		printlnFn("No cached exercises; run 'pull' while online")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMUSCLE GROUP")
	for _, data := range items {
		var e struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			MuscleGroup string `json:"muscleGroup"`
		}
		if err := json.Unmarshal(data, &e); err != nil {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID, e.Name, e.MuscleGroup)
	}
	return w.Flush()
}
