package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophsync/internal/client/models"
)

var errNoChanges = errors.New("nothing to change")

func syncedLabel(r models.MutationResult) string {
	if r.Synced {
		return "synced"
	}
	return "queued"
}

func (a *App) Add(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	desc, err := GetMultiline(a.reader, "Description", a.out)
	if err != nil {
		return err
	}
	p, err := getSimpleText(a.reader, "Priority (low/medium/high, empty for low)", a.out)
	if err != nil {
		return err
	}
	prio, err := models.ParsePriority(p)
	if err != nil {
		return err
	}

	res, err := a.engine.AddRecord(ctx, models.NewTodo{Title: title, Description: desc, Priority: prio})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %s (%s)\n", res.ID, syncedLabel(res))
	return nil
}

// parseListFilter reads "list" arguments: an optional active|completed, an
// optional priority, and any remaining words as a search query.
func parseListFilter(args []string) models.TodoFilter {
	var f models.TodoFilter
	var query []string
	for _, arg := range args {
		switch c := models.Completion(arg); {
		case f.Completion == "" && (c == models.CompletionActive || c == models.CompletionCompleted):
			f.Completion = c
		case f.Priority == "" && (arg == string(models.PriorityLow) || arg == string(models.PriorityMedium) || arg == string(models.PriorityHigh)):
			f.Priority = models.Priority(arg)
		default:
			query = append(query, arg)
		}
	}
	f.Query = strings.Join(query, " ")
	return f
}

func (a *App) List(ctx context.Context, args []string) error {
	items, err := a.engine.ListRecords(ctx)
	if err != nil {
		return err
	}
	items = parseListFilter(args).Apply(items)
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No todos")
		return nil
	}
	for _, t := range items {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		dirty := ""
		if t.Dirty {
			dirty = " *"
		}
		fmt.Fprintf(a.out, "[%s] %s  %-6s  %s%s\n", mark, t.ID, t.Priority, t.Title, dirty)
	}
	return nil
}

func (a *App) Show(ctx context.Context, id string) error {
	t, err := a.engine.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "ID:          %s\n", t.ID)
	fmt.Fprintf(a.out, "Title:       %s\n", t.Title)
	fmt.Fprintf(a.out, "Priority:    %s\n", t.Priority)
	fmt.Fprintf(a.out, "Completed:   %t\n", t.Completed)
	fmt.Fprintf(a.out, "Updated:     %s\n", t.UpdatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(a.out, "Pending:     %t\n", t.Dirty)
	if t.Description != "" {
		fmt.Fprintf(a.out, "Description:\n%s\n", t.Description)
	}
	return nil
}

// Edit prompts for each field; an empty answer keeps the current value.
func (a *App) Edit(ctx context.Context, id string) error {
	cur, err := a.engine.GetRecord(ctx, id)
	if err != nil {
		return err
	}

	var patch models.TodoPatch

	title, err := getSimpleText(a.reader, fmt.Sprintf("Title [%s]", cur.Title), a.out)
	if err != nil {
		return err
	}
	if title != "" && title != cur.Title {
		patch.Title = &title
	}

	desc, err := GetMultiline(a.reader, "Description (empty keeps current)", a.out)
	if err != nil {
		return err
	}
	if desc != "" && desc != cur.Description {
		patch.Description = &desc
	}

	p, err := getSimpleText(a.reader, fmt.Sprintf("Priority [%s]", cur.Priority), a.out)
	if err != nil {
		return err
	}
	if p != "" {
		prio, err := models.ParsePriority(p)
		if err != nil {
			return err
		}
		if prio != cur.Priority {
			patch.Priority = &prio
		}
	}

	if patch.Empty() {
		return errNoChanges
	}

	res, err := a.engine.UpdateRecord(ctx, id, patch)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated %s (%s)\n", res.ID, syncedLabel(res))
	return nil
}

func (a *App) Toggle(ctx context.Context, id string, completed bool) error {
	res, err := a.engine.ToggleRecord(ctx, id, completed)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Marked %s (%s)\n", res.ID, syncedLabel(res))
	return nil
}

func (a *App) Delete(ctx context.Context, id string) error {
	res, err := a.engine.DeleteRecord(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s (%s)\n", res.ID, syncedLabel(res))
	return nil
}

func (a *App) Sync(ctx context.Context) error {
	rep, err := a.engine.Sync(ctx)
	if err != nil {
		return err
	}
	if rep.Skipped {
		fmt.Fprintln(a.out, "Sync skipped: offline, not signed in online, or already running")
		return nil
	}
	fmt.Fprintf(a.out, "Synced %d, duplicates %d, abandoned %d, failed %d, remaining %d\n",
		rep.Synced, rep.Duplicates, rep.Abandoned, rep.Failed, rep.Remaining)
	return nil
}

func (a *App) Status(ctx context.Context) error {
	n, err := a.engine.ListPendingCount(ctx)
	if err != nil {
		return err
	}
	s := a.engine.Session()
	mode := string(s.Mode)
	if mode == "" {
		mode = "signed out"
	}
	fmt.Fprintf(a.out, "Network:  %s\n", onlineLabel(a.engine.Online()))
	fmt.Fprintf(a.out, "Session:  %s\n", mode)
	fmt.Fprintf(a.out, "Pending:  %d\n", n)
	if a.engine.IsSyncing() {
		fmt.Fprintln(a.out, "Syncing:  yes")
	}
	return nil
}

func onlineLabel(online bool) string {
	if online {
		return "online"
	}
	return "offline"
}
