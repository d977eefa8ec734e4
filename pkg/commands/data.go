package commands

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/txn2/dbsandbot/pkg/chat"
	"github.com/txn2/dbsandbot/pkg/engine"
	"github.com/txn2/dbsandbot/pkg/session"
)

//go:embed premade/*.sql
var premadeFS embed.FS

// premadeDatasets maps a selectable dataset name to its embedded file.
var premadeDatasets = map[string]string{
	"record_shop":      "premade/record_shop.sql",
	"record_shop_mini": "premade/record_shop_mini.sql",
}

func datasetNames() string {
	names := make([]string, 0, len(premadeDatasets))
	for name := range premadeDatasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// Export posts the session's full dump as an export.sql attachment.
// Exports past the attachment ceiling are discarded, never sent
// partially.
func (h *Handler) Export(ctx context.Context, channelID string, r chat.Responder) error {
	s, ok := h.Registry.Get(channelID)
	if !ok {
		return replyErr(ctx, r, errNoSession)
	}

	if err := r.Reply(ctx, chat.Message{
		Title: "Exporting database",
		Color: chat.ColorInfo,
	}); err != nil {
		return err
	}

	data, err := s.DB.Export(ctx)
	if err != nil {
		return r.Edit(ctx, chat.Message{
			Title: "Export failed",
			Body:  fmt.Sprintf("Database export failed: %s", err),
			Color: chat.ColorError,
		})
	}
	if len(data) > h.exportCeiling() {
		return r.Edit(ctx, chat.Message{
			Title: "Export too large",
			Body:  "Your database is too powerful, the export is too large to send.",
			Color: chat.ColorError,
		})
	}

	return r.Followup(ctx, chat.Message{
		Title: "Database exported",
		Color: chat.ColorSuccess,
		Files: []chat.File{{Name: "export." + engine.Extension, Data: data}},
	})
}

// LoadArgs are the parsed options of /load. At most one of Dataset and
// FileURL is set.
type LoadArgs struct {
	Dataset  string
	FileURL  string
	FileName string
}

// Load imports a premade dataset or a user-supplied file into the
// conversation's existing session.
func (h *Handler) Load(ctx context.Context, channelID string, args LoadArgs, r chat.Responder) error {
	if args.Dataset == "" && args.FileURL == "" {
		return r.Ephemeral(ctx, chat.Message{
			Title: "Nothing to load",
			Body:  "Please select a premade dataset or supply a SQL file to load.",
			Color: chat.ColorInfo,
		})
	}

	s, ok := h.Registry.GetAndTouch(channelID)
	if !ok {
		return replyErr(ctx, r, errNoSession)
	}

	if args.Dataset != "" {
		return h.loadDataset(ctx, s, args.Dataset, r)
	}
	return h.loadFile(ctx, s, args.FileURL, args.FileName, r)
}

func (h *Handler) loadDataset(ctx context.Context, s session.Session, name string, r chat.Responder) error {
	path, ok := premadeDatasets[name]
	if !ok {
		return replyErr(ctx, r, errUnknownDataset(name))
	}

	if err := r.Ephemeral(ctx, chat.Message{
		Title: "Premade dataset loading...",
		Body:  fmt.Sprintf("The dataset is currently being loaded, soon you'll be able to query the %s dataset!\nPlease wait for a confirmation that the dataset is loaded!", name),
	}); err != nil {
		return err
	}

	script, err := premadeFS.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading premade dataset %s: %w", name, err)
	}
	return h.importScript(ctx, s, string(script), fmt.Sprintf("You can now query the %s dataset!", name), r)
}

func (h *Handler) loadFile(ctx context.Context, s session.Session, url, filename string, r chat.Responder) error {
	if err := r.Ephemeral(ctx, chat.Message{
		Title: "Downloading attachment",
		Body:  fmt.Sprintf("Now downloading `%s`, please wait.", filename),
	}); err != nil {
		return err
	}

	data, err := h.Chat.Download(ctx, url)
	if err != nil {
		return r.Edit(ctx, chat.Message{
			Title: "Download failed",
			Body:  fmt.Sprintf("Could not download the attachment: %s", err),
			Color: chat.ColorError,
		})
	}
	if len(data) > h.maxLoadBytes() {
		return r.Edit(ctx, chat.Message{
			Title: "File too large",
			Body:  fmt.Sprintf("The attachment exceeds the %d byte import limit.", h.maxLoadBytes()),
			Color: chat.ColorError,
		})
	}

	return h.importScript(ctx, s, string(data), "You can now query your dataset.", r)
}

func (h *Handler) importScript(ctx context.Context, s session.Session, script, doneBody string, r chat.Responder) error {
	res, err := s.DB.Execute(ctx, script, nil)
	if err == nil {
		for _, out := range res {
			if out.Err != nil {
				err = out.Err
				break
			}
		}
	}
	if err != nil {
		return r.Edit(ctx, chat.Message{
			Title: "Dataset loading failed",
			Body:  fmt.Sprintf("Error loading data: %s", err),
			Color: chat.ColorError,
		})
	}

	return r.Edit(ctx, chat.Message{
		Title: "Imported successfully",
		Body:  "Your data has been imported successfully!\n" + doneBody,
		Color: chat.ColorSuccess,
	})
}
