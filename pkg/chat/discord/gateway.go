package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/txn2/dbsandbot/pkg/chat"
	"github.com/txn2/dbsandbot/pkg/commands"
)

// createThreadCommand is a message context-menu command, invoked from
// a message's right-click menu rather than the slash prompt.
const createThreadCommand = "Create DB Thread"

var manageChannels = int64(discordgo.PermissionManageChannels)

// Gateway connects the command handlers to the Discord gateway: it
// registers the application commands per guild, dispatches
// interactions, and feeds plain channel messages to the query path.
type Gateway struct {
	Session *discordgo.Session
	Handler *commands.Handler

	ctx context.Context
}

// Start wires the event handlers and opens the gateway connection.
// The context bounds all command execution; Stop closes the
// connection.
func (g *Gateway) Start(ctx context.Context) error {
	g.ctx = ctx
	g.Session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	g.Session.AddHandler(g.onGuildCreate)
	g.Session.AddHandler(g.onInteraction)
	g.Session.AddHandler(g.onMessage)

	if err := g.Session.Open(); err != nil {
		return fmt.Errorf("opening gateway connection: %w", err)
	}
	return nil
}

func (g *Gateway) Stop() error {
	return g.Session.Close()
}

func (g *Gateway) onGuildCreate(s *discordgo.Session, gc *discordgo.GuildCreate) {
	_, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, gc.ID, commandDefinitions())
	if err != nil {
		slog.Error("registering commands failed", "guild", gc.ID, "error", err)
		return
	}
	slog.Info("commands registered", "guild", gc.ID, "name", gc.Name)
}

func (g *Gateway) onMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	handled, err := g.Handler.PlainMessage(g.ctx, m.ChannelID, m.ID, m.Content)
	if err != nil {
		slog.Error("handling channel message failed", "channel", m.ChannelID, "error", err)
	}
	_ = handled
}

func (g *Gateway) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	r := &responder{session: s, interaction: i.Interaction}
	opts := optionMap(data.Options)

	var err error
	switch data.Name {
	case "connect":
		err = g.Handler.Connect(g.ctx, i.GuildID, i.ChannelID, commands.ConnectArgs(parseLoadArgs(data, opts)), r)
	case "create":
		err = g.Handler.Create(g.ctx, i.GuildID, r)
	case createThreadCommand:
		err = g.Handler.CreateThread(g.ctx, i.GuildID, i.ChannelID, data.TargetID, r)
	case "query", "q":
		err = g.Handler.Query(g.ctx, i.ChannelID, commands.QueryArgs{Query: opts.str("query")}, r)
	case "export":
		err = g.Handler.Export(g.ctx, i.ChannelID, r)
	case "load":
		err = g.Handler.Load(g.ctx, i.ChannelID, parseLoadArgs(data, opts), r)
	case "clean":
		err = g.Handler.Clean(g.ctx, i.ChannelID, r)
	case "clean_all":
		err = g.Handler.CleanAll(g.ctx, r)
	case "configure":
		err = g.Handler.Configure(g.ctx, i.GuildID, parseConfigArgs(opts), r)
	case "config_update":
		err = g.Handler.ConfigUpdate(g.ctx, i.GuildID, parseConfigArgs(opts), r)
	case "session_update":
		err = g.Handler.UpdatePrefs(g.ctx, i.ChannelID, parsePrefArgs(opts), r)
	default:
		slog.Warn("unknown command", "name", data.Name)
		return
	}

	var cmdErr *commands.CommandError
	switch {
	case err == nil:
	case errors.As(err, &cmdErr):
		if sendErr := r.Ephemeral(g.ctx, chat.Message{
			Title: cmdErr.Title,
			Body:  cmdErr.Description,
			Color: chat.ColorError,
		}); sendErr != nil {
			slog.Error("replying with command error failed", "command", data.Name, "error", sendErr)
		}
	default:
		slog.Error("command failed", "command", data.Name, "channel", i.ChannelID, "error", err)
	}
}

type optionIndex map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionMap(list []*discordgo.ApplicationCommandInteractionDataOption) optionIndex {
	out := make(optionIndex, len(list))
	for _, opt := range list {
		out[opt.Name] = opt
	}
	return out
}

func (o optionIndex) str(name string) string {
	if opt, ok := o[name]; ok {
		return opt.StringValue()
	}
	return ""
}

func (o optionIndex) channel(name string) string {
	if opt, ok := o[name]; ok {
		return opt.Value.(string)
	}
	return ""
}

func (o optionIndex) boolPtr(name string) *bool {
	if opt, ok := o[name]; ok {
		v := opt.BoolValue()
		return &v
	}
	return nil
}

func (o optionIndex) minutes(name string) time.Duration {
	if opt, ok := o[name]; ok {
		return time.Duration(opt.IntValue()) * time.Minute
	}
	return 0
}

func (o optionIndex) seconds(name string) time.Duration {
	if opt, ok := o[name]; ok {
		return time.Duration(opt.IntValue()) * time.Second
	}
	return 0
}

func parseLoadArgs(data discordgo.ApplicationCommandInteractionData, opts optionIndex) commands.LoadArgs {
	args := commands.LoadArgs{Dataset: opts.str("dataset")}
	if opt, ok := opts["file"]; ok && data.Resolved != nil {
		if att, ok := data.Resolved.Attachments[opt.Value.(string)]; ok {
			args.FileURL = att.URL
			args.FileName = att.Filename
		}
	}
	return args
}

func parseConfigArgs(opts optionIndex) commands.ConfigArgs {
	return commands.ConfigArgs{
		ActiveCategory:  opts.channel("active_category"),
		ArchiveCategory: opts.channel("archive_category"),
		TTL:             opts.minutes("ttl"),
		Timeout:         opts.seconds("timeout"),
		Pretty:          opts.boolPtr("pretty"),
		Structured:      opts.boolPtr("structured"),
	}
}

func parsePrefArgs(opts optionIndex) commands.PrefArgs {
	args := commands.PrefArgs{
		Pretty:       opts.boolPtr("pretty"),
		Structured:   opts.boolPtr("structured"),
		RequireQuery: opts.boolPtr("require_query"),
	}
	if d := opts.minutes("ttl"); d > 0 {
		args.TTL = &d
	}
	return args
}

func commandDefinitions() []*discordgo.ApplicationCommand {
	datasetOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "dataset",
		Description: "A premade dataset to load into the database instance",
		Choices: []*discordgo.ApplicationCommandOptionChoice{
			{Name: "Record shop", Value: "record_shop"},
			{Name: "Record shop (mini)", Value: "record_shop_mini"},
		},
	}
	fileOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionAttachment,
		Name:        "file",
		Description: "A SQL file to load into the database instance",
	}
	queryOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "query",
		Description: "Query string to run against the database instance",
		Required:    true,
	}
	configOptions := []*discordgo.ApplicationCommandOption{
		{
			Type:         discordgo.ApplicationCommandOptionChannel,
			Name:         "active_category",
			Description:  "Category for ephemeral sandbox channels",
			ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory},
		},
		{
			Type:         discordgo.ApplicationCommandOptionChannel,
			Name:         "archive_category",
			Description:  "Category expired sandbox channels are moved to",
			ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory},
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "ttl",
			Description: "Session lifetime in minutes",
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "timeout",
			Description: "Per-query timeout in seconds",
		},
		{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "pretty",
			Description: "Pretty-print query results by default",
		},
		{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "structured",
			Description: "Render query results as JSON by default",
		},
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        "connect",
			Description: "Creates a database instance and associates it with the current channel",
			Options:     []*discordgo.ApplicationCommandOption{datasetOption, fileOption},
		},
		{
			Name:        "create",
			Description: "Creates a channel with a database instance",
		},
		{
			Name: createThreadCommand,
			Type: discordgo.MessageApplicationCommand,
		},
		{
			Name:        "query",
			Description: "Query the database instance",
			Options:     []*discordgo.ApplicationCommandOption{queryOption},
		},
		{
			Name:        "q",
			Description: "Alias for /query",
			Options:     []*discordgo.ApplicationCommandOption{queryOption},
		},
		{
			Name:        "export",
			Description: "Export the database contents to a SQL file",
		},
		{
			Name:        "load",
			Description: "Load data into the channel's database instance",
			Options:     []*discordgo.ApplicationCommandOption{datasetOption, fileOption},
		},
		{
			Name:                     "clean",
			Description:              "Cleans the current channel",
			DefaultMemberPermissions: &manageChannels,
		},
		{
			Name:                     "clean_all",
			Description:              "Cleans all channels; intended for use before the bot shuts down",
			DefaultMemberPermissions: &manageChannels,
		},
		{
			Name:                     "configure",
			Description:              "Configure the bot for this server",
			DefaultMemberPermissions: &manageChannels,
			Options:                  configOptions,
		},
		{
			Name:                     "config_update",
			Description:              "Update this server's bot configuration",
			DefaultMemberPermissions: &manageChannels,
			Options:                  configOptions,
		},
		{
			Name:        "session_update",
			Description: "Change this session's output and lifetime preferences",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "pretty",
					Description: "Pretty-print query results",
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "structured",
					Description: "Render query results as JSON",
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "require_query",
					Description: "Only run queries sent via /query",
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "ttl",
					Description: "Session lifetime in minutes",
				},
			},
		},
	}
}
