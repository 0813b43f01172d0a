// Command briefly is a terminal client for BrieflyAI: chat with the
// assistant to create briefs, then open, edit, save, delete and export them.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/briefly-ai/briefly-go/internal/assistant"
	"github.com/briefly-ai/briefly-go/internal/briefs"
	"github.com/briefly-ai/briefly-go/internal/briefstore"
	"github.com/briefly-ai/briefly-go/internal/collection"
	"github.com/briefly-ai/briefly-go/internal/config"
	"github.com/briefly-ai/briefly-go/internal/conversation"
	"github.com/briefly-ai/briefly-go/internal/editor"
	"github.com/briefly-ai/briefly-go/internal/identity"
	"github.com/briefly-ai/briefly-go/internal/metrics"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Development() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	log.Logger = logger
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	auth := &identity.StaticToken{Token: cfg.SessionToken}
	m := metrics.New()

	store := briefstore.NewClient(cfg.APIBaseURL, auth, logger)
	store.SetHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout})
	store.SetMetrics(m)

	chat := assistant.NewClient(cfg.APIBaseURL, auth, logger)
	chat.SetHTTPClient(&http.Client{Timeout: cfg.ChatTimeout})
	chat.SetMetrics(m)

	reconciler := collection.New(store, logger)
	reconciler.SetMetrics(m)

	engine := conversation.NewEngine(chat, reconciler, logger,
		conversation.WithListener(func(ev conversation.Event) {
			if ev.Kind == conversation.EventBriefCreated && ev.Brief != nil {
				fmt.Printf("  [new brief %s: %s]\n", ev.Brief.ID, ev.Brief.Title)
			}
		}))
	session := editor.NewSession(store, reconciler, logger)

	ctx := context.Background()
	if err := reconciler.Load(ctx); err != nil {
		logger.Warn().Err(err).Msg("initial brief load failed")
	}

	fmt.Println("briefly: chat to create briefs; /help for commands")
	repl(ctx, engine, reconciler, session)
}

func repl(ctx context.Context, engine *conversation.Engine, reconciler *collection.Reconciler, session *editor.Session) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			turn, err := engine.Submit(ctx, line)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			fmt.Println(turn.Content)
			continue
		}
		if line == "/quit" || line == "/exit" {
			return
		}
		runCommand(ctx, line, engine, reconciler, session)
	}
}

func runCommand(ctx context.Context, line string, engine *conversation.Engine, reconciler *collection.Reconciler, session *editor.Session) {
	parts := strings.Fields(line)
	cmd, args := parts[0], parts[1:]

	report := func(err error) {
		if err != nil {
			fmt.Println("error:", err)
		}
	}

	switch cmd {
	case "/help":
		fmt.Print(`  <text>                      send a chat message
  /new                        start a new chat (briefs are kept)
  /briefs                     list briefs, newest first
  /open <id>                  open a brief for editing
  /set <field> <value>        set title, objective or deadline
  /add <list>                 append an empty item to a list field
  /item <list> <i> <value>    set list item i
  /rm <list> <i>              remove list item i
  /save                       save the open brief
  /delete                     delete the open brief (asks to confirm)
  /export <destination>       export to asana, clickup or sheets
  /quit                       exit
`)
	case "/new":
		report(engine.Reset())
	case "/briefs":
		if err := reconciler.Load(ctx); err != nil {
			report(err)
			return
		}
		for _, b := range reconciler.Snapshot() {
			fmt.Printf("  %s  %-9s  %s\n", b.ID, b.Status, b.Title)
		}
	case "/open":
		if len(args) != 1 {
			fmt.Println("usage: /open <id>")
			return
		}
		if err := session.Open(ctx, args[0]); err != nil {
			report(err)
			return
		}
		printDraft(session.Draft())
	case "/set":
		if len(args) < 2 {
			fmt.Println("usage: /set <field> <value>")
			return
		}
		report(session.SetField(briefs.ScalarField(args[0]), strings.Join(args[1:], " ")))
	case "/add":
		if len(args) != 1 {
			fmt.Println("usage: /add <list>")
			return
		}
		report(session.AppendListItem(briefs.ListField(args[0])))
	case "/item":
		if len(args) < 3 {
			fmt.Println("usage: /item <list> <i> <value>")
			return
		}
		i, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Println("index must be a number")
			return
		}
		report(session.SetListItem(briefs.ListField(args[0]), i, strings.Join(args[2:], " ")))
	case "/rm":
		if len(args) != 2 {
			fmt.Println("usage: /rm <list> <i>")
			return
		}
		i, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Println("index must be a number")
			return
		}
		report(session.RemoveListItem(briefs.ListField(args[0]), i))
	case "/save":
		report(session.Save(ctx))
	case "/delete":
		if err := session.RequestDelete(); err != nil {
			report(err)
			return
		}
		fmt.Print("delete this brief? [y/N] ")
		var answer string
		fmt.Scanln(&answer)
		if strings.ToLower(answer) != "y" {
			session.CancelDelete()
			fmt.Println("kept")
			return
		}
		if err := session.ConfirmDelete(ctx); err != nil {
			report(err)
			return
		}
		fmt.Println("deleted")
	case "/export":
		if len(args) != 1 {
			fmt.Println("usage: /export <destination>")
			return
		}
		result, err := session.Export(ctx, args[0])
		if err != nil {
			report(err)
			return
		}
		fmt.Println(result.Message)
	default:
		fmt.Println("unknown command; /help")
	}
}

func printDraft(d *briefs.Brief) {
	if d == nil {
		return
	}
	fmt.Printf("  %s (%s, %s)\n", d.Title, d.Status, d.SourceType)
	fmt.Printf("  objective: %s\n", d.Objective)
	fmt.Printf("  deadline:  %s\n", d.Deadline)
	printList := func(name string, items []string) {
		fmt.Printf("  %s:\n", name)
		for i, item := range items {
			fmt.Printf("    %d. %s\n", i, item)
		}
	}
	printList("deliverables", d.Deliverables)
	printList("owners", d.Owners)
	printList("assets", d.Assets)
	printList("open_questions", d.OpenQuestions)
}
