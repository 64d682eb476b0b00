package fsm

import (
	"context"
	"log/slog"

	"github.com/m3rciful/librarybot/core/books"
	"github.com/m3rciful/librarybot/core/commands"
	"github.com/m3rciful/librarybot/core/expression"
	"github.com/m3rciful/librarybot/core/logger"
)

// commandFunc runs a recognised command in some state.
type commandFunc func(ctx context.Context, env Env) Outcome

// commandTable is a per-state handler that only reacts to commands listed in
// its table; literals go to onLiteral when set.
type commandTable struct {
	vocab     *commands.Registry
	commands  map[commands.Name]commandFunc
	onLiteral func(ctx context.Context, env Env, text string) Outcome
}

func (t *commandTable) Handle(ctx context.Context, env Env, ev expression.Event) Outcome {
	if ev.IsCommand {
		cmd, ok := t.vocab.Lookup(ev.Text)
		if !ok {
			return ignored()
		}
		run, ok := t.commands[cmd.Name]
		if !ok {
			return ignored()
		}
		ctx = logger.WithHandler(ctx, string(cmd.Name))
		return run(ctx, env)
	}
	if t.onLiteral == nil {
		return ignored()
	}
	return t.onLiteral(ctx, env, ev.Text)
}

func defaultHandlers(vocab *commands.Registry) map[State]Handler {
	help := vocab.HelpText()
	showHelp := func(context.Context, Env) Outcome {
		return reply(StateReady, help)
	}

	return map[State]Handler{
		StateUndefined: &commandTable{
			vocab: vocab,
			commands: map[commands.Name]commandFunc{
				commands.Start: func(context.Context, Env) Outcome {
					return reply(StateReady, WelcomeText)
				},
			},
		},
		StateReady: &commandTable{
			vocab: vocab,
			commands: map[commands.Name]commandFunc{
				commands.Start:   showHelp,
				commands.Help:    showHelp,
				commands.AddBook: startEntry,
				commands.List: func(_ context.Context, env Env) Outcome {
					return reply(StateReady, env.Books().ListAll())
				},
				commands.Quit: requestExit,
				commands.Exit: requestExit,
			},
		},
		StateCollectingBook: &commandTable{
			vocab: vocab,
			commands: map[commands.Name]commandFunc{
				commands.Cancel: func(context.Context, Env) Outcome {
					return reply(StateReady, CancelledText)
				},
			},
			onLiteral: collectLiteral,
		},
	}
}

func startEntry(_ context.Context, env Env) Outcome {
	env.Draft().Reset()
	return reply(StateCollectingBook, AskNameText)
}

func requestExit(_ context.Context, env Env) Outcome {
	env.RequestExit()
	return reply(StateReady, FarewellText)
}

func collectLiteral(ctx context.Context, env Env, text string) Outcome {
	draft := env.Draft()
	if draft.Phase() == books.AwaitingName {
		draft.SetName(text)
		return reply(StateCollectingBook, nameCapturedText(text))
	}

	entry := draft.Complete(text)
	env.Books().Append(entry)
	logger.Info(ctx, logger.CompBooks, "books.appended",
		slog.String("status", "ok"),
		slog.Int("books", env.Books().Len()),
		slog.String("payload", logger.SanitizeLimit(entry.Name, 64)),
	)
	return reply(StateReady, bookAddedText(entry.Name))
}
