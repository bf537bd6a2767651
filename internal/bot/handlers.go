package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/jimmyBizMobile/SensAI/internal/prompts"
)

const helpText = "👋 Hi, I'm SensAI, your Japanese tutor.\n\n" +
	"🔸 Commands:\n" +
	"/check <sentence> - get feedback on a Japanese sentence\n" +
	"/grammar <point> - get an explanation of a grammar point\n" +
	"/history - list recently quizzed grammar points\n" +
	"/help - show this message\n\n" +
	"📝 Quizzes are posted regularly in the quiz chat. Reply there with your answer."

// handleCommand dispatches a command message.
func (r *Router) handleCommand(ctx context.Context, msg Message) error {
	switch msg.Command {
	case "check":
		return r.handleCheck(ctx, msg)
	case "grammar":
		return r.handleGrammar(ctx, msg)
	case "start", "help":
		return r.messenger.Send(ctx, msg.ChatID, helpText)
	case "history":
		return r.handleHistory(ctx, msg)
	default:
		return r.handleUnknownCommand(ctx, msg)
	}
}

func (r *Router) handleCheck(ctx context.Context, msg Message) error {
	sentence, ok := r.validate(ctx, msg, r.config.MaxSentenceLength,
		"Usage: /check <Japanese sentence>",
		"Your sentence is too long! Please keep it under %d characters.")
	if !ok {
		return nil
	}

	prompt, err := prompts.Tutor(sentence)
	if err != nil {
		return err
	}
	return r.generate(ctx, msg.ChatID, "check sentence", "check", prompt)
}

func (r *Router) handleGrammar(ctx context.Context, msg Message) error {
	point, ok := r.validate(ctx, msg, r.config.MaxGrammarLength,
		"Usage: /grammar <grammar point>, for example /grammar 〜てしまう",
		"That grammar point is too long! Please keep it under %d characters.")
	if !ok {
		return nil
	}

	prompt, err := prompts.Grammar(point)
	if err != nil {
		return err
	}
	return r.generate(ctx, msg.ChatID, "explain grammar", "grammar", prompt)
}

func (r *Router) handleHistory(ctx context.Context, msg Message) error {
	if !r.inCommandsChat(ctx, msg) {
		return nil
	}
	if r.history == nil {
		return r.messenger.Send(ctx, msg.ChatID, msgQuizDisabled)
	}

	points, err := r.history.RecentGrammarPoints(ctx, r.config.HistoryListSize)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if len(points) == 0 {
		return r.messenger.Send(ctx, msg.ChatID, msgNoHistory)
	}

	var b strings.Builder
	b.WriteString("📚 Recently quizzed grammar points:\n")
	for i, p := range points {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p)
	}
	return r.messenger.Send(ctx, msg.ChatID, strings.TrimRight(b.String(), "\n"))
}

func (r *Router) handleUnknownCommand(ctx context.Context, msg Message) error {
	if msg.ChatID != r.config.CommandsChatID {
		return nil
	}
	return r.messenger.Send(ctx, msg.ChatID, msgUnknown)
}

// validate applies the checks shared by the model backed commands, in order:
// chat, empty argument, length. It reports whether the command may proceed.
func (r *Router) validate(ctx context.Context, msg Message, maxLen int, usage, tooLong string) (string, bool) {
	if !r.inCommandsChat(ctx, msg) {
		return "", false
	}

	arg := strings.TrimSpace(msg.Args)
	if arg == "" {
		r.send(ctx, msg.ChatID, usage)
		return "", false
	}
	if utf8.RuneCountInString(arg) > maxLen {
		r.send(ctx, msg.ChatID, fmt.Sprintf(tooLong, maxLen))
		return "", false
	}
	return arg, true
}

// inCommandsChat posts a short lived notice when msg came from another chat.
func (r *Router) inCommandsChat(ctx context.Context, msg Message) bool {
	if msg.ChatID == r.config.CommandsChatID {
		return true
	}
	notice := fmt.Sprintf("Please use /%s in the commands chat (%d).", msg.Command, r.config.CommandsChatID)
	if err := r.messenger.SendEphemeral(ctx, msg.ChatID, notice, r.config.NoticeTTL); err != nil {
		r.logger.Warn("failed to send notice", slog.Int64("chat_id", msg.ChatID), slog.Any("error", err))
	}
	return false
}
