// Command ortho-chat is a terminal client for the OrthoAssist gateway. It
// drives one chat session: text turns, X-ray uploads, follow-up actions and
// report downloads.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"ortho-assist/config"
	"ortho-assist/internal/session"

	"github.com/chzyer/readline"
)

const helpText = `Commands:
  /new               start a new analysis session
  /clear             clear the conversation, keep the session
  /retry             retry the last failed message
  /image <path>      attach an X-ray to the next message
  /clearimage        drop the attached X-ray
  /action <n>        run action n from the last reply
  /download <n>      download attachment n from the last reply
  /suggest [text]    refresh suggestions, optionally for a topic
  /help              show this help
  /quit              exit
Anything else is sent as a message.`

type app struct {
	manager   *session.Manager
	selection *session.Selection
	out       io.Writer

	rendered     int
	lastAnalysis string
	lastError    string
}

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	logger := log.New(io.Discard, "", 0)
	if cfg.Verbose {
		logger = log.New(os.Stderr, "[SESSION] ", log.LstdFlags)
	}

	client := session.NewClient(cfg.GatewayURL, cfg.Token, cfg.RequestTimeout)
	opts := []session.Option{
		session.WithRequestTimeout(cfg.RequestTimeout),
		session.WithDownloadDir(cfg.DownloadDir),
		session.WithMaxImageBytes(cfg.MaxImageBytes),
		session.WithReportURL(client.ReportURL),
		session.WithLogger(logger),
	}
	if cfg.UserInfo != "" {
		opts = append(opts, session.WithUserInfo(json.RawMessage(cfg.UserInfo)))
	}

	previews, err := session.NewPreviewStore()
	if err != nil {
		log.Fatalf("Failed to create preview store: %v", err)
	}
	defer previews.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "you> ",
		HistoryFile:     cfg.HistoryFile,
		HistoryLimit:    200,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		log.Fatalf("Failed to start terminal: %v", err)
	}
	defer rl.Close()

	a := &app{
		manager:   session.NewManager(client, opts...),
		selection: session.NewSelection(previews),
		out:       rl.Stdout(),
	}

	fmt.Fprintf(a.out, "OrthoAssist chat (%s). Type /help for commands.\n", cfg.GatewayURL)
	a.manager.RefreshSuggestions(ctx, "")
	a.render()

	for {
		if a.hasImage() {
			rl.SetPrompt("you [x-ray]> ")
		} else {
			rl.SetPrompt("you> ")
		}

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if line == "" {
					return
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				return
			}
			log.Printf("Error reading input: %v", err)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := a.command(ctx, line); quit {
				return
			}
		} else {
			a.send(ctx, line)
		}
		a.render()

		if ctx.Err() != nil {
			return
		}
	}
}

func (a *app) hasImage() bool {
	_, _, ok := a.selection.Current()
	return ok
}

func (a *app) send(ctx context.Context, text string) {
	file, _, ok := a.selection.Current()
	if !ok {
		a.report(a.manager.SendMessage(ctx, text))
		return
	}

	err := a.manager.SendMessageWithImage(ctx, text, file)
	a.report(err)
	if err == nil {
		a.report(a.selection.Clear())
	}
}

func (a *app) command(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(a.out, helpText)
	case "/new":
		a.report(a.selection.Clear())
		a.manager.StartNewChat()
		a.reset()
		fmt.Fprintln(a.out, "Started a new analysis.")
	case "/clear":
		a.manager.ClearChat()
		a.reset()
		fmt.Fprintln(a.out, "Conversation cleared.")
	case "/retry":
		if !a.manager.State().CanRetry {
			fmt.Fprintln(a.out, "Nothing to retry.")
			return false
		}
		a.report(a.manager.RetryLastMessage(ctx))
	case "/image":
		a.selectImage(arg)
	case "/clearimage":
		a.report(a.selection.Clear())
		fmt.Fprintln(a.out, "Image removed.")
	case "/action":
		a.runAction(ctx, arg)
	case "/download":
		a.download(ctx, arg)
	case "/suggest":
		a.manager.RefreshSuggestions(ctx, arg)
		a.printSuggestions(a.manager.State().Suggestions)
	default:
		fmt.Fprintf(a.out, "Unknown command %s. Type /help for commands.\n", name)
	}
	return false
}

func (a *app) selectImage(path string) {
	if path == "" {
		fmt.Fprintln(a.out, "Usage: /image <path>")
		return
	}
	file, err := session.LoadImageFile(path)
	if err != nil {
		a.report(err)
		return
	}
	if result := session.ValidateImageFile(file, 0); !result.Valid {
		fmt.Fprintln(a.out, result.Error)
		return
	}
	handle, err := a.selection.Select(file)
	if err != nil {
		a.report(err)
		return
	}
	fmt.Fprintf(a.out, "Attached %s (%d bytes, preview %s). Your next message will include it.\n", file.Name, file.Size(), handle)
}

func (a *app) runAction(ctx context.Context, arg string) {
	actions := a.lastReply().Actions
	action, ok := pick(actions, arg)
	if !ok {
		fmt.Fprintf(a.out, "Choose an action between 1 and %d.\n", len(actions))
		return
	}

	result, err := a.manager.HandleAction(ctx, action)
	if err != nil {
		a.report(err)
		return
	}
	if action.Type == session.ActionNewAnalysis {
		a.report(a.selection.Clear())
		a.reset()
	}
	switch {
	case result.NeedsImage:
		fmt.Fprintln(a.out, "Attach an X-ray with /image <path>, then send a message.")
	case result.ShareURL != "":
		fmt.Fprintf(a.out, "Share link: %s\n", result.ShareURL)
	case result.DownloadPath != "":
		fmt.Fprintf(a.out, "Report saved to %s\n", result.DownloadPath)
	}
}

func (a *app) download(ctx context.Context, arg string) {
	attachments := a.lastReply().Attachments
	attachment, ok := pick(attachments, arg)
	if !ok {
		fmt.Fprintf(a.out, "Choose an attachment between 1 and %d.\n", len(attachments))
		return
	}
	reportID, ok := session.ReportIDFromURL(attachment.URL)
	if !ok {
		fmt.Fprintf(a.out, "%s is not a report; open %s instead.\n", attachment.Name, attachment.URL)
		return
	}
	if path := a.manager.DownloadReport(ctx, reportID, attachment.Name); path != "" {
		fmt.Fprintf(a.out, "Report saved to %s\n", path)
	}
}

func (a *app) lastReply() session.Message {
	messages := a.manager.State().Messages
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Type == session.MessageAssistant && !messages[i].IsLoading {
			return messages[i]
		}
	}
	return session.Message{}
}

func pick[T any](items []T, arg string) (T, bool) {
	var zero T
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(items) {
		return zero, false
	}
	return items[n-1], true
}

func (a *app) reset() {
	a.rendered = 0
	a.lastAnalysis = ""
	a.lastError = ""
}

func (a *app) report(err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, session.ErrEmptyMessage):
		fmt.Fprintln(a.out, "Type a message first.")
	case errors.Is(err, session.ErrBusy):
		fmt.Fprintln(a.out, "Still waiting for the previous reply.")
	default:
		fmt.Fprintf(a.out, "Error: %v\n", err)
	}
}

// render prints whatever changed since the last call
func (a *app) render() {
	state := a.manager.State()
	if a.rendered > len(state.Messages) {
		a.rendered = 0
	}

	for _, msg := range state.Messages[a.rendered:] {
		if msg.IsLoading {
			break
		}
		a.printMessage(msg)
		a.rendered++
	}

	if analysis := formatAnalysis(state); analysis != a.lastAnalysis {
		a.lastAnalysis = analysis
		if analysis != "" {
			fmt.Fprint(a.out, analysis)
		}
	}

	if state.Error != a.lastError {
		a.lastError = state.Error
		if state.Error != "" {
			fmt.Fprintf(a.out, "! %s", state.Error)
			if state.CanRetry {
				fmt.Fprint(a.out, " (type /retry to try again)")
			}
			fmt.Fprintln(a.out)
		}
	}
}

func (a *app) printMessage(msg session.Message) {
	if msg.Type == session.MessageUser {
		if len(msg.Images) > 0 {
			fmt.Fprintf(a.out, "  [attached: %s]\n", strings.Join(msg.Images, ", "))
		}
		return
	}

	prefix := "ortho> "
	if msg.IsError {
		prefix = "ortho (error)> "
	}
	fmt.Fprintf(a.out, "%s%s\n", prefix, msg.Content)

	for i, att := range msg.Attachments {
		fmt.Fprintf(a.out, "  attachment %d: %s", i+1, att.Name)
		if att.Size > 0 {
			fmt.Fprintf(a.out, " (%d bytes)", att.Size)
		}
		fmt.Fprintln(a.out)
	}
	for i, action := range msg.Actions {
		fmt.Fprintf(a.out, "  action %d: %s\n", i+1, action.Label)
	}
}

func (a *app) printSuggestions(suggestions []string) {
	if len(suggestions) == 0 {
		return
	}
	fmt.Fprintln(a.out, "Suggestions:")
	for _, s := range suggestions {
		fmt.Fprintf(a.out, "  - %s\n", s)
	}
}

func formatAnalysis(state session.State) string {
	analysis := state.CurrentAnalysis
	if analysis == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("---- Analysis ----\n")
	if analysis.Diagnosis != nil {
		fmt.Fprintf(&b, "Finding:    %s", analysis.Diagnosis.PrimaryFinding)
		if analysis.Diagnosis.Confidence > 0 {
			fmt.Fprintf(&b, " (%.0f%%)", analysis.Diagnosis.Confidence*100)
		}
		b.WriteString("\n")
	}
	if analysis.Triage != nil {
		fmt.Fprintf(&b, "Triage:     %s (%.0f%%)\n", analysis.Triage.Level, analysis.Triage.Confidence*100)
		if analysis.Triage.Recommendation != "" {
			fmt.Fprintf(&b, "Next step:  %s\n", analysis.Triage.Recommendation)
		}
	}
	if analysis.BodyPart != "" {
		fmt.Fprintf(&b, "Body part:  %s\n", analysis.BodyPart)
	}
	if analysis.ReportID != "" {
		fmt.Fprintf(&b, "Report:     %s\n", analysis.ReportID)
	}
	b.WriteString("------------------\n")
	return b.String()
}
