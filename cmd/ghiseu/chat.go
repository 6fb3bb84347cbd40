package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hrygo/ghiseu/plugin/ai/agent"
	"github.com/hrygo/ghiseu/plugin/ai/memory"
	"github.com/hrygo/ghiseu/plugin/ai/session"
	"github.com/hrygo/ghiseu/server"
	"github.com/hrygo/ghiseu/store"
)

var chatCmd = &cobra.Command{
	Use:   "chat [ui-context]",
	Short: "Talk to the assistant from the terminal",
	Long: `Runs turns against an in-memory session.

Commands:
  /upload <file> [kind]   store a document (.txt files count as extracted text)
  /page <ui-context>      move to another page (entry, ci, social, taxe)
  /state                  print the session snapshot
  /reset                  start over
  /quit                   exit`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProfile()
		if err != nil {
			return err
		}
		p.SessionStore = "memory"

		ctx := cmd.Context()
		st, err := openStore(ctx, p)
		if err != nil {
			return err
		}
		defer st.Close()

		a, err := server.NewAssistant(ctx, p, st)
		if err != nil {
			return err
		}
		defer a.Close()

		r := &repl{
			assistant: a,
			store:     st,
			out:       cmd.OutOrStdout(),
			sessionID: "cli-" + shortuuid.New(),
			page:      "entry",
		}
		if len(args) == 1 {
			r.page = args[0]
		}
		return r.run(ctx, cmd.InOrStdin())
	},
}

type repl struct {
	assistant *server.Assistant
	store     *store.Store
	out       io.Writer
	sessionID string
	page      string
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	if err := r.turn(ctx, memory.MarkerStart); err != nil {
		return err
	}
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			quit, err := r.command(ctx, line)
			if err != nil {
				fmt.Fprintf(r.out, "! %v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}
		if err := r.turn(ctx, line); err != nil {
			fmt.Fprintf(r.out, "! %v\n", err)
		}
	}
}

func (r *repl) command(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true, nil
	case "/reset":
		if err := r.assistant.Sessions.Reset(ctx, r.sessionID); err != nil {
			return false, err
		}
		return false, r.turn(ctx, memory.MarkerStart)
	case "/page":
		if len(fields) != 2 {
			return false, errors.New("usage: /page <ui-context>")
		}
		r.page = fields[1]
		return false, r.turn(ctx, memory.MarkerStart)
	case "/upload":
		if len(fields) < 2 {
			return false, errors.New("usage: /upload <file> [kind]")
		}
		kind := "auto"
		if len(fields) > 2 {
			kind = fields[2]
		}
		if err := r.upload(ctx, fields[1], kind); err != nil {
			return false, err
		}
		return false, r.turn(ctx, memory.MarkerUpload)
	case "/state":
		sess, err := r.assistant.Sessions.Get(ctx, r.sessionID)
		if err != nil || sess == nil {
			return false, err
		}
		data, err := json.MarshalIndent(map[string]any{"lang": sess.Lang, "app": sess.App, "person": sess.Person}, "", "  ")
		if err != nil {
			return false, err
		}
		fmt.Fprintln(r.out, string(data))
		return false, nil
	}
	return false, errors.Errorf("unknown command %s", fields[0])
}

func (r *repl) upload(ctx context.Context, path, kind string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read upload")
	}
	u := &store.Upload{
		SessionID: r.sessionID,
		Filename:  filepath.Base(path),
		Size:      int64(len(data)),
		KindHint:  kind,
		Status:    store.UploadStatusNeedsReview,
	}
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		u.ContentType = "text/plain"
		u.ExtractedText = string(data)
		u.Status = store.UploadStatusOK
	} else {
		u.Blob = data
	}
	created, err := r.store.CreateUpload(ctx, u)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "  [upload #%d %s %s]\n", created.ID, created.Filename, created.Status)
	return nil
}

func (r *repl) turn(ctx context.Context, text string) error {
	res, err := r.assistant.Sessions.Turn(ctx, session.TurnRequest{
		SessionID: r.sessionID,
		Message:   text,
		Form:      &agent.FormInput{UIContext: r.page},
	})
	if res != nil && res.Reply != "" {
		fmt.Fprintln(r.out, res.Reply)
		for _, step := range res.Steps {
			payload, _ := json.Marshal(step.Payload)
			fmt.Fprintf(r.out, "  [%s] %s\n", step.Type, payload)
		}
		if res.App != nil {
			r.page = res.App.UIContext
		}
	}
	return err
}
