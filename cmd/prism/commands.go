package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"prism/internal/api"
	"prism/internal/board"
	"prism/internal/chat"
	"prism/internal/session"
	"prism/internal/task"
	"prism/internal/ui"
)

func commands(e *env) []*cli.Command {
	return []*cli.Command{
		{
			Name:   "tui",
			Usage:  "open the interactive task board (default)",
			Action: runTUI(e),
		},
		{
			Name:  "login",
			Usage: "sign in and remember the session",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "email", Aliases: []string{"e"}},
				&cli.StringFlag{Name: "password", EnvVars: []string{"PRISM_PASSWORD"}},
			},
			Action: func(c *cli.Context) error {
				in := bufio.NewReader(c.App.Reader)
				email := prompt(c, in, "email", "Email: ")
				password, err := secret(c, in, "password", "Password: ")
				if err != nil {
					return err
				}
				s, err := e.client.SignIn(c.Context, email, password)
				if err != nil {
					return fmt.Errorf("sign in: %s", api.Notice(err))
				}
				return e.remember(c, s)
			},
		},
		{
			Name:  "signup",
			Usage: "create an account and sign in",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "name", Aliases: []string{"n"}},
				&cli.StringFlag{Name: "email", Aliases: []string{"e"}},
				&cli.StringFlag{Name: "password", EnvVars: []string{"PRISM_PASSWORD"}},
			},
			Action: func(c *cli.Context) error {
				in := bufio.NewReader(c.App.Reader)
				name := prompt(c, in, "name", "Name: ")
				email := prompt(c, in, "email", "Email: ")
				password, err := secret(c, in, "password", "Password: ")
				if err != nil {
					return err
				}
				s, err := e.client.SignUp(c.Context, name, email, password)
				if err != nil {
					return fmt.Errorf("sign up: %s", api.Notice(err))
				}
				return e.remember(c, s)
			},
		},
		{
			Name:  "logout",
			Usage: "forget the stored session",
			Action: func(c *cli.Context) error {
				if err := e.sessions.Clear(); err != nil {
					return err
				}
				e.log.Info("signed out")
				fmt.Fprintln(c.App.Writer, "Signed out.")
				return nil
			},
		},
		{
			Name:   "whoami",
			Usage:  "show the signed-in user",
			Action: whoami(e),
		},
		{
			Name:  "tasks",
			Usage: "list and change tasks without the board",
			Subcommands: []*cli.Command{
				{
					Name:  "list",
					Usage: "print the filtered, ordered task list",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "status", Usage: "all, active or completed (default from config)"},
						&cli.StringFlag{Name: "category", Usage: "work, personal, shopping, health or other"},
						&cli.StringFlag{Name: "priority", Usage: "high, medium or low"},
						&cli.StringFlag{Name: "search", Aliases: []string{"q"}},
					},
					Action: listTasks(e),
				},
				{
					Name:      "add",
					Usage:     "create a task",
					ArgsUsage: "<title>",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "description", Aliases: []string{"d"}},
						&cli.StringFlag{Name: "category", Aliases: []string{"c"}},
						&cli.StringFlag{Name: "priority", Aliases: []string{"p"}, Value: string(task.PriorityMedium)},
						&cli.StringFlag{Name: "due", Usage: "due date as YYYY-MM-DD"},
					},
					Action: addTask(e),
				},
				{
					Name:      "done",
					Usage:     "toggle a task's completion",
					ArgsUsage: "<id>",
					Action:    toggleTask(e),
				},
				{
					Name:      "rm",
					Usage:     "delete a task",
					ArgsUsage: "<id>",
					Action:    deleteTask(e),
				},
			},
		},
		{
			Name:      "chat",
			Usage:     "send one message to the task assistant",
			ArgsUsage: "<message>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "conversation", Usage: "continue an existing conversation"},
			},
			Action: sendChat(e),
		},
	}
}

func runTUI(e *env) cli.ActionFunc {
	return func(c *cli.Context) error {
		s, err := e.currentSession()
		if err != nil {
			return err
		}
		e.log.WithField("user", s.User.Email).Info("starting board")
		return ui.Run(c.Context, e.client, e.cfg, s, ui.WithLogger(e.log.WithField("component", "ui")))
	}
}

func (e *env) remember(c *cli.Context, s session.Session) error {
	if err := e.sessions.Save(s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	e.log.WithField("user", s.User.Email).Info("signed in")
	fmt.Fprintf(c.App.Writer, "Signed in as %s.\n", s.DisplayName())
	return nil
}

func whoami(e *env) cli.ActionFunc {
	return func(c *cli.Context) error {
		s, err := e.sessions.Current()
		if errors.Is(err, session.ErrAuthenticationMissing) {
			fmt.Fprintln(c.App.Writer, "Not signed in.")
			return nil
		}
		if err != nil {
			return err
		}

		w := c.App.Writer
		fmt.Fprintf(w, "%s <%s>\n", s.DisplayName(), s.User.Email)
		if at, err := e.store.UpdatedAt(session.TokenKey); err == nil {
			fmt.Fprintf(w, "signed in %s\n", humanize.Time(at))
		}
		claims, err := session.Peek(s.Token)
		if err != nil {
			e.log.WithError(err).Debug("token claims unreadable")
			return nil
		}
		if claims.Subject != "" {
			fmt.Fprintf(w, "subject   %s\n", claims.Subject)
		}
		if claims.ExpiresAt != nil {
			state := "expires"
			if claims.Expired(time.Now()) {
				state = "expired"
			}
			fmt.Fprintf(w, "%-9s %s\n", state, humanize.Time(*claims.ExpiresAt))
		}
		return nil
	}
}

// controller loads the board for the signed-in user.
func (e *env) controller(c *cli.Context, filter task.FilterState) (*board.Controller, error) {
	if _, err := e.currentSession(); err != nil {
		return nil, err
	}
	ctl := board.NewController(e.client, board.New(filter))
	if err := ctl.Refresh(c.Context); err != nil {
		return nil, fmt.Errorf("load tasks: %s", api.Notice(err))
	}
	return ctl, nil
}

func listTasks(e *env) cli.ActionFunc {
	return func(c *cli.Context) error {
		status := e.cfg.Filter()
		if v := c.String("status"); v != "" {
			status = task.Status(strings.ToLower(v))
		}
		filter := task.FilterState{
			Status:   status,
			Category: task.Category(strings.ToLower(c.String("category"))),
			Priority: task.Priority(strings.ToLower(c.String("priority"))),
			Query:    c.String("search"),
		}
		if err := filter.Validate(); err != nil {
			return cli.Exit(err.Error(), 2)
		}
		ctl, err := e.controller(c, filter)
		if err != nil {
			return err
		}
		b := ctl.Board()
		now := time.Now()
		tasks := b.Visible(now)
		counts := b.Counts()
		fmt.Fprintf(c.App.Writer, "%d tasks • %d active • %d completed\n\n", counts.All, counts.Active, counts.Completed)
		if len(tasks) == 0 {
			fmt.Fprintln(c.App.Writer, "No tasks match.")
			return nil
		}
		return printTasks(c.App.Writer, tasks, now)
	}
}

func printTasks(w io.Writer, tasks []task.Task, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\t\tTITLE\tPRIORITY\tCATEGORY\tDUE\tCREATED")
	for _, t := range tasks {
		check := "[ ]"
		if t.Completed {
			check = "[x]"
		}
		priority := string(t.Priority)
		if info, ok := task.LookupPriority(t.Priority); ok {
			priority = info.Label
		}
		category := "-"
		if info, ok := task.LookupCategory(t.Category); ok {
			category = info.Label
		}
		due := task.DueBadge(t.DueDate, t.Completed, now).Text
		if due == "" {
			due = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, check, t.Title, priority, category, due, humanize.RelTime(t.CreatedAt, now, "ago", "from now"))
	}
	return tw.Flush()
}

func addTask(e *env) cli.ActionFunc {
	return func(c *cli.Context) error {
		in := task.Input{
			Title:       strings.Join(c.Args().Slice(), " "),
			Description: c.String("description"),
			Category:    task.Category(strings.ToLower(c.String("category"))),
			Priority:    task.Priority(strings.ToLower(c.String("priority"))),
		}
		if in.Category != "" && !in.Category.Valid() {
			return cli.Exit(fmt.Sprintf("unknown category %q", in.Category), 2)
		}
		if in.Priority != "" && !in.Priority.Valid() {
			return cli.Exit(fmt.Sprintf("unknown priority %q", in.Priority), 2)
		}
		if v := strings.TrimSpace(c.String("due")); v != "" {
			due, err := time.ParseInLocation("2006-01-02", v, time.Local)
			if err != nil {
				return cli.Exit("due date must be YYYY-MM-DD", 2)
			}
			in.DueDate = &due
		}
		if err := in.Validate(); err != nil {
			var verr *task.ValidationError
			if errors.As(err, &verr) {
				for _, msg := range verr.Fields() {
					fmt.Fprintln(c.App.ErrWriter, msg)
				}
				return cli.Exit("task not created", 2)
			}
			return err
		}

		if _, err := e.currentSession(); err != nil {
			return err
		}
		ctl := board.NewController(e.client, board.New(task.FilterState{}))
		created, err := ctl.Create(c.Context, in)
		if err != nil {
			return fmt.Errorf("create task: %s", api.Notice(err))
		}
		fmt.Fprintf(c.App.Writer, "Added #%d %q\n", created.ID, created.Title)
		return nil
	}
}

func toggleTask(e *env) cli.ActionFunc {
	return func(c *cli.Context) error {
		id, err := taskID(c)
		if err != nil {
			return err
		}
		ctl, err := e.controller(c, task.FilterState{})
		if err != nil {
			return err
		}
		if _, ok := ctl.Board().Get(id); !ok {
			return cli.Exit(fmt.Sprintf("no task #%d", id), 1)
		}
		t, err := ctl.Toggle(c.Context, id)
		if err != nil {
			return fmt.Errorf("update task: %s", api.Notice(err))
		}
		state := "reopened"
		if t.Completed {
			state = "completed"
		}
		fmt.Fprintf(c.App.Writer, "#%d %q %s\n", t.ID, t.Title, state)
		return nil
	}
}

func deleteTask(e *env) cli.ActionFunc {
	return func(c *cli.Context) error {
		id, err := taskID(c)
		if err != nil {
			return err
		}
		ctl, err := e.controller(c, task.FilterState{})
		if err != nil {
			return err
		}
		t, ok := ctl.Board().Get(id)
		if !ok {
			return cli.Exit(fmt.Sprintf("no task #%d", id), 1)
		}
		if err := ctl.Delete(c.Context, id); err != nil {
			return fmt.Errorf("delete task: %s", api.Notice(err))
		}
		fmt.Fprintf(c.App.Writer, "Deleted #%d %q\n", t.ID, t.Title)
		return nil
	}
}

func sendChat(e *env) cli.ActionFunc {
	return func(c *cli.Context) error {
		if _, err := e.currentSession(); err != nil {
			return err
		}
		conv := chat.New()
		text := strings.Join(c.Args().Slice(), " ")
		reply, err := conv.Send(c.Context, conversationSender{e.client, c.String("conversation")}, text)
		if errors.Is(err, chat.ErrEmptyMessage) {
			return cli.Exit("message cannot be empty", 2)
		}
		fmt.Fprintln(c.App.Writer, reply.Content)
		if err != nil {
			return fmt.Errorf("chat: %s", api.Notice(err))
		}
		fmt.Fprintf(c.App.Writer, "\nconversation: %s\n", conv.ID())
		return nil
	}
}

// conversationSender continues an existing conversation on the first send.
type conversationSender struct {
	client *api.Client
	id     string
}

func (s conversationSender) SendChatMessage(ctx context.Context, text, conversationID string) (api.ChatReply, error) {
	if conversationID == "" {
		conversationID = s.id
	}
	return s.client.SendChatMessage(ctx, text, conversationID)
}

func taskID(c *cli.Context) (int64, error) {
	raw := c.Args().First()
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, cli.Exit(fmt.Sprintf("expected a task id, got %q", raw), 2)
	}
	return id, nil
}

// prompt returns the flag value or asks for it on stdin.
func prompt(c *cli.Context, in *bufio.Reader, flag, label string) string {
	if v := c.String(flag); v != "" {
		return v
	}
	fmt.Fprint(c.App.Writer, label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

// secret is prompt without echo when input comes from a terminal.
func secret(c *cli.Context, in *bufio.Reader, flag, label string) (string, error) {
	fd, ok := terminalFd(c.App.Reader)
	if !ok || c.String(flag) != "" {
		return prompt(c, in, flag, label), nil
	}
	fmt.Fprint(c.App.Writer, label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(c.App.Writer)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", flag, err)
	}
	return strings.TrimSpace(string(b)), nil
}

func terminalFd(r io.Reader) (uintptr, bool) {
	f, ok := r.(*os.File)
	if !ok || !term.IsTerminal(f.Fd()) {
		return 0, false
	}
	return f.Fd(), true
}
