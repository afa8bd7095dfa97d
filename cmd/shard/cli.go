package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/shard/internal/chunk"
	"github.com/hpungsan/shard/internal/config"
	"github.com/hpungsan/shard/internal/errors"
	"github.com/hpungsan/shard/internal/project"
	"github.com/hpungsan/shard/internal/remote"
	"github.com/hpungsan/shard/internal/render"
	"github.com/hpungsan/shard/internal/store"
)

// appEnv holds the shared dependencies of CLI commands.
type appEnv struct {
	database *sql.DB
	cfg      *config.Config
	baseDir  string
	logger   *slog.Logger
}

// newCLIApp creates the CLI application with all commands. env may be nil for
// the help/version path, which never runs a command action.
func newCLIApp(env *appEnv) *cli.App {
	app := &cli.App{
		Name:    "shard",
		Usage:   "Local text chunking workbench",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "Act as this identity instead of the saved session"},
		},
		Commands: []*cli.Command{
			newCmd(env),
			listCmd(env),
			showCmd(env),
			editCmd(env),
			setCmd(env),
			renameCmd(env),
			deleteCmd(env),
			splitCmd(env),
			exportCmd(env),
			syncCmd(env),
			loginCmd(env),
			logoutCmd(env),
			serveCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// openStore hydrates the store for the selected namespace. The returned
// cleanup persists final state and drains any remote outbox.
func (e *appEnv) openStore(c *cli.Context) (*store.Store, func()) {
	session := remote.LoadSession(e.baseDir)

	identity := c.String("user")
	if identity == "" && session.SignedIn() {
		identity = session.Identity
	}

	var outbox *remote.Outbox
	drain := func() {}
	if identity != "" && session.SignedIn() && e.cfg.RemoteURL != "" {
		client := remote.NewHTTPClient(e.cfg.RemoteURL, session.Token)
		outbox = remote.NewOutbox(client, e.logger)
		drain = outbox.Close
	}

	st := store.New(e.database, e.cfg, e.logger, outbox, nil)
	st.Initialize(store.NamespaceFor(identity))
	return st, func() {
		st.Close()
		drain()
	}
}

// resolveProject returns the project for id, or the current project when id
// is empty.
func resolveProject(st *store.Store, id string) (project.Project, error) {
	if id == "" {
		p, ok := st.Current()
		if !ok {
			return project.Project{}, errors.NewInvalidRequest("no projects yet; run 'shard new' or 'shard edit' first")
		}
		return p, nil
	}
	for _, p := range st.History() {
		if p.ID == id {
			return p, nil
		}
	}
	return project.Project{}, errors.NewNotFound(id)
}

// summary is the per-project line of 'shard list'.
type summary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Timestamp int64  `json:"timestamp"`
	Chars     int    `json:"chars"`
	Words     int    `json:"words"`
	Current   bool   `json:"current,omitempty"`
}

// projectView is the detail payload of 'shard show' and mutating commands.
type projectView struct {
	Project project.Project `json:"project"`
	Chars   int             `json:"chars"`
	Words   int             `json:"words"`
	Chunks  int             `json:"chunks"`
}

func viewOf(p project.Project) projectView {
	return projectView{
		Project: p,
		Chars:   project.CountChars(p.Text),
		Words:   project.CountWords(p.Text),
		Chunks:  len(renderProject(p)),
	}
}

// renderProject renders a project's chunks with its own settings.
func renderProject(p project.Project) []chunk.Piece {
	if p.Text == "" {
		return nil
	}
	s := p.Settings
	return chunk.Render(p.Text, project.ClampSplitLength(s.SplitLength), s.Prefix, s.Suffix)
}

// newCmd creates the new command.
func newCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "new",
		Usage: "Create a fresh project and make it current",
		Action: func(c *cli.Context) error {
			st, done := env.openStore(c)
			defer done()

			p := st.CreateProject()
			return outputJSON(viewOf(p))
		},
	}
}

// listCmd creates the list command.
func listCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List projects in the active namespace, newest first",
		Action: func(c *cli.Context) error {
			st, done := env.openStore(c)
			defer done()

			current, _ := st.Current()
			history := st.History()
			items := make([]summary, 0, len(history))
			for _, p := range history {
				items = append(items, summary{
					ID:        p.ID,
					Title:     p.Title,
					Timestamp: p.Timestamp,
					Chars:     project.CountChars(p.Text),
					Words:     project.CountWords(p.Text),
					Current:   p.ID == current.ID,
				})
			}
			return outputJSON(map[string]any{"projects": items, "total": len(items)})
		},
	}
}

// showCmd creates the show command.
func showCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a project's text, settings, and stats (defaults to current)",
		ArgsUsage: "[id]",
		Action: func(c *cli.Context) error {
			st, done := env.openStore(c)
			defer done()

			p, err := resolveProject(st, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(viewOf(p))
		},
	}
}

// editCmd creates the edit command.
func editCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Replace a project's text (reads text from stdin)",
		ArgsUsage: "[id]",
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("text must be piped via stdin"))
			}
			text, err := readStdin()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			st, done := env.openStore(c)
			defer done()

			if _, ok := st.Current(); !ok {
				st.CreateProject()
			}
			if id := c.Args().First(); id != "" {
				if !st.LoadProject(id) {
					return outputError(errors.NewNotFound(id))
				}
			}

			st.UpdateCurrent(store.Patch{Text: &text})
			p, _ := st.Current()
			return outputJSON(viewOf(p))
		},
	}
}

// setCmd creates the set command.
func setCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Change a project's split settings (defaults to current)",
		ArgsUsage: "[id]",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "split-length", Aliases: []string{"l"}, Usage: "Max characters per chunk, clamped to [10, 50000]"},
			&cli.StringFlag{Name: "prefix", Usage: "Chunk prefix template ({i}, {n})"},
			&cli.StringFlag{Name: "suffix", Usage: "Chunk suffix template ({i}, {n})"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title"},
		},
		Action: func(c *cli.Context) error {
			patch := store.Patch{}
			if c.IsSet("split-length") {
				n := c.Int("split-length")
				patch.SplitLength = &n
			}
			if c.IsSet("prefix") {
				s := c.String("prefix")
				patch.Prefix = &s
			}
			if c.IsSet("suffix") {
				s := c.String("suffix")
				patch.Suffix = &s
			}
			if c.IsSet("title") {
				s := c.String("title")
				patch.Title = &s
			}
			if patch == (store.Patch{}) {
				return outputError(errors.NewInvalidRequest("nothing to set; pass --split-length, --prefix, --suffix, or --title"))
			}

			st, done := env.openStore(c)
			defer done()

			if id := c.Args().First(); id != "" {
				if !st.LoadProject(id) {
					return outputError(errors.NewNotFound(id))
				}
			}
			if _, ok := st.Current(); !ok {
				return outputError(errors.NewInvalidRequest("no projects yet; run 'shard new' first"))
			}

			st.UpdateCurrent(patch)
			p, _ := st.Current()
			return outputJSON(viewOf(p))
		},
	}
}

// renameCmd creates the rename command.
func renameCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "rename",
		Usage:     "Rename a project; with one argument, renames the current project",
		ArgsUsage: "[id] <title>",
		Action: func(c *cli.Context) error {
			st, done := env.openStore(c)
			defer done()

			var id, title string
			switch c.NArg() {
			case 1:
				p, err := resolveProject(st, "")
				if err != nil {
					return outputError(err)
				}
				id, title = p.ID, c.Args().Get(0)
			case 2:
				id, title = c.Args().Get(0), c.Args().Get(1)
			default:
				return outputError(errors.NewInvalidRequest("usage: shard rename [id] <title>"))
			}

			if _, err := resolveProject(st, id); err != nil {
				return outputError(err)
			}
			st.RenameProject(id, title)

			p, err := resolveProject(st, id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"id": p.ID, "title": p.Title})
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a project",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return outputError(errors.NewInvalidRequest("usage: shard delete <id>"))
			}

			st, done := env.openStore(c)
			defer done()

			if _, err := resolveProject(st, id); err != nil {
				return outputError(err)
			}
			st.DeleteProject(id)

			current, _ := st.Current()
			return outputJSON(map[string]any{
				"deleted":    id,
				"current_id": current.ID,
				"total":      len(st.History()),
			})
		},
	}
}

// splitCmd creates the split command.
func splitCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "split",
		Usage:     "Print a project's chunk sequence (defaults to current)",
		ArgsUsage: "[id]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "text", Usage: "Print raw chunk texts separated by blank lines instead of JSON"},
		},
		Action: func(c *cli.Context) error {
			st, done := env.openStore(c)
			defer done()

			p, err := resolveProject(st, c.Args().First())
			if err != nil {
				return outputError(err)
			}

			pieces := renderProject(p)
			if c.Bool("text") {
				for i, piece := range pieces {
					if i > 0 {
						fmt.Println()
					}
					fmt.Println(piece.Text)
				}
				return nil
			}
			return outputJSON(map[string]any{"pieces": pieces, "total": len(pieces)})
		},
	}
}

// exportCmd creates the export command.
func exportCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export a project's chunks to a file (defaults to current)",
		ArgsUsage: "[id]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "txt", Usage: "Export format: txt|md|html"},
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Output path (default: <base>/exports/<title>-<timestamp>.<ext>)"},
		},
		Action: func(c *cli.Context) error {
			format, err := render.ParseFormat(c.String("format"))
			if err != nil {
				return outputError(err)
			}

			st, done := env.openStore(c)
			defer done()

			p, err := resolveProject(st, c.Args().First())
			if err != nil {
				return outputError(err)
			}

			pieces := renderProject(p)
			doc, err := render.Document(p.Title, pieces, format)
			if err != nil {
				return outputError(err)
			}

			path := c.String("path")
			if path == "" {
				path = render.DefaultPath(env.baseDir, p.Title, format, time.Now())
			}
			if err := render.WriteFile(path, doc); err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{"path": path, "chunks": len(pieces)})
		},
	}
}

// syncCmd creates the sync command.
func syncCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Merge the signed-in identity's remote projects into local history",
		Action: func(c *cli.Context) error {
			session := remote.LoadSession(env.baseDir)
			identity := c.String("user")
			if identity == "" {
				identity = session.Identity
			}
			if identity == "" {
				return outputError(errors.NewInvalidRequest("sign in first: shard login --user <identity>"))
			}
			if env.cfg.RemoteURL == "" {
				return outputError(errors.NewInvalidRequest("no remote_url configured"))
			}

			st, done := env.openStore(c)
			defer done()

			client := remote.NewHTTPClient(env.cfg.RemoteURL, session.Token)
			entries, err := client.ListAll(c.Context, identity)
			if err != nil {
				return outputError(err)
			}

			added := st.MergeRemote(entries)
			return outputJSON(map[string]any{"added": added, "total": len(st.History())})
		},
	}
}

// loginCmd creates the login command.
func loginCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Save a session so later commands act as this identity",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Required: true, Usage: "Identity to sign in as"},
			&cli.StringFlag{Name: "token", Usage: "Bearer token for the remote store"},
		},
		Action: func(c *cli.Context) error {
			session := remote.Session{
				Identity: strings.TrimSpace(c.String("user")),
				Token:    c.String("token"),
			}
			if session.Identity == "" {
				return outputError(errors.NewInvalidRequest("identity must not be blank"))
			}
			if err := remote.SaveSession(env.baseDir, session); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{
				"identity":  session.Identity,
				"namespace": store.NamespaceFor(session.Identity),
			})
		},
	}
}

// logoutCmd creates the logout command.
func logoutCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Clear the saved session and fall back to the guest namespace",
		Action: func(c *cli.Context) error {
			if err := remote.ClearSession(env.baseDir); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"namespace": store.GuestNamespace})
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the remote document-store server that 'shard sync' talks to",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: ":8787", Usage: "Listen address"},
			&cli.StringFlag{Name: "token", Usage: "Require this bearer token (empty disables auth)"},
		},
		Action: func(c *cli.Context) error {
			token := c.String("token")
			srv := remote.NewServer(env.database, env.logger)

			env.logger.Info("remote store listening",
				slog.String("addr", c.String("addr")),
				slog.Bool("auth", token != ""))
			return http.ListenAndServe(c.String("addr"), srv.Router(token != "", token))
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if sErr, ok := err.(*errors.ShardError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", sErr.Code, sErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
