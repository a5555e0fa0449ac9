package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/imserv/voltage/internal/auth"
	"github.com/imserv/voltage/internal/blog"
	"github.com/imserv/voltage/internal/config"
	"github.com/imserv/voltage/internal/localstore"
	"github.com/imserv/voltage/internal/mockdb"
	"github.com/imserv/voltage/internal/models"
	"github.com/imserv/voltage/internal/render"
)

type app struct {
	cfg   *config.Config
	local localstore.Store
	db    *mockdb.Store
	auth  *auth.Auth
	blog  *blog.Service
	out   io.Writer
}

type command struct {
	name string
	help string
	run  func(a *app, ctx context.Context, args []string) error
}

var commands = []command{
	{"posts", "List posts (-page, -search, -category, -oldest, -mine)", (*app).posts},
	{"categories", "List categories with their post count", (*app).categories},
	{"show", "Show a post and its comments by slug", (*app).show},
	{"html", "Print a post rendered as sanitized HTML", (*app).html},
	{"publish", "Create a post (-title, -category, -file)", (*app).publish},
	{"unpublish", "Delete a post by id", (*app).unpublish},
	{"comment", "Comment on a post: <post-id> <text>", (*app).comment},
	{"login", "Sign in: <email> [password]", (*app).login},
	{"signup", "Create an account: <email> <full name>", (*app).signup},
	{"logout", "Sign out", (*app).logout},
	{"whoami", "Print the current session", (*app).whoami},
	{"profile", "Show a profile, or update yours (-bio, -expertise, -name)", (*app).profile},
	{"resources", "List resources, or add one (-add -title -url -category)", (*app).resources},
	{"schema", "Print the JSON schema of a model", (*app).schema},
	{"follow", "Print local storage changes made by other processes", (*app).follow},
}

func (a *app) run(ctx context.Context, args []string) error {
	name := args[0]
	if name == "help" {
		flag.Usage()
		return nil
	}
	for _, c := range commands {
		if c.name == name {
			return c.run(a, ctx, args[1:])
		}
	}
	return fmt.Errorf("unknown command %q", name)
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet("voltage "+name, flag.ContinueOnError)
}

func (a *app) posts(ctx context.Context, args []string) error {
	fs := newFlagSet("posts")
	page := fs.Int("page", 1, "Page number")
	search := fs.String("search", "", "Search title and content")
	category := fs.Int64("category", 0, "Category id")
	oldest := fs.Bool("oldest", false, "Oldest first")
	mine := fs.Bool("mine", false, "Only the signed in user's posts")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *mine {
		user, err := a.auth.RequireAuth(ctx)
		if err != nil || user == nil {
			return err
		}
		posts, err := a.blog.GetUserPosts(ctx, user.ID)
		if err != nil {
			return err
		}
		for i := range posts {
			a.printPostLine(&posts[i])
		}
		return nil
	}

	opts := blog.ListOptions{Search: *search, CategoryID: *category}
	if *oldest {
		opts.Sort = blog.SortOldest
	}
	res, err := a.blog.GetPaginatedPosts(ctx, *page, 0, opts)
	if err != nil {
		return err
	}
	for i := range res.Posts {
		a.printPostLine(&res.Posts[i])
	}
	fmt.Fprintf(a.out, "\nPage %d of %d (%d posts)\n", res.Page, res.Pages(), res.Total)
	return nil
}

func (a *app) printPostLine(p *models.Post) {
	fmt.Fprintf(a.out, "%4d  %-18s  %-17s  %s\n", p.ID, render.FormatDate(p.CreatedAt, a.cfg.Locale), render.CategoryName(p), p.Title)
	fmt.Fprintf(a.out, "      %s, %d views, /%s\n", render.AuthorName(p), p.ViewCount, p.Slug)
}

func (a *app) categories(ctx context.Context, _ []string) error {
	cats, err := a.blog.GetCategories(ctx)
	if err != nil {
		return err
	}
	for _, c := range cats {
		fmt.Fprintf(a.out, "%3d  %-20s %3d  %s\n", c.ID, c.Name, c.PostCount(), c.Slug)
	}
	return nil
}

func (a *app) postBySlug(ctx context.Context, args []string) (*models.Post, error) {
	if len(args) != 1 {
		return nil, errors.New("expected one slug")
	}
	p, err := a.blog.GetPostBySlug(ctx, args[0])
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("no post %q", args[0])
	}
	return p, nil
}

func (a *app) show(ctx context.Context, args []string) error {
	fs := newFlagSet("show")
	width := fs.Int("width", 80, "Wrap width")
	style := fs.String("style", "", "glamour style (dark, light, notty); detected when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := a.postBySlug(ctx, fs.Args())
	if err != nil {
		return err
	}
	if err := a.blog.IncrementViewCount(ctx, p.ID); err != nil {
		return err
	}
	comments, err := a.blog.GetComments(ctx, p.ID)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Title)
	fmt.Fprintf(&b, "*%s* | %s | %s\n\n", render.AuthorName(p), render.CategoryName(p), render.FormatDate(p.CreatedAt, a.cfg.Locale))
	fmt.Fprintf(&b, "![header](%s)\n\n", render.HeaderImage(p))
	if p.Excerpt != "" {
		fmt.Fprintf(&b, "> %s\n\n", p.Excerpt)
	}
	b.WriteString(p.Content)
	fmt.Fprintf(&b, "\n\n## Comments (%d)\n\n", len(comments))
	for i := range comments {
		c := &comments[i]
		fmt.Fprintf(&b, "- **%s** (%s): %s\n", render.CommentAuthor(c), render.FormatDate(c.CreatedAt, a.cfg.Locale), c.Content)
	}
	out, err := render.Terminal(b.String(), *width, *style)
	if err != nil {
		return err
	}
	_, err = io.WriteString(a.out, out)
	return err
}

func (a *app) html(ctx context.Context, args []string) error {
	p, err := a.postBySlug(ctx, args)
	if err != nil {
		return err
	}
	out, err := render.Markdown(p.Content)
	if err != nil {
		return err
	}
	_, err = io.WriteString(a.out, out)
	return err
}

func (a *app) publish(ctx context.Context, args []string) error {
	fs := newFlagSet("publish")
	title := fs.String("title", "", "Title")
	category := fs.Int64("category", 0, "Category id")
	excerpt := fs.String("excerpt", "", "Excerpt")
	file := fs.String("file", "", "Markdown file holding the content; - for stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	user, err := a.auth.RequireAuth(ctx)
	if err != nil || user == nil {
		return err
	}
	role, err := a.auth.GetUserRole(ctx, user.ID)
	if err != nil {
		return err
	}
	if p := (models.Profile{Role: role}); !p.CanPost() {
		return fmt.Errorf("role %q cannot publish", role)
	}

	var content []byte
	switch *file {
	case "":
	case "-":
		content, err = io.ReadAll(os.Stdin)
	default:
		content, err = os.ReadFile(*file)
	}
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}
	p, err := a.blog.CreatePost(ctx, &models.Post{
		Title:      *title,
		Excerpt:    *excerpt,
		Content:    string(content),
		CategoryID: *category,
		UserID:     user.ID,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Published %d /%s\n", p.ID, p.Slug)
	a.notSaved(mockdb.TablePosts)
	return nil
}

// notSaved warns that table is rebuilt from the seed on every run, unlike
// comments and the session which live in local storage.
func (a *app) notSaved(table string) {
	fmt.Fprintf(a.out, "Note: %s are kept in memory and reset when voltage exits.\n", table)
}

func (a *app) unpublish(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("expected one post id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid post id: %w", err)
	}
	user, err := a.auth.RequireAuth(ctx)
	if err != nil || user == nil {
		return err
	}
	if err := a.blog.DeletePost(ctx, id); err != nil {
		return err
	}
	a.notSaved(mockdb.TablePosts)
	return nil
}

func (a *app) comment(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("expected a post id and some text")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid post id: %w", err)
	}
	user, err := a.auth.RequireAuth(ctx)
	if err != nil || user == nil {
		return err
	}
	c, err := a.blog.AddComment(ctx, id, user.ID, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Comment %d by %s\n", c.ID, render.CommentAuthor(c))
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("expected an email and optional password")
	}
	password := ""
	if len(args) == 2 {
		password = args[1]
	}
	sess, err := a.auth.SignIn(ctx, args[0], password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", sess.User.UserMetadata.FullName, sess.User.ID)
	return nil
}

func (a *app) signup(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("expected an email and a full name")
	}
	sess, err := a.auth.SignUp(ctx, args[0], "", strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome %s (%s)\n", sess.User.UserMetadata.FullName, sess.User.ID)
	return nil
}

func (a *app) logout(ctx context.Context, _ []string) error {
	return a.auth.SignOut(ctx)
}

func (a *app) whoami(ctx context.Context, _ []string) error {
	sess, err := a.auth.CheckSession(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		fmt.Fprintln(a.out, "Signed out")
		return nil
	}
	role, err := a.auth.GetUserRole(ctx, sess.User.ID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"user":         sess.User,
		"role":         role,
		"access_token": sess.AccessToken,
	})
}

func (a *app) profile(ctx context.Context, args []string) error {
	fs := newFlagSet("profile")
	bio := fs.String("bio", "", "New biography")
	expertise := fs.String("expertise", "", "New field of expertise")
	name := fs.String("name", "", "New display name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	changes := mockdb.Record{}
	if *bio != "" {
		changes["bio"] = *bio
	}
	if *expertise != "" {
		changes["expertise"] = *expertise
	}
	if *name != "" {
		changes["full_name"] = *name
	}

	var p *models.Profile
	var err error
	switch {
	case len(changes) != 0:
		p, err = a.blog.UpdateProfile(ctx, changes)
		if err == nil {
			defer a.notSaved(mockdb.TableProfiles)
		}
	case fs.NArg() == 1:
		p, err = a.blog.GetProfile(ctx, fs.Arg(0))
	default:
		user, uerr := a.auth.RequireAuth(ctx)
		if uerr != nil || user == nil {
			return uerr
		}
		p, err = a.blog.GetProfile(ctx, user.ID)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (%s)\n", p.FullName, p.ID)
	if p.Expertise != "" {
		fmt.Fprintf(a.out, "Expertise: %s\n", p.Expertise)
	}
	if p.Bio != "" {
		fmt.Fprintf(a.out, "%s\n", p.Bio)
	}
	return nil
}

func (a *app) resources(ctx context.Context, args []string) error {
	fs := newFlagSet("resources")
	add := fs.Bool("add", false, "Add a resource")
	title := fs.String("title", "", "Title")
	url := fs.String("url", "", "Link")
	desc := fs.String("description", "", "Description")
	category := fs.String("category", "", "Grouping label")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *add {
		r, err := a.blog.CreateResource(ctx, &models.Resource{Title: *title, URL: *url, Description: *desc, Category: *category})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Added %d\n", r.ID)
		a.notSaved(mockdb.TableResources)
		return nil
	}
	list, err := a.blog.GetResources(ctx)
	if err != nil {
		return err
	}
	for _, r := range list {
		fmt.Fprintf(a.out, "%4d  %-14s  %s  %s\n", r.ID, r.Category, r.Title, r.URL)
	}
	return nil
}

func (a *app) schema(_ context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected one of %s", strings.Join(models.SchemaNames(), ", "))
	}
	s := models.Schema(args[0])
	if s == nil {
		return fmt.Errorf("unknown model %q; expected one of %s", args[0], strings.Join(models.SchemaNames(), ", "))
	}
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func (a *app) follow(ctx context.Context, _ []string) error {
	f, ok := a.local.(*localstore.File)
	if !ok {
		return fmt.Errorf("follow needs the %q storage backend", config.BackendFile)
	}
	err := f.Watch(ctx, func(key string) {
		switch key {
		case localstore.KeySession:
			user, err := a.auth.GetCurrentUser(ctx)
			switch {
			case err != nil:
				fmt.Fprintf(a.out, "session: %v\n", err)
			case user == nil:
				fmt.Fprintln(a.out, "session: signed out")
			default:
				fmt.Fprintf(a.out, "session: %s\n", user.ID)
			}
		default:
			fmt.Fprintf(a.out, "%s changed\n", key)
		}
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Watching %s\n", f.Path())
	<-ctx.Done()
	return ctx.Err()
}
