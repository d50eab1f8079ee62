// Command taskctl is a thin CLI over the client data layer: it logs in,
// keeps the session across invocations, and reads and mutates tasks and
// users with the same cached stores an embedding application would use.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/taskboard/client-go/internal/api"
	"github.com/taskboard/client-go/internal/config"
	"github.com/taskboard/client-go/internal/logging"
	"github.com/taskboard/client-go/internal/metrics"
	"github.com/taskboard/client-go/internal/router"
	"github.com/taskboard/client-go/internal/session"
	"github.com/taskboard/client-go/internal/store"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (default: environment only)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	app, err := newApp(*configPath)
	if err != nil {
		fatal(err)
	}
	defer app.close()

	if err := app.run(context.Background(), flag.Args()); err != nil {
		fatal(err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: taskctl [-config file] <command> [args]

Commands:
  login -email <email> -password <password>
  logout
  me
  tasks list [-search s] [-page n] [-page-size n] [-force]
  tasks create -title <title> [-description d] [-status s] [-priority p]
  tasks status -id <id> -status <status>
  tasks delete -id <id>
  users list [-search s] [-page n] [-page-size n] [-force]
  users create -name <name> -email <email> -password <password> [-role r]
  users delete -id <id>
`)
}

type app struct {
	cfg     *config.Config
	client  *api.Client
	session *session.Store
	tasks   *store.TasksStore
	users   *store.UsersStore
	guard   *router.Guard
	redis   *session.RedisKV
}

func newApp(configPath string) (*app, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	m := metrics.New("taskboard", prometheus.DefaultRegisterer)

	client, err := api.NewClient(api.ClientConfig{
		BaseURL:           cfg.BaseURL,
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            logging.New("api"),
		Metrics:           m,
	})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, client: client}

	var kv session.KV
	if cfg.RedisAddr != "" {
		a.redis, err = session.NewRedisKV(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		kv = a.redis
	} else {
		kv = session.NewFileKV(cfg.SessionFilePath())
	}

	auth := api.NewAuthService(client)
	a.session = session.New(auth, kv,
		session.WithLogger(logging.New("session")),
		session.WithSessionEndHook(func() {
			fmt.Fprintln(os.Stderr, "session expired, run `taskctl login` again")
		}),
	)
	client.BindSession(a.session, a.session.ForceLogout)

	storeOpts := []store.Option{
		store.WithTTL(cfg.CacheTTL),
		store.WithMetrics(m),
	}
	a.tasks = store.NewTasksStore(api.NewTasksService(client),
		append(storeOpts, store.WithLogger(logging.New("tasks")))...)
	a.users = store.NewUsersStore(api.NewUsersService(client),
		append(storeOpts, store.WithLogger(logging.New("users")))...)
	a.session.Register(a.tasks, a.users)

	a.guard = router.NewGuard(a.session, router.DefaultRoutes())
	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	switch args[0] {
	case "login":
		return a.login(ctx, args[1:])
	case "logout":
		a.session.Logout(ctx)
		fmt.Println("logged out")
		return nil
	case "me":
		return a.me(ctx)
	case "tasks":
		return a.tasksCmd(ctx, args[1:])
	case "users":
		return a.usersCmd(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// requireRoute applies the navigation guard the way a UI router would
// before entering a protected view.
func (a *app) requireRoute(name string) error {
	decision := a.guard.Resolve(name)
	if !decision.Allow {
		return fmt.Errorf("not authenticated, run `taskctl login` first (redirect: %s)", decision.RedirectTo)
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Account password")
	_ = fs.Parse(args)

	res, err := a.session.Login(ctx, session.Credentials{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s (%s)\n", res.User.Name, res.User.Email)
	return nil
}

func (a *app) me(ctx context.Context) error {
	if err := a.requireRoute(router.RouteDashboard); err != nil {
		return err
	}
	user := a.session.User()
	if user == nil {
		return fmt.Errorf("no session user")
	}
	return printJSON(user)
}

func (a *app) tasksCmd(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("tasks: missing subcommand")
	}
	if err := a.requireRoute("tasks"); err != nil {
		return err
	}

	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("tasks list", flag.ExitOnError)
		search := fs.String("search", "", "Search filter")
		page := fs.Int("page", 0, "Page number")
		pageSize := fs.Int("page-size", 0, "Page size")
		force := fs.Bool("force", false, "Bypass the cache")
		_ = fs.Parse(args[1:])

		params := listParams(*search, *page, *pageSize)
		tasks, err := a.tasks.Fetch(ctx, *force, params)
		if err != nil {
			return err
		}
		return printJSON(tasks)
	case "create":
		fs := flag.NewFlagSet("tasks create", flag.ExitOnError)
		title := fs.String("title", "", "Task title")
		description := fs.String("description", "", "Task description")
		status := fs.String("status", "", "Task status")
		priority := fs.String("priority", "", "Task priority")
		_ = fs.Parse(args[1:])

		task, err := a.tasks.Create(ctx, api.CreateTaskInput{
			Title:       *title,
			Description: *description,
			Status:      *status,
			Priority:    *priority,
		})
		if err != nil {
			return err
		}
		return printJSON(task)
	case "status":
		fs := flag.NewFlagSet("tasks status", flag.ExitOnError)
		id := fs.String("id", "", "Task id")
		status := fs.String("status", "", "New status")
		_ = fs.Parse(args[1:])

		task, err := a.tasks.ChangeStatus(ctx, *id, *status)
		if err != nil {
			return err
		}
		return printJSON(task)
	case "delete":
		fs := flag.NewFlagSet("tasks delete", flag.ExitOnError)
		id := fs.String("id", "", "Task id")
		_ = fs.Parse(args[1:])
		return a.tasks.Delete(ctx, *id)
	default:
		return fmt.Errorf("tasks: unknown subcommand %s", args[0])
	}
}

func (a *app) usersCmd(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("users: missing subcommand")
	}
	if err := a.requireRoute("users"); err != nil {
		return err
	}

	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("users list", flag.ExitOnError)
		search := fs.String("search", "", "Search filter")
		page := fs.Int("page", 0, "Page number")
		pageSize := fs.Int("page-size", 0, "Page size")
		force := fs.Bool("force", false, "Bypass the cache")
		_ = fs.Parse(args[1:])

		params := listParams(*search, *page, *pageSize)
		users, err := a.users.Fetch(ctx, *force, params)
		if err != nil {
			return err
		}
		return printJSON(users)
	case "create":
		fs := flag.NewFlagSet("users create", flag.ExitOnError)
		name := fs.String("name", "", "User name")
		email := fs.String("email", "", "User email")
		password := fs.String("password", "", "User password")
		role := fs.String("role", "", "User role")
		_ = fs.Parse(args[1:])

		user, err := a.users.Create(ctx, api.CreateUserInput{
			Name:     *name,
			Email:    *email,
			Password: *password,
			Role:     *role,
		})
		if err != nil {
			return err
		}
		return printJSON(user)
	case "delete":
		fs := flag.NewFlagSet("users delete", flag.ExitOnError)
		id := fs.String("id", "", "User id")
		_ = fs.Parse(args[1:])
		return a.users.Delete(ctx, *id)
	default:
		return fmt.Errorf("users: unknown subcommand %s", args[0])
	}
}

func listParams(search string, page, pageSize int) *api.ListParams {
	if search == "" && page == 0 && pageSize == 0 {
		return nil
	}
	return &api.ListParams{Search: search, Page: page, PageSize: pageSize}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "taskctl:", err)
	os.Exit(1)
}
