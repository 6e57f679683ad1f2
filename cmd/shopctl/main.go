package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/example/storefront-client/internal/admin"
	"github.com/example/storefront-client/internal/apiclient"
	"github.com/example/storefront-client/internal/cart"
	"github.com/example/storefront-client/internal/catalog"
	"github.com/example/storefront-client/internal/config"
	"github.com/example/storefront-client/internal/credential"
	"github.com/example/storefront-client/internal/logging"
	"github.com/example/storefront-client/internal/session"
	"github.com/example/storefront-client/internal/ui"
)

// termSurface renders a dialog as terminal output; shopctl has no real
// dialogs but still drives the modal lifecycle the hosted client uses.
type termSurface struct{ name string }

func (s termSurface) Show() { fmt.Printf("--- %s ---\n", s.name) }
func (s termSurface) Hide() { fmt.Printf("--- end %s ---\n", s.name) }

type app struct {
	log      *zap.Logger
	tracker  *ui.Tracker
	notifier *ui.Notifier
	modals   *ui.Manager
	creds    *credential.Store
	client   *apiclient.Client
	catalog  *catalog.Store
	cart     *cart.Store
	session  *session.Controller
	admin    *admin.Orchestrator
}

func newApp(cfg *config.Config, log *zap.Logger) *app {
	a := &app{
		log:      log,
		tracker:  ui.NewTracker(),
		notifier: ui.NewNotifier(ui.DefaultNotificationTTL),
		modals:   ui.NewManager(log),
		creds:    credential.NewStore(cfg.Credential.File, log),
	}
	a.modals.SetFocusClearer(func() {}) // no keyboard focus in a terminal

	// Missing or expired credentials are fine here; verify and the 401
	// handling surface them when it matters.
	if _, err := a.creds.Load(); err != nil {
		log.Debug("no usable stored credential", zap.Error(err))
	}

	a.client = apiclient.New(cfg.API.BaseURL, cfg.API.Path, a.creds, log,
		apiclient.WithTimeout(cfg.API.Timeout))
	a.catalog = catalog.NewStore(a.client, a.tracker, log)
	a.cart = cart.NewStore(a.client, a.tracker, a.notifier, log)
	a.session = session.NewController(a.client, a.creds, a.tracker, a.notifier, a.catalog, log)
	a.admin = admin.NewOrchestrator(a.client, a.catalog, a.tracker, a.notifier, log)

	editor := a.modals.Register("product-editor")
	confirm := a.modals.Register("delete-confirm")
	detail := a.modals.Register("product-detail")
	_ = editor.Mount(termSurface{name: "product editor"})
	_ = confirm.Mount(termSurface{name: "delete confirmation"})
	_ = detail.Mount(termSurface{name: "product detail"})
	a.admin.BindDialogs(editor, confirm)
	a.cart.BindDialogs(detail, confirm)

	return a
}

func (a *app) teardown() {
	a.notifier.Close()
	a.modals.Teardown()
	_ = a.log.Sync()
}

func main() {
	configPath := flag.String("config", "", "path to config.yaml (optional; SHOPCTL_* env vars also apply)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "shopctl:", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	a := newApp(cfg, log)
	defer a.teardown()

	if err := a.run(context.Background(), flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "shopctl:", err)
		os.Exit(1)
	}

	if msg, ok := a.notifier.Current(); ok {
		fmt.Println("*", msg)
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: shopctl <command> [args]; commands: login verify logout products product admin-products product-create product-update product-delete upload cart cart-add cart-qty cart-remove cart-clear checkout")
	}

	switch cmd := args[0]; cmd {
	case "login":
		if len(args) != 3 {
			return fmt.Errorf("usage: shopctl login <username> <password>")
		}
		return a.session.SignIn(ctx, args[1], args[2])

	case "verify":
		if err := a.session.Verify(ctx); err != nil {
			return err
		}
		fmt.Println("session valid; catalog page 1 loaded,", len(a.catalog.Products()), "products")
		return nil

	case "logout":
		return a.session.SignOut(ctx)

	case "products":
		if err := a.catalog.FetchAll(ctx); err != nil {
			return err
		}
		for _, p := range a.catalog.All() {
			fmt.Printf("%s  %-24s %8.0f (%s)\n", p.ID, p.Title, p.Price, p.Category)
		}
		return nil

	case "product":
		if len(args) != 2 {
			return fmt.Errorf("usage: shopctl product <id>")
		}
		p, err := a.catalog.FetchDetail(ctx, args[1])
		if err != nil {
			return err
		}
		return printJSON(p)

	case "admin-products":
		page := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("page must be a number: %w", err)
			}
			page = n
		}
		if err := a.requireAdmin(ctx); err != nil {
			return err
		}
		if err := a.catalog.FetchPage(ctx, page); err != nil {
			return err
		}
		info := a.catalog.PageInfo()
		for _, p := range a.catalog.Products() {
			state := "off"
			if p.Enabled() {
				state = "on"
			}
			fmt.Printf("%s  %-24s %8.0f  [%s]\n", p.ID, p.Title, p.Price, state)
		}
		fmt.Printf("page %d/%d\n", info.CurrentPage, info.TotalPages)
		categories, units := a.catalog.Facets()
		fmt.Println("categories:", categories, "units:", units)
		return nil

	case "product-create", "product-update":
		return a.runSubmit(ctx, cmd, args[1:])

	case "product-delete":
		if len(args) != 2 {
			return fmt.Errorf("usage: shopctl product-delete <id>")
		}
		if err := a.requireAdmin(ctx); err != nil {
			return err
		}
		return a.admin.Delete(ctx, catalog.Product{ID: args[1], Title: args[1]})

	case "upload":
		if len(args) != 2 {
			return fmt.Errorf("usage: shopctl upload <file>")
		}
		if err := a.requireAdmin(ctx); err != nil {
			return err
		}
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()
		draft := admin.NewDraft()
		if err := a.admin.UploadImage(ctx, &draft, args[1], f); err != nil {
			return err
		}
		fmt.Println("imageUrl:", draft.ImageURL)
		return nil

	case "cart":
		if err := a.cart.Fetch(ctx); err != nil {
			return err
		}
		return printCart(a.cart.Cart())

	case "cart-add":
		if len(args) < 2 {
			return fmt.Errorf("usage: shopctl cart-add <product-id> [qty]")
		}
		qty := 1
		if len(args) > 2 {
			n, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("qty must be a number: %w", err)
			}
			qty = n
		}
		p, err := a.catalog.FetchDetail(ctx, args[1])
		if err != nil {
			return err
		}
		return a.cart.AddItem(ctx, p, qty)

	case "cart-qty":
		if len(args) != 3 {
			return fmt.Errorf("usage: shopctl cart-qty <item-id> <qty>")
		}
		qty, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("qty must be a number: %w", err)
		}
		item, err := a.findItem(ctx, args[1])
		if err != nil {
			return err
		}
		return a.cart.SetQuantity(ctx, item, qty)

	case "cart-remove":
		if len(args) != 2 {
			return fmt.Errorf("usage: shopctl cart-remove <item-id>")
		}
		item, err := a.findItem(ctx, args[1])
		if err != nil {
			return err
		}
		return a.cart.RemoveItem(ctx, item)

	case "cart-clear":
		return a.cart.Clear(ctx)

	case "checkout":
		return a.runCheckout(ctx, args[1:])

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// requireAdmin verifies the stored credential before an admin operation,
// mirroring the admin view's entry check.
func (a *app) requireAdmin(ctx context.Context) error {
	if a.session.Gate() == nil {
		return nil
	}
	if err := a.session.Verify(ctx); err != nil {
		return fmt.Errorf("admin access requires sign-in: %w", err)
	}
	return nil
}

func (a *app) runSubmit(ctx context.Context, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	id := fs.String("id", "", "product id (update only)")
	title := fs.String("title", "", "product title")
	category := fs.String("category", "", "category")
	unit := fs.String("unit", "", "unit")
	originPrice := fs.String("origin-price", "", "original price")
	price := fs.String("price", "", "sale price")
	description := fs.String("description", "", "short description")
	content := fs.String("content", "", "long content")
	enabled := fs.Bool("enabled", false, "list the product")
	image := fs.String("image", "", "primary image URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.requireAdmin(ctx); err != nil {
		return err
	}

	draft := admin.NewDraft()
	draft.ID = *id
	draft.Title = *title
	draft.Category = *category
	draft.Unit = *unit
	draft.OriginPrice = *originPrice
	draft.Price = *price
	draft.Description = *description
	draft.Content = *content
	draft.ImageURL = *image
	if *enabled {
		draft.IsEnabled = 1
	}

	target := admin.TargetCreate
	if cmd == "product-update" {
		if draft.ID == "" {
			return fmt.Errorf("product-update requires -id")
		}
		target = admin.TargetEdit
	}
	_ = a.admin.OpenEditor(target)
	return a.admin.Submit(ctx, draft, target)
}

func (a *app) runCheckout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	name := fs.String("name", "", "recipient name")
	email := fs.String("email", "", "recipient email")
	tel := fs.String("tel", "", "recipient phone")
	address := fs.String("address", "", "delivery address")
	message := fs.String("message", "", "order note")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user := cart.OrderUser{Name: *name, Email: *email, Tel: *tel, Address: *address}
	return a.cart.Checkout(ctx, user, *message)
}

func (a *app) findItem(ctx context.Context, itemID string) (cart.Item, error) {
	if err := a.cart.Fetch(ctx); err != nil {
		return cart.Item{}, err
	}
	for _, item := range a.cart.Cart().Carts {
		if item.ID == itemID {
			return item, nil
		}
	}
	return cart.Item{}, fmt.Errorf("cart line %q not found", itemID)
}

func printCart(c cart.Cart) error {
	for _, item := range c.Carts {
		fmt.Printf("%s  %-24s x%-3d %8.0f\n", item.ID, item.Product.Title, item.Qty, item.Total)
	}
	fmt.Printf("total: %.0f  discounted: %.0f\n", c.Total, c.FinalTotal)
	return nil
}

func printJSON(v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}
