// storectl is a CLI for shopping against a storefront backend.
// Each command performs a single operation, making it composable for scripts.
//
// Commands:
//
//	storectl register -backend URL -user NAME -pass SECRET
//	storectl login    -backend URL -user NAME -pass SECRET
//	storectl logout
//	storectl whoami
//	storectl products -backend URL
//	storectl search   -backend URL -value TEXT
//	storectl cart     -backend URL
//	storectl add      -backend URL -product ID [-qty N]
//	storectl update   -backend URL -product ID -qty N
//
// Examples:
//
//	storectl login -backend http://localhost:8082/api/v1 -user crio.do -pass learnbydoing
//	storectl search -backend http://localhost:8082/api/v1 -value iphone
//	storectl add -backend http://localhost:8082/api/v1 -product KCRwjF7lN97HnEaY
//	storectl update -backend http://localhost:8082/api/v1 -product KCRwjF7lN97HnEaY -qty 0
//
// The login credential is stored in a session file (default
// ~/.storefront/session) and picked up by the cart commands.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"storefront/internal/api"
	"storefront/internal/model"
	"storefront/internal/session"
	"storefront/internal/storefront"
)

// Global flags (apply to all commands)
var (
	backendURL  string
	sessionPath string
	quiet       bool
	noColor     bool
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen = "", "", ""
	colorYellow, colorCyan, colorGray, colorBold = "", "", "", ""
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "register":
		runRegister(args)
	case "login":
		runLogin(args)
	case "logout":
		runLogout(args)
	case "whoami":
		runWhoami(args)
	case "products":
		runProducts(args)
	case "search":
		runSearch(args)
	case "cart":
		runCart(args)
	case "add":
		runAdd(args)
	case "update":
		runUpdate(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `storectl - storefront backend shopping tool

Usage:
  storectl <command> [options]

Commands:
  register  Create an account
  login     Log in and store the session
  logout    Discard the stored session
  whoami    Show the logged-in user and wallet balance
  products  List the product catalog
  search    Search products by name or category
  cart      Show the cart with totals
  add       Add a product to the cart
  update    Set a product's cart quantity (0 removes)

Examples:
  # Log in once, then shop
  storectl login -backend http://localhost:8082/api/v1 -user crio.do -pass learnbydoing
  storectl search -backend http://localhost:8082/api/v1 -value iphone
  storectl add -backend http://localhost:8082/api/v1 -product KCRwjF7lN97HnEaY
  storectl update -backend http://localhost:8082/api/v1 -product KCRwjF7lN97HnEaY -qty 3
  storectl cart -backend http://localhost:8082/api/v1

Run 'storectl <command> -h' for command-specific options.
`)
}

// commonFlags registers the flags every command shares.
func commonFlags(fs *flag.FlagSet) {
	fs.StringVar(&backendURL, "backend", "http://localhost:8082/api/v1", "Backend base URL")
	fs.StringVar(&sessionPath, "session", defaultSessionPath(), "Session file path")
	fs.BoolVar(&quiet, "q", false, "Quiet mode - machine-friendly output")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".storefront-session"
	}
	return filepath.Join(home, ".storefront", "session")
}

// newClient builds the backend client used by every command.
func newClient() *api.Client {
	client, err := api.New(api.Config{
		BaseURL: backendURL,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		fatal("Invalid backend URL: %v", err)
	}
	return client
}

// newCore builds a storefront core over the backend client.
func newCore(client *api.Client) *storefront.Service {
	return storefront.New(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func sessionStore() *session.FileStore {
	return session.NewFileStore(sessionPath)
}

func loadSession(ctx context.Context) session.Session {
	sess, err := sessionStore().Load(ctx)
	if err != nil {
		fatal("Reading session file: %v", err)
	}
	return sess
}

func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// =============================================================================
// AUTH COMMANDS
// =============================================================================

func runRegister(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	commonFlags(fs)
	var username, password string
	fs.StringVar(&username, "user", "", "Username (required, at least 6 characters)")
	fs.StringVar(&password, "pass", "", "Password (required, at least 6 characters)")
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	ctx, cancel := opCtx()
	defer cancel()

	if err := newClient().Register(ctx, username, password); err != nil {
		fatal("Registration failed: %v", userMessage(err))
	}
	printSuccess("Registered %s. Log in with 'storectl login'.", username)
}

func runLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	commonFlags(fs)
	var username, password string
	fs.StringVar(&username, "user", "", "Username (required)")
	fs.StringVar(&password, "pass", "", "Password (required)")
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	ctx, cancel := opCtx()
	defer cancel()

	creds, err := newClient().Login(ctx, username, password)
	if err != nil {
		fatal("Login failed: %v", userMessage(err))
	}

	if err := sessionStore().Save(ctx, session.FromCredentials(creds)); err != nil {
		fatal("Saving session: %v", err)
	}

	printSuccess("Logged in as %s", creds.Username)
	if !quiet {
		fmt.Printf("  Balance: %s%s%s\n", colorGreen, model.FormatCents(creds.BalanceCents), colorReset)
	}
}

func runLogout(args []string) {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	commonFlags(fs)
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	ctx, cancel := opCtx()
	defer cancel()

	if err := sessionStore().Clear(ctx); err != nil {
		fatal("Clearing session: %v", err)
	}
	printSuccess("Logged out")
}

func runWhoami(args []string) {
	fs := flag.NewFlagSet("whoami", flag.ExitOnError)
	commonFlags(fs)
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	ctx, cancel := opCtx()
	defer cancel()

	sess := loadSession(ctx)
	if sess.Anonymous() {
		printWarning("Not logged in")
		os.Exit(1)
	}

	if quiet {
		fmt.Println(sess.Username)
		return
	}
	fmt.Printf("%s%s%s\n", colorBold, sess.Username, colorReset)
	fmt.Printf("  Balance: %s%s%s\n", colorGreen, model.FormatCents(sess.BalanceCents), colorReset)
}

// =============================================================================
// CATALOG COMMANDS
// =============================================================================

func runProducts(args []string) {
	fs := flag.NewFlagSet("products", flag.ExitOnError)
	commonFlags(fs)
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	ctx, cancel := opCtx()
	defer cancel()

	products, err := newClient().ListProducts(ctx)
	if err != nil {
		fatal("Fetching products: %v", userMessage(err))
	}
	printProducts(products)
}

func runSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	commonFlags(fs)
	var value string
	fs.StringVar(&value, "value", "", "Search text (required)")
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	if value == "" {
		fs.Usage()
		os.Exit(1)
	}

	ctx, cancel := opCtx()
	defer cancel()

	products, err := newClient().SearchProducts(ctx, value)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			printWarning("No products found")
			return
		}
		fatal("Search failed: %v", userMessage(err))
	}
	printProducts(products)
}

func printProducts(products []model.Product) {
	if quiet {
		for _, p := range products {
			fmt.Println(p.ID)
		}
		return
	}
	for _, p := range products {
		fmt.Printf("%s%-18s%s %s%-10s%s %s %s(%s, rated %d/5)%s\n",
			colorCyan, p.ID, colorReset,
			colorGreen, model.FormatCents(p.CostCents), colorReset,
			p.Name,
			colorGray, p.Category, p.Rating, colorReset)
	}
	printInfo("%d products", len(products))
}

// =============================================================================
// CART COMMANDS
// =============================================================================

func runCart(args []string) {
	fs := flag.NewFlagSet("cart", flag.ExitOnError)
	commonFlags(fs)
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	ctx, cancel := opCtx()
	defer cancel()

	sess := loadSession(ctx)
	if sess.Anonymous() {
		printWarning("Not logged in - the cart lives on the backend, log in first")
		os.Exit(1)
	}

	client := newClient()
	core := newCore(client)
	defer core.Close()

	if err := core.Bootstrap(ctx, sess); err != nil {
		fatal("Loading cart: %v", userMessage(err))
	}
	printCart(core.DisplayCart(), core.Totals())
}

func runAdd(args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	commonFlags(fs)
	var productID string
	var qty int
	fs.StringVar(&productID, "product", "", "Product ID (required)")
	fs.IntVar(&qty, "qty", 1, "Quantity")
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	if productID == "" {
		fs.Usage()
		os.Exit(1)
	}

	// Adding rejects products already in the cart; use 'update' for those.
	setQuantity(productID, qty, storefront.UpdateOptions{PreventDuplicateAdd: true})
}

func runUpdate(args []string) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	commonFlags(fs)
	var productID string
	var qty int
	fs.StringVar(&productID, "product", "", "Product ID (required)")
	fs.IntVar(&qty, "qty", -1, "Quantity (required; 0 removes the item)")
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	if productID == "" || qty < 0 {
		fs.Usage()
		os.Exit(1)
	}

	setQuantity(productID, qty, storefront.UpdateOptions{})
}

func setQuantity(productID string, qty int, opts storefront.UpdateOptions) {
	ctx, cancel := opCtx()
	defer cancel()

	sess := loadSession(ctx)

	client := newClient()
	core := newCore(client)
	defer core.Close()

	// The duplicate guard needs the current cart; fetch it before mutating.
	if err := core.Bootstrap(ctx, sess); err != nil {
		fatal("Loading cart: %v", userMessage(err))
	}

	cart, err := core.SetQuantity(ctx, sess, productID, qty, opts)
	if err != nil {
		fatal("%v", userMessage(err))
	}

	printSuccess("Cart updated")
	printCart(cart, core.Totals())
}

func printCart(cart []model.DisplayLine, totals model.CartTotals) {
	if quiet {
		for _, l := range cart {
			fmt.Printf("%s %d\n", l.ProductID, l.Quantity)
		}
		return
	}
	if len(cart) == 0 {
		printInfo("Cart is empty")
		return
	}
	for _, l := range cart {
		fmt.Printf("%s%2d x%s %-30s %s%s%s\n",
			colorBold, l.Quantity, colorReset,
			l.Name,
			colorGreen, model.FormatCents(l.CostCents*int64(l.Quantity)), colorReset)
	}
	fmt.Printf("\n  %d items, total %s%s%s (shipping %s)\n",
		totals.Items,
		colorGreen, model.FormatCents(totals.TotalCents), colorReset,
		model.FormatCents(totals.ShippingCents))
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

// userMessage prefers the APIError's user-facing message over the raw chain.
func userMessage(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

func printSuccess(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printWarning(format string, args ...interface{}) {
	fmt.Printf("%s⚠ %s%s\n", colorYellow, fmt.Sprintf(format, args...), colorReset)
}

func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s→ %s%s\n", colorGray, fmt.Sprintf(format, args...), colorReset)
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}
