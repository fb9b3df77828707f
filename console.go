package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"menuo/app"
	"menuo/domain"
	"menuo/pkg/events"
	"menuo/pkg/httperror"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const usage = `usage: menuo <command>

  categories                          list categories and the products of the selected one
  select <category-id>                show the products of a category
  category add <name>
  category rename <category-id> <name>
  category rm <category-id>
  product add -category ID -name NAME -price PRICE [-description TEXT] [-image FILE]
  product edit -category ID [-name NAME] [-price PRICE] [-description TEXT] [-image FILE] <product-id>
  product rm -category ID <product-id>
  settings show
  settings save [-site-name NAME] [-primary HEX] [-accent HEX] [-logo FILE] [-link platform=url ...]
`

var errUsage = errors.New("invalid usage")

// console is the admin view driven from the command line.
type console struct {
	controller *app.Controller
	categories *app.CategoryStore
	products   *app.ProductStore
	settings   *app.SettingsStore

	in  *bufio.Reader
	out io.Writer
}

type consoleDeps struct {
	Repository app.Repository
	Archive    app.AssetArchive
	Publisher  events.Publisher
	Service    string
	In         io.Reader
	Out        io.Writer
}

func newConsole(deps consoleDeps) *console {
	c := &console{
		in:  bufio.NewReader(deps.In),
		out: deps.Out,
	}
	c.products = app.NewProductStore(deps.Repository, deps.Archive)
	c.categories = app.NewCategoryStore(deps.Repository, c.products)
	c.settings = app.NewSettingsStore(deps.Repository, domain.LatestSettings, deps.Archive)
	c.controller = app.NewController(app.ControllerConfig{
		Categories:     c.categories,
		Products:       c.products,
		Settings:       c.settings,
		Confirmer:      app.ConfirmFunc(c.confirm),
		EventPublisher: deps.Publisher,
		Service:        deps.Service,
	})
	return c
}

func (c *console) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "categories":
		return c.listCategories(ctx)
	case "select":
		if len(args) != 2 {
			return errUsage
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		if err := c.categories.Select(ctx, id); err != nil {
			return err
		}
		c.printProducts()
		return nil
	case "category":
		return c.category(ctx, args[1:])
	case "product":
		return c.product(ctx, args[1:])
	case "settings":
		return c.settingsCommand(ctx, args[1:])
	default:
		return errUsage
	}
}

func (c *console) listCategories(ctx context.Context) error {
	if err := c.categories.Refresh(ctx); err != nil {
		return err
	}

	selected, _ := c.categories.Selected()
	for _, category := range c.categories.Categories() {
		marker := " "
		if category.ID == selected {
			marker = "*"
		}
		fmt.Fprintf(c.out, "%s %4d  %s\n", marker, category.ID, category.Name)
	}
	c.printProducts()
	return nil
}

func (c *console) printProducts() {
	for _, p := range c.products.Products() {
		var tags []string
		if p.IsNew {
			tags = append(tags, "new")
		}
		if p.IsBestSeller {
			tags = append(tags, "best seller")
		}
		line := fmt.Sprintf("    - %4d  %s  %s", p.ID, p.Name, p.Price.StringFixed(2))
		if len(tags) > 0 {
			line += "  [" + strings.Join(tags, ", ") + "]"
		}
		fmt.Fprintln(c.out, line)
	}
}

func (c *console) category(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}

	switch args[0] {
	case "add":
		if err := c.controller.SetCategoryName(strings.Join(args[1:], " ")); err != nil {
			return err
		}
		category, err := c.controller.SubmitCategory(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "created category %d\n", category.ID)
		return nil
	case "rename":
		if len(args) < 3 {
			return errUsage
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		if err := c.controller.EditCategory(domain.Category{ID: id}); err != nil {
			return err
		}
		if err := c.controller.SetCategoryName(strings.Join(args[2:], " ")); err != nil {
			return err
		}
		if _, err := c.controller.SubmitCategory(ctx); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "renamed category %d\n", id)
		return nil
	case "rm":
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		removed, err := c.controller.RemoveCategory(ctx, id)
		if err != nil {
			return err
		}
		if removed {
			fmt.Fprintf(c.out, "deleted category %d\n", id)
		}
		return nil
	default:
		return errUsage
	}
}

type productFlags struct {
	fs          *flag.FlagSet
	category    int64
	name        string
	price       string
	description string
	image       string
}

func newProductFlags(name string) *productFlags {
	f := &productFlags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	f.fs.SetOutput(io.Discard)
	f.fs.Int64Var(&f.category, "category", 0, "category id")
	f.fs.StringVar(&f.name, "name", "", "product name")
	f.fs.StringVar(&f.price, "price", "", "price")
	f.fs.StringVar(&f.description, "description", "", "description")
	f.fs.StringVar(&f.image, "image", "", "image file")
	return f
}

// apply copies every flag given on the command line onto form.
func (f *productFlags) apply(form *app.ProductForm) error {
	var err error
	f.fs.Visit(func(fl *flag.Flag) {
		if err != nil {
			return
		}
		switch fl.Name {
		case "name":
			form.Name = f.name
		case "description":
			form.Description = f.description
		case "price":
			form.Price, err = decimal.NewFromString(f.price)
			if err != nil {
				err = fmt.Errorf("invalid price %q: %w", f.price, err)
			}
		case "image":
			form.Image, err = domain.NewUploadFromFile(f.image)
		}
	})
	return err
}

func (c *console) product(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errUsage
	}

	flags := newProductFlags("product " + args[0])
	if err := flags.fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if flags.category == 0 {
		return fmt.Errorf("%w: -category is required", errUsage)
	}
	if err := c.categories.Select(ctx, flags.category); err != nil {
		return err
	}

	switch args[0] {
	case "add":
		var form app.ProductForm
		if err := flags.apply(&form); err != nil {
			return err
		}
		if err := c.controller.SetProductForm(form); err != nil {
			return err
		}
		product, err := c.controller.SubmitProduct(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "created product %d\n", product.ID)
	case "edit":
		id, err := productArg(flags)
		if err != nil {
			return err
		}
		existing, ok := c.findProduct(id)
		if !ok {
			return httperror.NotFound("products.edit", fmt.Sprintf("product %d is not in category %d", id, flags.category), nil)
		}
		if err := c.controller.EditProduct(existing); err != nil {
			return err
		}
		form := c.controller.ProductForm().Values
		if err := flags.apply(&form); err != nil {
			return err
		}
		if err := c.controller.SetProductForm(form); err != nil {
			return err
		}
		if _, err := c.controller.SubmitProduct(ctx); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "updated product %d\n", id)
	case "rm":
		id, err := productArg(flags)
		if err != nil {
			return err
		}
		removed, err := c.controller.RemoveProduct(ctx, id)
		if err != nil {
			return err
		}
		if removed {
			fmt.Fprintf(c.out, "deleted product %d\n", id)
		}
	default:
		return errUsage
	}

	c.printProducts()
	return nil
}

func productArg(flags *productFlags) (int64, error) {
	if flags.fs.NArg() != 1 {
		return 0, fmt.Errorf("%w: expected one product id", errUsage)
	}
	return parseID(flags.fs.Arg(0))
}

func (c *console) findProduct(id int64) (domain.Product, bool) {
	for _, p := range c.products.Products() {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// linkFlags collects repeated -link platform=url values.
type linkFlags domain.SocialLinks

func (l linkFlags) String() string {
	return fmt.Sprint(map[string]string(l))
}

func (l linkFlags) Set(v string) error {
	platform, url, ok := strings.Cut(v, "=")
	if !ok {
		return fmt.Errorf("expected platform=url, got %q", v)
	}
	l[strings.ToLower(strings.TrimSpace(platform))] = strings.TrimSpace(url)
	return nil
}

func (c *console) settingsCommand(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	if err := c.settings.Refresh(ctx); err != nil {
		return err
	}

	switch args[0] {
	case "show":
		c.printSettings(c.settings.Settings())
		return nil
	case "save":
		form := app.SettingsFormFrom(c.settings.Settings())
		if form.SocialLinks == nil {
			form.SocialLinks = domain.SocialLinks{}
		}

		var logo string
		fs := flag.NewFlagSet("settings save", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		fs.StringVar(&form.SiteName, "site-name", form.SiteName, "site name")
		fs.StringVar(&form.PrimaryColor, "primary", form.PrimaryColor, "primary color")
		fs.StringVar(&form.AccentColor, "accent", form.AccentColor, "accent color")
		fs.StringVar(&logo, "logo", "", "logo file")
		fs.Var(linkFlags(form.SocialLinks), "link", "platform=url, repeatable")
		if err := fs.Parse(args[1:]); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}

		if logo != "" {
			upload, err := domain.NewUploadFromFile(logo)
			if err != nil {
				return err
			}
			form.Logo = upload
		}

		saved, err := c.controller.SaveSettings(ctx, form)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, c.settings.Status().Message)
		c.printSettings(saved)
		return nil
	default:
		return errUsage
	}
}

func (c *console) printSettings(s domain.Settings) {
	fmt.Fprintf(c.out, "site name:     %s\n", s.SiteName)
	fmt.Fprintf(c.out, "primary color: %s\n", s.PrimaryColor)
	fmt.Fprintf(c.out, "accent color:  %s\n", s.AccentColor)
	if s.Logo != nil {
		fmt.Fprintf(c.out, "logo:          %s\n", *s.Logo)
	}
	for _, platform := range domain.SocialPlatforms {
		if url, ok := s.SocialLinks[platform]; ok {
			fmt.Fprintf(c.out, "%-14s %s\n", platform+":", url)
		}
	}
}

func (c *console) confirm(_ context.Context, prompt string) (bool, error) {
	fmt.Fprintf(c.out, "%s [y/N]: ", prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// describe renders err for the operator, including server field errors.
func describe(err error) string {
	if errors.Is(err, errUsage) {
		return err.Error() + "\n\n" + usage
	}

	var b strings.Builder
	switch httperror.KindOf(err) {
	case httperror.KindTransport:
		b.WriteString("could not reach the menu API: ")
	case httperror.KindValidation:
		b.WriteString("rejected: ")
	case httperror.KindStaleReference:
		b.WriteString("no longer exists: ")
	}
	b.WriteString(err.Error())
	for _, line := range httperror.FieldErrors(err) {
		b.WriteString("\n  ")
		b.WriteString(line)
	}
	return b.String()
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not an id", errUsage, s)
	}
	return id, nil
}
