package streams

import (
	"github.com/Sternrassler/tap-woocommerce/pkg/singer"
)

// Stream names.
const (
	Orders          = "orders"
	Products        = "products"
	Coupons         = "coupons"
	Customers       = "customers"
	Subscriptions   = "subscriptions"
	StoreSettings   = "store_settings"
	ProductVariants = "product_variants"
	OrderNotes      = "order_notes"
	OrderRefunds    = "order_refunds"
)

// definitions is the declaration table. Parents precede their children.
var definitions = []Definition{
	{
		Name:           Products,
		Path:           "/products",
		PrimaryKeys:    []string{"id"},
		ReplicationKey: ReplicationKeyModified,
		Schema:         productsSchema(),
	},
	{
		Name:           Orders,
		Path:           "/orders",
		PrimaryKeys:    []string{"id"},
		ReplicationKey: ReplicationKeyModified,
		Schema:         ordersSchema(),
	},
	{
		Name:           Coupons,
		Path:           "/coupons",
		PrimaryKeys:    []string{"id"},
		ReplicationKey: ReplicationKeyModified,
		Schema:         couponsSchema(),
	},
	{
		Name:        ProductVariants,
		Path:        "/products/{product_id}/variations",
		PrimaryKeys: []string{"id"},
		Parent:      Products,
		ParentKey:   "product_id",
		Schema:      productVariantsSchema(),
	},
	{
		Name:           Subscriptions,
		Path:           "/subscriptions",
		PrimaryKeys:    []string{"id"},
		ReplicationKey: ReplicationKeyModified,
		Schema:         subscriptionsSchema(),
	},
	{
		Name:           Customers,
		Path:           "/customers",
		PrimaryKeys:    []string{"id"},
		ReplicationKey: ReplicationKeyModified,
		Schema:         customersSchema(),
	},
	{
		Name:        StoreSettings,
		Path:        "/settings/general",
		PrimaryKeys: []string{"id"},
		Schema:      storeSettingsSchema(),
	},
	{
		Name:        OrderNotes,
		Path:        "/orders/{order_id}/notes",
		PrimaryKeys: []string{"id"},
		Parent:      Orders,
		ParentKey:   "order_id",
		Schema:      orderNotesSchema(),
	},
	{
		Name:        OrderRefunds,
		Path:        "/orders/{order_id}/refunds",
		PrimaryKeys: []string{"id"},
		Parent:      Orders,
		ParentKey:   "order_id",
		Schema:      orderRefundsSchema(),
	},
}

// Catalog is a lookup table over stream definitions.
type Catalog struct {
	defs   []Definition
	byName map[string]int
}

// NewCatalog builds a catalog from defs, in order.
func NewCatalog(defs []Definition) *Catalog {
	c := &Catalog{
		defs:   make([]Definition, len(defs)),
		byName: make(map[string]int, len(defs)),
	}
	copy(c.defs, defs)
	for i, d := range c.defs {
		c.byName[d.Name] = i
	}
	return c
}

// Default returns the catalog of every WooCommerce stream.
func Default() *Catalog {
	return NewCatalog(definitions)
}

// All returns every definition in declaration order.
func (c *Catalog) All() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Lookup returns the definition named name.
func (c *Catalog) Lookup(name string) (Definition, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

// TopLevel returns definitions without a parent, in declaration order.
func (c *Catalog) TopLevel() []Definition {
	var out []Definition
	for _, d := range c.defs {
		if !d.IsChild() {
			out = append(out, d)
		}
	}
	return out
}

// Children returns the child definitions of parent, in declaration order.
func (c *Catalog) Children(parent string) []Definition {
	var out []Definition
	for _, d := range c.defs {
		if d.Parent == parent {
			out = append(out, d)
		}
	}
	return out
}

// Discover renders the catalog as a Singer discovery document.
func (c *Catalog) Discover() *singer.Catalog {
	cat := &singer.Catalog{Streams: make([]singer.CatalogEntry, 0, len(c.defs))}
	for _, d := range c.defs {
		cat.Streams = append(cat.Streams, d.CatalogEntry())
	}
	return cat
}
