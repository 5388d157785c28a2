package client

import (
	"context"
	"net/url"

	"github.com/keyxmakerx/qollect/internal/client/gateway"
	"github.com/keyxmakerx/qollect/internal/plugins/categories"
	"github.com/keyxmakerx/qollect/internal/plugins/modules"
	"github.com/keyxmakerx/qollect/internal/plugins/productmodules"
	"github.com/keyxmakerx/qollect/internal/plugins/products"
	"github.com/keyxmakerx/qollect/internal/plugins/testdata"
)

// Collection is the remote contract for one entity type. gateway.Collection
// implements it over HTTP.
type Collection[E, C, U any] interface {
	List(ctx context.Context, query url.Values) ([]E, error)
	Create(ctx context.Context, input C) (E, error)
	Update(ctx context.Context, id string, input U) (E, error)
	SoftDelete(ctx context.Context, id string) error
	HardDelete(ctx context.Context, id string) error
}

// ProductReorderer submits a batch display_order renumbering.
type ProductReorderer interface {
	ReorderProducts(ctx context.Context, entries []products.OrderEntry) ([]products.Product, error)
}

// Backend bundles the remote collections a Session talks to.
type Backend struct {
	Products       Collection[products.Product, products.CreateProductInput, products.UpdateProductInput]
	Modules        Collection[modules.Module, modules.CreateModuleInput, modules.UpdateModuleInput]
	Categories     Collection[categories.Category, categories.CreateCategoryInput, categories.UpdateCategoryInput]
	ProductModules Collection[productmodules.ProductModule, productmodules.CreateProductModuleInput, productmodules.UpdateProductModuleInput]
	TestData       Collection[testdata.TestData, testdata.CreateTestDataInput, testdata.UpdateTestDataInput]
	Reorderer      ProductReorderer
}

// BackendFrom wires a Backend to the HTTP gateways.
func BackendFrom(g *gateway.Gateways) Backend {
	return Backend{
		Products:       g.Products,
		Modules:        g.Modules,
		Categories:     g.Categories,
		ProductModules: g.ProductModules,
		TestData:       g.TestData,
		Reorderer:      g,
	}
}
