package gateway

import (
	"context"
	"net/http"

	"github.com/keyxmakerx/qollect/internal/plugins/categories"
	"github.com/keyxmakerx/qollect/internal/plugins/modules"
	"github.com/keyxmakerx/qollect/internal/plugins/productmodules"
	"github.com/keyxmakerx/qollect/internal/plugins/products"
	"github.com/keyxmakerx/qollect/internal/plugins/testdata"
)

// Concrete collection types of the Qollect API.
type (
	Products       = Collection[products.Product, products.CreateProductInput, products.UpdateProductInput]
	Modules        = Collection[modules.Module, modules.CreateModuleInput, modules.UpdateModuleInput]
	Categories     = Collection[categories.Category, categories.CreateCategoryInput, categories.UpdateCategoryInput]
	ProductModules = Collection[productmodules.ProductModule, productmodules.CreateProductModuleInput, productmodules.UpdateProductModuleInput]
	TestData       = Collection[testdata.TestData, testdata.CreateTestDataInput, testdata.UpdateTestDataInput]
)

// Gateways groups one collection per entity type.
type Gateways struct {
	client *Client

	Products       *Products
	Modules        *Modules
	Categories     *Categories
	ProductModules *ProductModules
	TestData       *TestData
}

// New creates the gateways for every entity type on client.
func New(client *Client) *Gateways {
	return &Gateways{
		client:         client,
		Products:       NewCollection[products.Product, products.CreateProductInput, products.UpdateProductInput](client, "/products"),
		Modules:        NewCollection[modules.Module, modules.CreateModuleInput, modules.UpdateModuleInput](client, "/modules"),
		Categories:     NewCollection[categories.Category, categories.CreateCategoryInput, categories.UpdateCategoryInput](client, "/categories"),
		ProductModules: NewCollection[productmodules.ProductModule, productmodules.CreateProductModuleInput, productmodules.UpdateProductModuleInput](client, "/product-modules"),
		TestData:       NewCollection[testdata.TestData, testdata.CreateTestDataInput, testdata.UpdateTestDataInput](client, "/test-data"),
	}
}

// ReorderProducts submits a full display_order renumbering in one request
// and returns the updated rows.
func (g *Gateways) ReorderProducts(ctx context.Context, entries []products.OrderEntry) ([]products.Product, error) {
	var out []products.Product
	if err := g.client.Do(ctx, http.MethodPut, "/products/order", nil, entries, &out); err != nil {
		return nil, err
	}
	return out, nil
}
