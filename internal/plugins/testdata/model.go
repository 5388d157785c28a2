// Package testdata manages individual test cases. Unlike the catalog
// entities, test data is deleted physically.
package testdata

import (
	"net/url"
	"strings"
	"time"
)

// CopyPrefix is prepended to the name of a copied test case.
const CopyPrefix = "Copy of "

// TestData is one test case: inputs encoded as key/value lines plus the
// expected result.
type TestData struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ProductID   string    `json:"product_id"`
	ModuleID    string    `json:"module_id"`
	CategoryID  string    `json:"category_id"`
	TestData    string    `json:"test_data"`
	Expected    string    `json:"expected"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GetID returns the test case identifier.
func (td TestData) GetID() string { return td.ID }

// Fields decodes the test_data lines.
func (td TestData) Fields() []Field { return ParseFields(td.TestData) }

// Draft returns an unsaved copy of td: same values, no id or timestamps,
// and the name prefixed with "Copy of " unless it already is.
func (td TestData) Draft() CreateTestDataInput {
	name := td.Name
	if !strings.HasPrefix(name, CopyPrefix) {
		name = CopyPrefix + name
	}
	productID, moduleID, categoryID := td.ProductID, td.ModuleID, td.CategoryID
	return CreateTestDataInput{
		Name:        name,
		Description: td.Description,
		ProductID:   &productID,
		ModuleID:    &moduleID,
		CategoryID:  &categoryID,
		TestData:    td.TestData,
		Expected:    td.Expected,
	}
}

// CreateTestDataInput is the JSON body for POST /test-data. References are
// pointers because forms hold them empty until chosen; the server rejects
// a missing reference.
type CreateTestDataInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ProductID   *string `json:"product_id"`
	ModuleID    *string `json:"module_id"`
	CategoryID  *string `json:"category_id"`
	TestData    string  `json:"test_data"`
	Expected    string  `json:"expected"`
}

// UpdateTestDataInput is a partial update.
type UpdateTestDataInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	ProductID   *string `json:"product_id,omitempty"`
	ModuleID    *string `json:"module_id,omitempty"`
	CategoryID  *string `json:"category_id,omitempty"`
	TestData    *string `json:"test_data,omitempty"`
	Expected    *string `json:"expected,omitempty"`
}

// Apply returns td with the non-nil fields of u applied.
func (u UpdateTestDataInput) Apply(td TestData) TestData {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&td.Name, u.Name)
	set(&td.Description, u.Description)
	set(&td.ProductID, u.ProductID)
	set(&td.ModuleID, u.ModuleID)
	set(&td.CategoryID, u.CategoryID)
	set(&td.TestData, u.TestData)
	set(&td.Expected, u.Expected)
	return td
}

// Filter selects test data. Empty fields do not restrict.
type Filter struct {
	ProductID  string `json:"product_id,omitempty"`
	ModuleID   string `json:"module_id,omitempty"`
	CategoryID string `json:"category_id,omitempty"`

	// Search is matched case-insensitively as a substring of name,
	// description, test_data or expected.
	Search string `json:"search,omitempty"`
}

// IsZero reports whether the filter selects everything.
func (f Filter) IsZero() bool { return f == Filter{} }

// Matches applies the filter to one row the same way the server query does.
func (f Filter) Matches(td TestData) bool {
	if f.ProductID != "" && td.ProductID != f.ProductID {
		return false
	}
	if f.ModuleID != "" && td.ModuleID != f.ModuleID {
		return false
	}
	if f.CategoryID != "" && td.CategoryID != f.CategoryID {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	for _, field := range []string{td.Name, td.Description, td.TestData, td.Expected} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Values encodes the filter as query parameters for GET /test-data.
func (f Filter) Values() url.Values {
	v := url.Values{}
	if f.ProductID != "" {
		v.Set("product_id", f.ProductID)
	}
	if f.ModuleID != "" {
		v.Set("module_id", f.ModuleID)
	}
	if f.CategoryID != "" {
		v.Set("category_id", f.CategoryID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		v.Set("search", s)
	}
	return v
}

// FilterFromValues is the inverse of Filter.Values.
func FilterFromValues(v url.Values) Filter {
	return Filter{
		ProductID:  v.Get("product_id"),
		ModuleID:   v.Get("module_id"),
		CategoryID: v.Get("category_id"),
		Search:     strings.TrimSpace(v.Get("search")),
	}
}
