package client

import (
	"context"
	"time"

	"github.com/keyxmakerx/qollect/internal/client/optimistic"
	"github.com/keyxmakerx/qollect/internal/plugins/testdata"
)

// CreateTestData adds a test case at the head of the feed and swaps in
// the stored row once the server answers. A row outside the current
// filter is saved but not shown.
func (s *Session) CreateTestData(ctx context.Context, in testdata.CreateTestDataInput) (testdata.TestData, error) {
	tmp := s.newTempID()
	local := testdata.TestData{
		ID:          tmp,
		Name:        in.Name,
		Description: in.Description,
		ProductID:   deref(in.ProductID),
		ModuleID:    deref(in.ModuleID),
		CategoryID:  deref(in.CategoryID),
		TestData:    in.TestData,
		Expected:    in.Expected,
		CreatedAt:   time.Now().UTC(),
	}
	td, err := s.testDataOps.Execute(ctx, optimistic.Mutation[testdata.TestData]{
		Op: optimistic.OpCreate,
		ID: tmp,
		Local: func(testdata.TestData, bool) (testdata.TestData, bool) {
			return local, s.feed.Current().Matches(local)
		},
		Remote: func(ctx context.Context) (testdata.TestData, error) {
			return s.backend.TestData.Create(ctx, in)
		},
	})
	if err != nil {
		return td, err
	}
	s.dropIfFiltered(td)
	return td, nil
}

// UpdateTestData applies a partial update.
func (s *Session) UpdateTestData(ctx context.Context, id string, in testdata.UpdateTestDataInput) (testdata.TestData, error) {
	td, err := s.testDataOps.Update(ctx, id, in.Apply, func(ctx context.Context) (testdata.TestData, error) {
		return s.backend.TestData.Update(ctx, id, in)
	})
	if err != nil {
		return td, err
	}
	s.dropIfFiltered(td)
	return td, nil
}

// DeleteTestData removes a test case permanently.
func (s *Session) DeleteTestData(ctx context.Context, id string) error {
	return s.testDataOps.Delete(ctx, id, nil, func(ctx context.Context) error {
		return s.backend.TestData.HardDelete(ctx, id)
	})
}

// CopyTestData returns an unsaved draft of a loaded test case, named
// "Copy of ...". Save it with CreateTestData.
func (s *Session) CopyTestData(id string) (testdata.CreateTestDataInput, error) {
	td, ok := s.testData.Get(id)
	if !ok {
		return testdata.CreateTestDataInput{}, &optimistic.MutationError{
			Entity: "test data", ID: id, Op: optimistic.OpCreate, Err: optimistic.ErrNotLoaded,
		}
	}
	return td.Draft(), nil
}

// dropIfFiltered keeps the feed consistent with its filter after a write.
func (s *Session) dropIfFiltered(td testdata.TestData) {
	if !s.feed.Current().Matches(td) {
		s.testData.Remove(td.ID)
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
