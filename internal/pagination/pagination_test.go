package pagination

import "testing"

func TestPaginateSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	t.Run("defaults", func(t *testing.T) {
		resp := PaginateSlice(items, PageRequest{})
		if resp.Page != 1 || resp.PageSize != 20 {
			t.Errorf("expected defaults page=1 size=20, got page=%d size=%d", resp.Page, resp.PageSize)
		}
		if len(resp.Data) != 5 {
			t.Errorf("expected all 5 items, got %d", len(resp.Data))
		}
		if resp.TotalItems != 5 || resp.TotalPages != 1 {
			t.Errorf("expected 5 items in 1 page, got %d in %d", resp.TotalItems, resp.TotalPages)
		}
	})

	t.Run("middle_page", func(t *testing.T) {
		resp := PaginateSlice(items, PageRequest{Page: 2, PageSize: 2})
		if len(resp.Data) != 2 || resp.Data[0] != 3 || resp.Data[1] != 4 {
			t.Errorf("expected [3 4], got %v", resp.Data)
		}
		if resp.TotalPages != 3 {
			t.Errorf("expected 3 pages, got %d", resp.TotalPages)
		}
	})

	t.Run("past_the_end", func(t *testing.T) {
		resp := PaginateSlice(items, PageRequest{Page: 9, PageSize: 2})
		if len(resp.Data) != 0 {
			t.Errorf("expected empty page, got %v", resp.Data)
		}
		if resp.TotalItems != 5 {
			t.Errorf("expected total 5, got %d", resp.TotalItems)
		}
	})

	t.Run("empty_slice", func(t *testing.T) {
		resp := PaginateSlice([]int{}, PageRequest{})
		if len(resp.Data) != 0 || resp.TotalItems != 0 || resp.TotalPages != 0 {
			t.Errorf("expected empty response, got %+v", resp)
		}
	})
}
