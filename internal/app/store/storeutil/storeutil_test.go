package storeutil

import "testing"

func TestPaginate(t *testing.T) {
	tests := []struct {
		name        string
		limit, page int64
		wantLimit   int64
		wantSkip    int64
	}{
		{"first page", 10, 1, 10, 0},
		{"third page", 10, 3, 10, 20},
		{"default limit", 0, 2, DefaultPageSize, DefaultPageSize},
		{"page below one", 5, 0, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Paginate(tt.limit, tt.page)
			if opts.Limit == nil || *opts.Limit != tt.wantLimit {
				t.Errorf("limit = %v, want %d", opts.Limit, tt.wantLimit)
			}
			if opts.Skip == nil || *opts.Skip != tt.wantSkip {
				t.Errorf("skip = %v, want %d", opts.Skip, tt.wantSkip)
			}
		})
	}
}
