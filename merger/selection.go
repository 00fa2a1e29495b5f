package merger

import (
	"fmt"
	"strconv"
	"strings"
)

// PageSelection is either every page of a source or an explicit ordered list of
// 1-based page numbers. Duplicates and arbitrary order are allowed. The zero value
// selects every page.
type PageSelection struct {
	explicit bool
	pages    []int
}

// AllPages selects every page in ascending order.
func AllPages() PageSelection { return PageSelection{} }

// Pages selects the given pages in the given order.
func Pages(pages ...int) PageSelection {
	return PageSelection{explicit: true, pages: append([]int{}, pages...)}
}

// All reports whether the selection is the "all pages" sentinel.
func (s PageSelection) All() bool { return !s.explicit }

// Numbers returns a copy of the explicit page list (nil for all pages).
func (s PageSelection) Numbers() []int {
	if !s.explicit {
		return nil
	}
	return append([]int{}, s.pages...)
}

// Validate checks that an explicit list is non-empty and strictly positive.
func (s PageSelection) Validate() error {
	if !s.explicit {
		return nil
	}
	if len(s.pages) == 0 {
		return fmt.Errorf("%w: empty page list", ErrValidation)
	}
	for _, p := range s.pages {
		if p < 1 {
			return fmt.Errorf("%w: page number %d is not positive", ErrValidation, p)
		}
	}
	return nil
}

// resolve expands the selection against a source with count pages.
func (s PageSelection) resolve(source string, count int) ([]int, error) {
	if !s.explicit {
		pages := make([]int, count)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages, nil
	}
	for _, p := range s.pages {
		if p < 1 || p > count {
			return nil, &PageNotFoundError{Source: source, Page: p, Count: count}
		}
	}
	return s.pages, nil
}

func (s PageSelection) String() string {
	if !s.explicit {
		return "all"
	}
	parts := make([]string, len(s.pages))
	for i, p := range s.pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

// ParsePages parses "all" (or an empty string) and comma separated page numbers and
// ranges such as "1-3,7,2". A descending range like "5-3" yields 5,4,3.
func ParsePages(spec string) (PageSelection, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" || strings.EqualFold(spec, "all") {
		return AllPages(), nil
	}
	var pages []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		from, err := parsePageNumber(lo)
		if err != nil {
			return PageSelection{}, err
		}
		if !isRange {
			pages = append(pages, from)
			continue
		}
		to, err := parsePageNumber(hi)
		if err != nil {
			return PageSelection{}, err
		}
		step := 1
		if to < from {
			step = -1
		}
		for p := from; ; p += step {
			pages = append(pages, p)
			if p == to {
				break
			}
		}
	}
	sel := Pages(pages...)
	return sel, sel.Validate()
}

func parsePageNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a page number", ErrValidation, s)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: page number %d is not positive", ErrValidation, n)
	}
	return n, nil
}
