package domain

// PageSet is an insertion-order-preserving mapping from normalized URL
// to PageRecord. Discovery order is significant: the first inserted
// page is the crawl's start page, and several tie-breaks downstream
// depend on stable iteration order, which a plain map cannot give.
type PageSet struct {
	order []string
	pages map[string]*PageRecord
}

func NewPageSet() *PageSet {
	return &PageSet{pages: make(map[string]*PageRecord)}
}

// Put inserts or replaces a page. A replaced page keeps its original
// position in the order.
func (s *PageSet) Put(page *PageRecord) {
	if _, ok := s.pages[page.URL]; !ok {
		s.order = append(s.order, page.URL)
	}
	s.pages[page.URL] = page
}

func (s *PageSet) Get(url string) (*PageRecord, bool) {
	p, ok := s.pages[url]
	return p, ok
}

func (s *PageSet) Has(url string) bool {
	_, ok := s.pages[url]
	return ok
}

func (s *PageSet) Len() int {
	return len(s.order)
}

// URLs returns the page URLs in insertion order. The returned slice is
// a copy and safe to retain.
func (s *PageSet) URLs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// First returns the first inserted page, the crawl's start page.
func (s *PageSet) First() (*PageRecord, bool) {
	if len(s.order) == 0 {
		return nil, false
	}
	return s.pages[s.order[0]], true
}

// Range calls fn for each page in insertion order until fn returns
// false.
func (s *PageSet) Range(fn func(url string, page *PageRecord) bool) {
	for _, u := range s.order {
		if !fn(u, s.pages[u]) {
			return
		}
	}
}
