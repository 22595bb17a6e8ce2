package coupon

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Store looks up coupon rules by normalised code. Implementations return
// ErrNotFound for unknown codes.
type Store interface {
	Get(ctx context.Context, code string) (Rule, error)
}

// MemoryStore serves coupons from a fixed in-process catalog.
type MemoryStore struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

// NewMemoryStore builds a store from the given rules.
func NewMemoryStore(rules ...Rule) *MemoryStore {
	s := &MemoryStore{rules: make(map[string]Rule, len(rules))}
	for _, r := range rules {
		s.Put(r)
	}
	return s
}

// Put adds or replaces a rule.
func (s *MemoryStore) Put(r Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.Code = NormalizeCode(r.Code)
	s.rules[r.Code] = r
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, code string) (Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[NormalizeCode(code)]
	if !ok {
		return Rule{}, ErrNotFound
	}
	return r, nil
}

// ParseCatalog parses a comma separated list of CODE:kind:value[:minSpend]
// entries, e.g. "WELCOME10:percent:1000,SHIP5:fixed:500:2500".
func ParseCatalog(catalog string) ([]Rule, error) {
	var rules []Rule
	for _, entry := range strings.Split(catalog, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) < 3 || len(parts) > 4 {
			return nil, fmt.Errorf("coupon %q: want CODE:kind:value[:minSpend]", entry)
		}
		kind := strings.ToLower(strings.TrimSpace(parts[1]))
		if kind != KindPercent && kind != KindFixed {
			return nil, fmt.Errorf("coupon %q: unknown kind %q", entry, kind)
		}
		value, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 64)
		if err != nil || value <= 0 {
			return nil, fmt.Errorf("coupon %q: invalid value", entry)
		}
		if kind == KindPercent && value > 10000 {
			return nil, fmt.Errorf("coupon %q: percent value exceeds 10000 bps", entry)
		}
		r := Rule{Code: NormalizeCode(parts[0]), Kind: kind, Value: value}
		if len(parts) == 4 {
			minSpend, err := strconv.ParseInt(strings.TrimSpace(parts[3]), 10, 64)
			if err != nil || minSpend < 0 {
				return nil, fmt.Errorf("coupon %q: invalid minimum spend", entry)
			}
			r.MinSpend = minSpend
		}
		if r.Code == "" {
			return nil, fmt.Errorf("coupon %q: empty code", entry)
		}
		rules = append(rules, r)
	}
	return rules, nil
}
