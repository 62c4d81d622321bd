package migrate

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/macterm/prefs-converter/converter/internal/domain"
)

// StoredResult is the record kept for the most recent run of each step.
type StoredResult struct {
	RunID        string
	FromVersion  int
	RunByVersion string
	StepResult
}

// HistoryStore keeps step results in their own domain, one record per step
// version.
type HistoryStore struct {
	store domain.Store
	name  string
}

func NewHistoryStore(store domain.Store, name string) *HistoryStore {
	return &HistoryStore{
		store: store,
		name:  name,
	}
}

func (h *HistoryStore) Domain() string {
	return h.name
}

func (h *HistoryStore) Key(version int) string {
	return "v" + strconv.Itoa(version)
}

func (h *HistoryStore) Put(ctx context.Context, item *StoredResult) error {
	fields := map[string]domain.Value{
		"run_id":            domain.String(item.RunID),
		"identifier":        domain.String(item.Identifier),
		"successful":        domain.Bool(item.Successful),
		"from_version":      domain.Int(int64(item.FromVersion)),
		"converter_version": domain.String(item.RunByVersion),
		"started_at":        domain.String(item.StartedAt.UTC().Format(time.RFC3339Nano)),
		"completed_at":      domain.String(item.CompletedAt.UTC().Format(time.RFC3339Nano)),
	}
	if len(item.Warnings) > 0 {
		fields["warnings"] = domain.StringList(item.Warnings...)
	}
	if item.Error != "" {
		fields["error"] = domain.String(item.Error)
	}
	return h.store.Write(ctx, h.name, h.Key(item.Version), domain.Record(fields))
}

// Get returns the stored result for a step version. It returns
// domain.ErrKeyNotFound if the step never ran.
func (h *HistoryStore) Get(ctx context.Context, version int) (*StoredResult, error) {
	value, err := h.store.Read(ctx, h.name, h.Key(version))
	if err != nil {
		return nil, err
	}
	fields, err := value.AsRecord()
	if err != nil {
		return nil, fmt.Errorf("history for version %d: %w", version, err)
	}
	r := &record{fields: fields}
	item := &StoredResult{
		RunID:        r.str("run_id"),
		FromVersion:  int(r.integer("from_version")),
		RunByVersion: r.str("converter_version"),
		StepResult: StepResult{
			Version:     version,
			Identifier:  r.str("identifier"),
			Successful:  r.boolean("successful"),
			Warnings:    r.list("warnings"),
			Error:       r.str("error"),
			StartedAt:   r.time("started_at"),
			CompletedAt: r.time("completed_at"),
		},
	}
	if err := errors.Join(r.errs...); err != nil {
		return nil, fmt.Errorf("history for version %d: %w", version, err)
	}
	return item, nil
}

// List returns the stored results in version order.
func (h *HistoryStore) List(ctx context.Context) ([]*StoredResult, error) {
	keys, err := h.store.ListKeys(ctx, h.name)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	var versions []int
	for _, k := range keys {
		n, ok := strings.CutPrefix(k, "v")
		if !ok {
			continue
		}
		v, err := strconv.Atoi(n)
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	slices.Sort(versions)

	out := make([]*StoredResult, 0, len(versions))
	for _, v := range versions {
		item, err := h.Get(ctx, v)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// record decodes optional record fields, collecting kind errors.
type record struct {
	fields map[string]domain.Value
	errs   []error
}

func (r *record) str(key string) string {
	v, ok := r.fields[key]
	if !ok {
		return ""
	}
	s, err := v.AsString()
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
	}
	return s
}

func (r *record) integer(key string) int64 {
	v, ok := r.fields[key]
	if !ok {
		return 0
	}
	i, err := v.AsInt()
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
	}
	return i
}

func (r *record) boolean(key string) bool {
	v, ok := r.fields[key]
	if !ok {
		return false
	}
	b, err := v.AsBool()
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
	}
	return b
}

func (r *record) list(key string) []string {
	v, ok := r.fields[key]
	if !ok {
		return nil
	}
	l, err := v.AsStringList()
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
	}
	return l
}

func (r *record) time(key string) time.Time {
	s := r.str(key)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
	}
	return t
}
