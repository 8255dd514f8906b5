package transform

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kbukum/flowforge/job"
	"github.com/kbukum/flowforge/node"
	"github.com/kbukum/flowforge/nodes/internal/fsutil"
)

// Sort buffers the whole batch and re-emits it ordered by a file attribute.
type Sort struct {
	field      string
	descending bool

	mu     sync.Mutex
	buffer []*job.Job
}

var _ node.Buffered = (*Sort)(nil)

// SortRegistration describes Sort for a node registry.
func SortRegistration() node.Registration {
	return node.Registration{
		TypeKey:     TypeSort,
		DisplayName: "Sort",
		Description: "Orders the whole batch by a file attribute.",
		Category:    node.CategoryTransform,
		Schema: node.Schema{
			{Key: "field", Kind: node.KindString, Label: "Sort by", Default: FieldFilename, Options: fileFields},
			{Key: "direction", Kind: node.KindString, Label: "Direction", Default: "asc", Options: []string{"asc", "desc"}},
		},
		Factory: func() node.Node { return node.NewBuffered(&Sort{}) },
	}
}

func (s *Sort) TypeKey() string { return TypeSort }

func (s *Sort) Configure(v node.Values) error {
	s.field = strings.ToLower(v.String("field"))
	if s.field == "" {
		s.field = FieldFilename
	}
	s.descending = strings.EqualFold(v.String("direction"), "desc")
	return nil
}

// Transform holds the job until Flush.
func (s *Sort) Transform(_ context.Context, j *job.Job, _ bool) ([]*job.Job, error) {
	s.mu.Lock()
	s.buffer = append(s.buffer, j)
	s.mu.Unlock()
	return nil, nil
}

// Flush returns the buffered jobs in order and empties the buffer. Ties keep
// their arrival order.
func (s *Sort) Flush(ctx context.Context) ([]*job.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	batch := s.buffer
	s.buffer = nil
	s.mu.Unlock()

	less := s.lessFunc(batch)
	sort.SliceStable(batch, func(a, b int) bool {
		if s.descending {
			return less(b, a)
		}
		return less(a, b)
	})

	direction := "asc"
	if s.descending {
		direction = "desc"
	}
	entry := fmt.Sprintf("Sort: ordered by %s %s", s.field, direction)
	for _, j := range batch {
		j.Log(entry)
	}
	return batch, nil
}

// lessFunc stats every file once up front; sorting never touches the disk.
func (s *Sort) lessFunc(batch []*job.Job) func(a, b int) bool {
	switch s.field {
	case FieldExtension:
		return func(a, b int) bool { return foldLess(batch[a].Extension(), batch[b].Extension()) }
	case FieldSize, FieldCreatedAt, FieldModifiedAt:
		infos := make(map[*job.Job]fsutil.Info, len(batch))
		for _, j := range batch {
			infos[j], _ = fsutil.Stat(j.CurrentPath)
		}
		switch s.field {
		case FieldSize:
			return func(a, b int) bool { return infos[batch[a]].Size < infos[batch[b]].Size }
		case FieldCreatedAt:
			return func(a, b int) bool { return infos[batch[a]].CreatedAt.Before(infos[batch[b]].CreatedAt) }
		default:
			return func(a, b int) bool { return infos[batch[a]].ModifiedAt.Before(infos[batch[b]].ModifiedAt) }
		}
	}
	return func(a, b int) bool { return foldLess(batch[a].FileName(), batch[b].FileName()) }
}

func foldLess(a, b string) bool {
	return strings.ToLower(a) < strings.ToLower(b)
}
