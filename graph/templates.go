package graph

import (
	"sort"

	"github.com/google/uuid"

	apperrors "github.com/kbukum/flowforge/errors"
)

// Template is a named starter pipeline.
type Template struct {
	ID          string
	Name        string
	Description string
	build       func() *Graph
}

var templates = []Template{
	{
		ID:          "photo-import-by-date",
		Name:        "Photo Import: Rename by EXIF Date",
		Description: "Prefix photos with the date they were taken and copy them out.",
		build: func() *Graph {
			return Linear("Photo Import: Rename by EXIF Date",
				def("FolderInput", map[string]any{"path": "", "recursive": true, "filter": "*.jpg;*.jpeg;*.png"}),
				def("MetadataExtract", map[string]any{"keys": []any{"EXIF:DateTaken"}}),
				def("RenamePattern", map[string]any{"pattern": "{meta:EXIF:DateTaken}_{name}{ext}"}),
				def("FolderOutput", map[string]any{"path": "", "mode": "copy"}),
			)
		},
	},
	{
		ID:          "batch-sequential-rename",
		Name:        "Batch Sequential Rename",
		Description: "Number every file 001, 002, ... in name order.",
		build: func() *Graph {
			return Linear("Batch Sequential Rename",
				def("FolderInput", map[string]any{"path": "", "filter": "*"}),
				def("RenamePattern", map[string]any{"pattern": "{counter:000}{ext}", "startIndex": 1}),
				def("FolderOutput", map[string]any{"path": "", "mode": "copy"}),
			)
		},
	},
	{
		ID:          "image-web-export",
		Name:        "Image Web Export",
		Description: "Shrink JPEGs to at most 1920px wide and write them as PNG.",
		build: func() *Graph {
			return Linear("Image Web Export",
				def("FolderInput", map[string]any{"path": "", "filter": "*.jpg;*.jpeg;*.png"}),
				def("Filter", map[string]any{"conditions": []any{
					map[string]any{"field": "extension", "operator": "equals", "value": ".jpg"},
				}}),
				def("ImageResize", map[string]any{"width": 1920, "mode": "max"}),
				def("ImageConvert", map[string]any{"format": "png"}),
				def("FolderOutput", map[string]any{"path": "", "mode": "copy"}),
			)
		},
	},
	{
		ID:          "bulk-image-compress",
		Name:        "Bulk Image Compress",
		Description: "Re-encode JPEGs at quality 80.",
		build: func() *Graph {
			return Linear("Bulk Image Compress",
				def("FolderInput", map[string]any{"path": "", "filter": "*.jpg;*.jpeg"}),
				def("Filter", map[string]any{"conditions": []any{
					map[string]any{"field": "extension", "operator": "equals", "value": ".jpg"},
				}}),
				def("ImageCompress", map[string]any{"quality": 80}),
				def("FolderOutput", map[string]any{"path": "", "mode": "copy"}),
			)
		},
	},
}

func def(typeKey string, config map[string]any) NodeDefinition {
	return NodeDefinition{TypeKey: typeKey, Config: config}
}

// Templates lists the built-in templates sorted by id.
func Templates() []Template {
	out := append([]Template(nil), templates...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FromTemplate returns a fresh copy of a template. Graph and node ids are
// newly generated on every call; connections are remapped to the new ids.
func FromTemplate(id string) (*Graph, error) {
	for _, t := range templates {
		if t.ID == id {
			return reassignIDs(t.build()), nil
		}
	}
	return nil, apperrors.NotFound("template", id)
}

func reassignIDs(src *Graph) *Graph {
	g := src.Clone()
	g.ID = uuid.NewString()

	remap := make(map[string]string, len(g.Nodes))
	for i := range g.Nodes {
		newID := uuid.NewString()
		remap[g.Nodes[i].ID] = newID
		g.Nodes[i].ID = newID
	}

	conns := g.Connections[:0]
	for _, c := range g.Connections {
		from, okFrom := remap[c.FromNode]
		to, okTo := remap[c.ToNode]
		if !okFrom || !okTo {
			continue
		}
		c.FromNode, c.ToNode = from, to
		conns = append(conns, c)
	}
	g.Connections = conns
	return g
}
