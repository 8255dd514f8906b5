// Package transform provides the built-in file transforms: filtering,
// sorting, renaming and metadata extraction.
package transform

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/flowforge/job"
	"github.com/kbukum/flowforge/node"
	"github.com/kbukum/flowforge/nodes/internal/check"
	"github.com/kbukum/flowforge/nodes/internal/fsutil"
	"github.com/kbukum/flowforge/validation"
)

// Type keys of the built-in transforms.
const (
	TypeFilter          = "Filter"
	TypeSort            = "Sort"
	TypeRenamePattern   = "RenamePattern"
	TypeRenameRegex     = "RenameRegex"
	TypeRenameAddAffix  = "RenameAddAffix"
	TypeMetadataExtract = "MetadataExtract"
)

// File attributes a Filter or Sort can inspect.
const (
	FieldExtension  = "extension"
	FieldFilename   = "filename"
	FieldSize       = "size"
	FieldCreatedAt  = "createdat"
	FieldModifiedAt = "modifiedat"
)

var fileFields = []string{FieldExtension, FieldFilename, FieldSize, FieldCreatedAt, FieldModifiedAt}

// Filter operators.
const (
	OpEquals      = "equals"
	OpNotEquals   = "notequals"
	OpContains    = "contains"
	OpStartsWith  = "startswith"
	OpEndsWith    = "endswith"
	OpGreaterThan = "greaterthan"
	OpLessThan    = "lessthan"
	OpMatches     = "matches"
)

var operators = []string{OpEquals, OpNotEquals, OpContains, OpStartsWith, OpEndsWith, OpGreaterThan, OpLessThan, OpMatches}

// Condition is one test of a Filter.
type Condition struct {
	Field    string `mapstructure:"field"`
	Operator string `mapstructure:"operator"`
	Value    string `mapstructure:"value"`

	re *regexp.Regexp
}

// Filter passes a job when every condition holds and drops it as Skipped
// otherwise.
type Filter struct {
	conditions []Condition
}

var _ node.Transform = (*Filter)(nil)

// FilterRegistration describes Filter for a node registry.
func FilterRegistration() node.Registration {
	return node.Registration{
		TypeKey:     TypeFilter,
		DisplayName: "Filter",
		Description: "Keeps only files matching every condition.",
		Category:    node.CategoryTransform,
		Schema: node.Schema{
			{Key: "conditions", Kind: node.KindObjectList, Label: "Conditions", Required: true},
		},
		Factory: func() node.Node { return node.NewTransform(&Filter{}) },
	}
}

func (f *Filter) TypeKey() string { return TypeFilter }

func (f *Filter) Configure(v node.Values) error {
	var conditions []Condition
	if err := v.Decode("conditions", &conditions); err != nil {
		return err
	}

	errs := validation.New()
	errs.Custom(len(conditions) > 0, "conditions", "must contain at least one condition")
	for i := range conditions {
		c := &conditions[i]
		c.Field = strings.ToLower(strings.TrimSpace(c.Field))
		c.Operator = strings.ToLower(strings.TrimSpace(c.Operator))
		prefix := fmt.Sprintf("conditions[%d]", i)

		errs.Required(prefix+".field", c.Field).OneOf(prefix+".field", c.Field, fileFields)
		errs.Required(prefix+".operator", c.Operator).OneOf(prefix+".operator", c.Operator, operators)
		if c.Operator == OpMatches {
			re, err := regexp.Compile("(?i)" + c.Value)
			if err != nil {
				errs.AddError(prefix+".value", "invalid regular expression: "+err.Error())
				continue
			}
			c.re = re
		}
	}
	if errs.HasErrors() {
		return check.Error(TypeFilter, errs)
	}
	f.conditions = conditions
	return nil
}

func (f *Filter) Transform(ctx context.Context, j *job.Job, _ bool) ([]*job.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, c := range f.conditions {
		if !c.holds(fieldValue(c.Field, j)) {
			j.Log("Filter: dropped")
			j.Skip()
			return nil, nil
		}
	}
	j.Log("Filter: passed")
	return []*job.Job{j}, nil
}

func (c Condition) holds(actual string) bool {
	switch c.Operator {
	case OpEquals:
		return strings.EqualFold(actual, c.Value)
	case OpNotEquals:
		return !strings.EqualFold(actual, c.Value)
	case OpContains:
		return strings.Contains(strings.ToLower(actual), strings.ToLower(c.Value))
	case OpStartsWith:
		return strings.HasPrefix(strings.ToLower(actual), strings.ToLower(c.Value))
	case OpEndsWith:
		return strings.HasSuffix(strings.ToLower(actual), strings.ToLower(c.Value))
	case OpGreaterThan:
		return compareValues(actual, c.Value) > 0
	case OpLessThan:
		return compareValues(actual, c.Value) < 0
	case OpMatches:
		return c.re.MatchString(actual)
	}
	return false
}

// compareValues compares numerically when both sides parse as numbers and
// case-insensitively as strings otherwise.
func compareValues(a, b string) int {
	na, errA := strconv.ParseFloat(a, 64)
	nb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// fieldValue renders a file attribute as a string. A missing file has size
// "0" and empty dates.
func fieldValue(field string, j *job.Job) string {
	switch field {
	case FieldExtension:
		return j.Extension()
	case FieldFilename:
		return j.FileName()
	}

	info, ok := fsutil.Stat(j.CurrentPath)
	switch field {
	case FieldSize:
		return strconv.FormatInt(info.Size, 10)
	case FieldCreatedAt:
		if !ok {
			return ""
		}
		return info.CreatedAt.Format(time.RFC3339Nano)
	case FieldModifiedAt:
		if !ok {
			return ""
		}
		return info.ModifiedAt.Format(time.RFC3339Nano)
	}
	return ""
}
