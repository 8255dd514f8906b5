package transform

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	apperrors "github.com/kbukum/flowforge/errors"
	"github.com/kbukum/flowforge/job"
	"github.com/kbukum/flowforge/node"
	"github.com/kbukum/flowforge/nodes/internal/check"
	"github.com/kbukum/flowforge/nodes/internal/fsutil"
	"github.com/kbukum/flowforge/validation"
)

// rename moves j to newPath. Under dry run only the job's path changes.
// With resolve set, an occupied target gets a "_<n>" suffix instead of
// failing the job.
func rename(j *job.Job, newPath string, dryRun, resolve bool) error {
	oldPath := j.CurrentPath
	if !dryRun && !fsutil.SamePath(oldPath, newPath) {
		if resolve {
			newPath = fsutil.ResolveConflict(newPath)
		}
		if err := fsutil.Rename(oldPath, newPath, false); err != nil {
			return err
		}
	}
	j.CurrentPath = newPath
	return nil
}

var tokenPattern = regexp.MustCompile(`\{(name|ext|counter|date|meta)(?::([^}]+))?\}`)

// RenamePattern renames files from a template of tokens:
// {name}, {ext}, {counter[:000]}, {date[:yyyy-MM-dd]} and {meta:<key>}.
type RenamePattern struct {
	pattern string
	counter atomic.Int64
	now     func() time.Time
}

var _ node.Transform = (*RenamePattern)(nil)

// RenamePatternRegistration describes RenamePattern for a node registry.
func RenamePatternRegistration() node.Registration {
	return node.Registration{
		TypeKey:     TypeRenamePattern,
		DisplayName: "Rename (Pattern)",
		Description: "Renames files from a pattern of {name}, {ext}, {counter}, {date} and {meta:key} tokens.",
		Category:    node.CategoryTransform,
		Schema: node.Schema{
			{Key: "pattern", Kind: node.KindString, Label: "Pattern", Required: true, Placeholder: "{counter:000}_{name}{ext}"},
			{Key: "startIndex", Kind: node.KindInt, Label: "Counter start", Default: 1},
		},
		Factory: func() node.Node { return node.NewTransform(&RenamePattern{}) },
	}
}

func (r *RenamePattern) TypeKey() string { return TypeRenamePattern }

func (r *RenamePattern) Configure(v node.Values) error {
	r.pattern = v.String("pattern")
	if strings.ContainsAny(r.pattern, `/\`) {
		return apperrors.NodeConfiguration(TypeRenamePattern, "pattern", "must not contain path separators")
	}
	start := 1
	if v.Has("startIndex") {
		start = v.Int("startIndex")
	}
	r.counter.Store(int64(start))
	if r.now == nil {
		r.now = time.Now
	}
	return nil
}

func (r *RenamePattern) Transform(ctx context.Context, j *job.Job, dryRun bool) ([]*job.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	oldName := j.FileName()
	n := r.counter.Add(1) - 1

	newName := tokenPattern.ReplaceAllStringFunc(r.pattern, func(tok string) string {
		m := tokenPattern.FindStringSubmatch(tok)
		format := m[2]
		switch m[1] {
		case "name":
			return j.Stem()
		case "ext":
			return filepath.Ext(j.CurrentPath)
		case "counter":
			return formatCounter(n, format)
		case "date":
			if format == "" {
				format = "yyyy-MM-dd"
			}
			return r.now().Format(goLayout(format))
		case "meta":
			return j.Metadata[format]
		}
		return tok
	})

	if err := rename(j, filepath.Join(j.Dir(), newName), dryRun, true); err != nil {
		return nil, err
	}
	j.Log(fmt.Sprintf("RenamePattern: '%s' -> '%s'", oldName, j.FileName()))
	return []*job.Job{j}, nil
}

// formatCounter pads n with zeros to the number of '0' placeholders in
// format, so "000" renders 7 as "007".
func formatCounter(n int64, format string) string {
	s := strconv.FormatInt(n, 10)
	width := strings.Count(format, "0")
	if pad := width - len(s); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}
	return s
}

var layoutReplacer = strings.NewReplacer(
	"yyyy", "2006",
	"yy", "06",
	"MM", "01",
	"dd", "02",
	"HH", "15",
	"hh", "03",
	"mm", "04",
	"ss", "05",
	"tt", "PM",
)

// goLayout accepts either a Go reference layout or a yyyy-MM-dd style
// format.
func goLayout(format string) string {
	if strings.Contains(format, "2006") {
		return format
	}
	return layoutReplacer.Replace(format)
}

// RenameRegex rewrites file names (or full paths) with a regular expression.
type RenameRegex struct {
	re          *regexp.Regexp
	replacement string
	fullPath    bool
}

var _ node.Transform = (*RenameRegex)(nil)

// RenameRegexRegistration describes RenameRegex for a node registry.
func RenameRegexRegistration() node.Registration {
	return node.Registration{
		TypeKey:     TypeRenameRegex,
		DisplayName: "Rename (Regex)",
		Description: "Rewrites file names with a regular expression replacement.",
		Category:    node.CategoryTransform,
		Schema: node.Schema{
			{Key: "pattern", Kind: node.KindString, Label: "Regex pattern", Required: true, Placeholder: `\d+`},
			{Key: "replacement", Kind: node.KindString, Label: "Replacement", Placeholder: "empty deletes the match"},
			{Key: "scope", Kind: node.KindString, Label: "Scope", Default: "filename", Options: []string{"filename", "fullpath"}},
		},
		Factory: func() node.Node { return node.NewTransform(&RenameRegex{}) },
	}
}

func (r *RenameRegex) TypeKey() string { return TypeRenameRegex }

func (r *RenameRegex) Configure(v node.Values) error {
	errs := validation.New()
	if errs.Pattern("pattern", v.String("pattern")).HasErrors() {
		return check.Error(TypeRenameRegex, errs)
	}
	r.re = regexp.MustCompile(v.String("pattern"))
	r.replacement = v.String("replacement")
	r.fullPath = strings.EqualFold(v.String("scope"), "fullpath")
	return nil
}

func (r *RenameRegex) Transform(ctx context.Context, j *job.Job, dryRun bool) ([]*job.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	oldName := j.FileName()

	var newPath string
	if r.fullPath {
		newPath = r.re.ReplaceAllString(j.CurrentPath, r.replacement)
	} else {
		newPath = filepath.Join(j.Dir(), r.re.ReplaceAllString(j.FileName(), r.replacement))
	}

	if err := rename(j, newPath, dryRun, false); err != nil {
		return nil, err
	}
	j.Log(fmt.Sprintf("RenameRegex: '%s' -> '%s'", oldName, j.FileName()))
	return []*job.Job{j}, nil
}

// RenameAddAffix wraps the file stem in a prefix and a suffix.
type RenameAddAffix struct {
	prefix string
	suffix string
}

var _ node.Transform = (*RenameAddAffix)(nil)

// RenameAddAffixRegistration describes RenameAddAffix for a node registry.
func RenameAddAffixRegistration() node.Registration {
	return node.Registration{
		TypeKey:     TypeRenameAddAffix,
		DisplayName: "Rename (Prefix/Suffix)",
		Description: "Adds a prefix and/or suffix to the file name, before the extension.",
		Category:    node.CategoryTransform,
		Schema: node.Schema{
			{Key: "prefix", Kind: node.KindString, Label: "Prefix"},
			{Key: "suffix", Kind: node.KindString, Label: "Suffix"},
		},
		Factory: func() node.Node { return node.NewTransform(&RenameAddAffix{}) },
	}
}

func (r *RenameAddAffix) TypeKey() string { return TypeRenameAddAffix }

func (r *RenameAddAffix) Configure(v node.Values) error {
	r.prefix = v.String("prefix")
	r.suffix = v.String("suffix")
	errs := validation.New()
	errs.Custom(r.prefix != "" || r.suffix != "", "prefix", "at least one of prefix or suffix is required")
	errs.Custom(!strings.ContainsAny(r.prefix+r.suffix, `/\`), "prefix", "must not contain path separators")
	if errs.HasErrors() {
		return check.Error(TypeRenameAddAffix, errs)
	}
	return nil
}

func (r *RenameAddAffix) Transform(ctx context.Context, j *job.Job, dryRun bool) ([]*job.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	oldName := j.FileName()
	newName := r.prefix + j.Stem() + r.suffix + filepath.Ext(j.CurrentPath)
	if err := rename(j, filepath.Join(j.Dir(), newName), dryRun, false); err != nil {
		return nil, err
	}
	j.Log(fmt.Sprintf("RenameAddAffix: '%s' -> '%s'", oldName, newName))
	return []*job.Job{j}, nil
}
