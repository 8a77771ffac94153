package lead

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/leadsync/internal/coerce"
	"github.com/hpungsan/leadsync/internal/csvio"
	"github.com/hpungsan/leadsync/internal/errors"
	"github.com/hpungsan/leadsync/internal/field"
	"github.com/hpungsan/leadsync/internal/logging"
)

// DefaultGenericValue is the flat estimated value of generic leads.
const DefaultGenericValue = 5000

// genericCategories maps keyword categories to the canonical column a
// generic file's header feeds.
var genericCategories = map[string]string{
	field.CatName:      ColName,
	field.CatFirstName: ColFirstName,
	field.CatLastName:  ColLastName,
	field.CatTitle:     ColTitle,
	field.CatCompany:   ColCompany,
	field.CatEmail:     ColEmail,
	field.CatPhone:     ColPhone,
	field.CatIndustry:  ColIndustry,
}

// Plan is a layout resolved against one file's header row.
type Plan struct {
	Format     Format
	Source     string
	Headerless bool

	header       []string
	index        map[string]int // canonical column -> position
	emailBackup  int
	phoneBackup  int
	revenue      int
	defaultValue int
	joinName     bool
	consumed     map[int]bool
}

// NewPlan resolves format against header. Known formats fail with
// MISSING_COLUMNS when a required header is absent.
func NewPlan(format Format, fileName string, header []string, genericValue int) (*Plan, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}

	p := &Plan{
		Format:      format,
		header:      header,
		index:       make(map[string]int),
		emailBackup: -1,
		phoneBackup: -1,
		revenue:     -1,
		consumed:    make(map[int]bool),
	}
	use := func(col string, i int) {
		p.index[col] = i
		p.consumed[i] = true
	}
	lookup := func(h string) int {
		if i, ok := pos[h]; ok && h != "" {
			p.consumed[i] = true
			return i
		}
		return -1
	}

	layout, known := Layouts[format]
	if !known {
		p.Format = FormatGeneric
		p.Source = GenericSource(fileName)
		p.defaultValue = genericValue
		if p.defaultValue <= 0 {
			p.defaultValue = DefaultGenericValue
		}
		for i, h := range header {
			cat, ok := field.Columns.Classify(h)
			if !ok {
				continue
			}
			col, ok := genericCategories[cat]
			if !ok {
				continue
			}
			if _, taken := p.index[col]; !taken {
				use(col, i)
			}
		}
		return p, nil
	}

	var missing []string
	for _, h := range layout.Required {
		if _, ok := pos[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewMissingColumns(fileName, missing)
	}

	p.Source = layout.Source
	p.defaultValue = layout.DefaultValue
	p.joinName = layout.JoinName
	for col, h := range layout.Columns {
		if i := lookup(h); i >= 0 {
			use(col, i)
		}
	}
	p.emailBackup = lookup(layout.EmailBackup)
	p.phoneBackup = lookup(layout.PhoneBackup)
	p.revenue = lookup(layout.Revenue)
	return p, nil
}

// Columns returns the header feeding each canonical column.
func (p *Plan) Columns() map[string]string {
	out := make(map[string]string, len(p.index))
	for col, i := range p.index {
		out[col] = p.header[i]
	}
	return out
}

// Normalize converts one data row. A row with more non-empty cells than
// the header has columns cannot be aligned; it yields a record carrying
// only the source label, plus an error.
func (p *Plan) Normalize(row []string) (Record, error) {
	if len(row) > len(p.header) {
		for _, cell := range row[len(p.header):] {
			if strings.TrimSpace(cell) != "" {
				return p.empty(), fmt.Errorf("row has %d cells, header has %d", len(row), len(p.header))
			}
		}
	}
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return field.Clean(row[i])
	}
	get := func(col string) string {
		i, ok := p.index[col]
		if !ok {
			return ""
		}
		return cell(i)
	}

	r := Record{
		FirstName: get(ColFirstName),
		LastName:  get(ColLastName),
		Title:     get(ColTitle),
		Company:   StandardizeCompany(get(ColCompany)),
		Source:    p.Source,
		Industry:  get(ColIndustry),
	}

	if !p.joinName {
		r.Name = get(ColName)
	}
	if r.Name == "" {
		r.Name = strings.TrimSpace(r.FirstName + " " + r.LastName)
	}

	r.Email = firstValid(coerce.Email, get(ColEmail), cell(p.emailBackup))
	r.Phone = firstValid(coerce.Phone, get(ColPhone), cell(p.phoneBackup))

	if r.Industry == "" {
		r.Industry = field.InferIndustry(field.Industries, p.Source)
	}

	revenue := 0.0
	if raw := cell(p.revenue); raw != "" {
		revenue = coerce.Currency(raw)
	}
	r.EstimatedValue = EstimateValue(revenue, p.defaultValue)

	for i, h := range p.header {
		if p.consumed[i] || strings.TrimSpace(h) == "" {
			continue
		}
		if v := cell(i); v != "" {
			if r.Extra == nil {
				r.Extra = make(map[string]string)
			}
			r.Extra[h] = v
		}
	}
	return r, nil
}

func (p *Plan) empty() Record {
	return Record{Source: p.Source}
}

func firstValid(clean func(string) (string, bool), candidates ...string) string {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if v, ok := clean(c); ok {
			return v
		}
	}
	return ""
}

var twoWordsRegex = regexp.MustCompile(`^[A-Za-z]+ [A-Za-z]+$`)

// labelWords mark a two-word cell as a column label even when it matches no
// column keyword, e.g. "Record ID" or "Deal Owner".
var labelWords = map[string]bool{
	"id": true, "owner": true, "date": true, "created": true, "modified": true,
	"updated": true, "record": true, "deal": true, "stage": true, "type": true,
	"number": true, "time": true, "count": true, "score": true, "code": true,
}

// looksHeaderless reports whether a header row holds person names rather
// than labels: one of its first five cells is two alphabetic words that
// match no column keyword and contain no label word.
func looksHeaderless(header []string) bool {
	for i, h := range header {
		if i >= 5 {
			break
		}
		h = strings.TrimSpace(h)
		if !twoWordsRegex.MatchString(h) || hasLabelWord(h) {
			continue
		}
		if _, ok := field.Columns.Classify(h); !ok {
			return true
		}
	}
	return false
}

func hasLabelWord(cell string) bool {
	for _, w := range strings.Fields(strings.ToLower(cell)) {
		if labelWords[w] {
			return true
		}
	}
	return false
}

// positionalHeader names the columns of a headerless file.
func positionalHeader(n int) []string {
	header := make([]string, n)
	for i := range header {
		if i < len(headerlessColumns) {
			header[i] = headerlessColumns[i]
		} else {
			header[i] = fmt.Sprintf("col_%d", i)
		}
	}
	return header
}

// FileResult is the outcome of normalizing one file.
type FileResult struct {
	Path       string   `json:"path"`
	Format     Format   `json:"format"`
	Source     string   `json:"source"`
	Encoding   string   `json:"encoding"`
	Headerless bool     `json:"headerless"`
	Records    []Record `json:"-"`
	Rows       int      `json:"rows"`
	RowErrors  int      `json:"row_errors"`
}

// Normalizer turns source files into lead records.
type Normalizer struct {
	genericValue int
	logger       *zap.Logger
}

// NewNormalizer returns a Normalizer. genericValue is the flat value of
// generic leads; non-positive uses DefaultGenericValue.
func NewNormalizer(genericValue int, logger *zap.Logger) *Normalizer {
	if genericValue <= 0 {
		genericValue = DefaultGenericValue
	}
	return &Normalizer{genericValue: genericValue, logger: logging.OrNop(logger)}
}

// NormalizeFile reads path and normalizes it. An empty format is detected
// from the file name.
func (n *Normalizer) NormalizeFile(path string, format Format) (*FileResult, error) {
	t, err := csvio.ReadFile(path)
	if err != nil {
		return nil, errors.NewFileUnreadable(path, err)
	}
	if format == "" {
		format = DetectFormat(path)
	}
	res, err := n.NormalizeTable(path, format, t)
	if err != nil {
		return nil, err
	}
	res.Encoding = t.Encoding
	return res, nil
}

// NormalizeTable normalizes an already parsed table.
// Every data row yields exactly one record, in order.
func (n *Normalizer) NormalizeTable(path string, format Format, t *csvio.Table) (*FileResult, error) {
	fileName := filepath.Base(path)
	log := n.logger.With(zap.String("file", fileName))

	header, rows := t.Header, t.Rows
	headerless := false
	if _, known := Layouts[format]; !known && looksHeaderless(header) {
		headerless = true
		rows = append([][]string{header}, rows...)
		width := len(header)
		for _, r := range rows {
			if len(r) > width {
				width = len(r)
			}
		}
		header = positionalHeader(width)
		log.Info("header row looks like data; reading file positionally")
	}

	plan, err := NewPlan(format, fileName, header, n.genericValue)
	if err != nil {
		return nil, err
	}
	plan.Headerless = headerless

	res := &FileResult{
		Path:       path,
		Format:     plan.Format,
		Source:     plan.Source,
		Headerless: headerless,
		Records:    make([]Record, 0, len(rows)),
		Rows:       len(rows),
	}
	for i, row := range rows {
		rec, err := plan.Normalize(row)
		if err != nil {
			res.RowErrors++
			log.Error("row could not be normalized", zap.Int("row", i+1), zap.Error(err))
		}
		res.Records = append(res.Records, rec)
	}

	log.Info("file normalized",
		zap.String("format", string(res.Format)),
		zap.Int("rows", res.Rows),
		zap.Int("row_errors", res.RowErrors),
	)
	return res, nil
}
