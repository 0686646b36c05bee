package catalog

import (
	"github.com/mathiasdan123/billalloc/internal/model"
	"github.com/mathiasdan123/billalloc/internal/normalize"
)

// defaultCode is the general-purpose fallback code preferred when present in
// the supplied catalog (therapeutic activities).
const defaultCode = "97530"

// Catalog wraps the practice's supplied code list with normalized lookups.
// Every recommended line item must resolve through one of these codes.
type Catalog struct {
	codes  []model.Code
	byCode map[string]model.Code
}

// New builds a Catalog from the supplied codes. Code strings are normalized;
// on duplicates the first occurrence wins.
func New(codes []model.Code) *Catalog {
	c := &Catalog{
		codes:  make([]model.Code, 0, len(codes)),
		byCode: make(map[string]model.Code, len(codes)),
	}
	for _, code := range codes {
		norm := normalize.Code(code.Code)
		if norm == "" {
			continue
		}
		if _, dup := c.byCode[norm]; dup {
			continue
		}
		code.Code = norm
		c.byCode[norm] = code
		c.codes = append(c.codes, code)
	}
	return c
}

// ByCode looks up a code by its normalized string.
func (c *Catalog) ByCode(code string) (model.Code, bool) {
	got, ok := c.byCode[normalize.Code(code)]
	return got, ok
}

// Codes returns the catalog's codes in supplied order.
func (c *Catalog) Codes() []model.Code {
	out := make([]model.Code, len(c.codes))
	copy(out, c.codes)
	return out
}

// Len reports the number of usable codes.
func (c *Catalog) Len() int {
	return len(c.codes)
}

// Default returns the catalog's general-purpose code: 97530 when present,
// otherwise the first supplied code. ok is false only for an empty catalog.
func (c *Catalog) Default() (model.Code, bool) {
	if code, ok := c.byCode[defaultCode]; ok {
		return code, true
	}
	if len(c.codes) > 0 {
		return c.codes[0], true
	}
	return model.Code{}, false
}
