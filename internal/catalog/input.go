package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrNotFound is returned when a product, history entry or favorite does not
// exist. Callers distinguish it from validation failures with errors.Is.
var ErrNotFound = errors.New("not found")

// ValidationError reports one or more rejected input fields.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + strings.Join(e.Fields, ", ")
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Input is the create/update payload accepted from callers. Zero-valued
// optional fields leave the corresponding product field unchanged on update.
type Input struct {
	Barcode   string  `json:"barcode" validate:"omitempty,numeric,max=100"`
	Name      string  `json:"name" validate:"required,max=500"`
	Retail    float64 `json:"retail" validate:"required,gt=0"`
	Wholesale float64 `json:"wholesale" validate:"omitempty,gte=0"`
	Unit      string  `json:"unit" validate:"omitempty,max=50"`
	Location  string  `json:"location" validate:"omitempty,max=200"`
	Image     string  `json:"image" validate:"omitempty,url"`
}

var validate = validator.New()

// Validate checks in against the field rules above and converts failures
// into a ValidationError naming each rejected field.
func (in Input) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate input: %w", err)
	}
	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.Fields = append(ve.Fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return ve
}

// NewProduct builds a Product from a validated Input, assigning an ID,
// deriving the slug and applying defaults (wholesale falls back to retail,
// unit falls back to DefaultUnit).
func NewProduct(in Input, now time.Time) (Product, error) {
	if err := in.Validate(); err != nil {
		return Product{}, err
	}
	p := Product{
		ID:       NewID(),
		Barcode:  in.Barcode,
		Name:     in.Name,
		Prices:   normalizePrices(in.Retail, in.Wholesale),
		Unit:     in.Unit,
		Location: in.Location,
		Image:    in.Image,
	}
	if p.Unit == "" {
		p.Unit = DefaultUnit
	}
	p.Reslug()
	p.Touch(now)
	return p, nil
}

// Apply merges a validated Input into an existing product, re-deriving the
// slug and advancing UpdatedAt.
func (p Product) Apply(in Input, now time.Time) (Product, error) {
	if err := in.Validate(); err != nil {
		return Product{}, err
	}
	p.Barcode = in.Barcode
	p.Name = in.Name
	p.Prices = normalizePrices(in.Retail, in.Wholesale)
	if in.Unit != "" {
		p.Unit = in.Unit
	}
	p.Location = in.Location
	if in.Image != "" {
		p.Image = in.Image
	}
	p.Reslug()
	p.Touch(now)
	return p, nil
}

// normalizePrices applies the documented wholesale fallback: non-positive or
// missing wholesale defaults to retail.
func normalizePrices(retail, wholesale float64) Prices {
	if wholesale <= 0 {
		wholesale = retail
	}
	return Prices{Retail: retail, Wholesale: wholesale}
}
