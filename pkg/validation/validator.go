package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	giftCardCodePattern = regexp.MustCompile(`^[0-9a-f]{8}$`)
)

// Get returns the shared validator with the gift card tags registered
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		// decimals are validated through their string form
		validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				return d.String()
			}
			return nil
		}, decimal.Decimal{})

		_ = validate.RegisterValidation("decimal_gt0", decimalCompare(func(d decimal.Decimal) bool { return d.IsPositive() }))
		_ = validate.RegisterValidation("decimal_gte0", decimalCompare(func(d decimal.Decimal) bool { return !d.IsNegative() }))
		_ = validate.RegisterValidation("giftcard_code", func(fl validator.FieldLevel) bool {
			return giftCardCodePattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("calculator_type", func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case "", "capped", "flat", "percentage":
				return true
			}
			return false
		})
	})
	return validate
}

func decimalCompare(ok func(decimal.Decimal) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		return ok(d)
	}
}

// ValidateStruct validates s and returns a *ValidationError on failure
func ValidateStruct(s interface{}) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return NewValidationError(verrs)
	}
	return err
}

// IsGiftCardCode reports whether code has the shape of a generated code
func IsGiftCardCode(code string) bool {
	return giftCardCodePattern.MatchString(code)
}
