package core

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	monthTag  = "month"
	monthText = "{0} must be a calendar month name"

	maxAmountTag  = "max_amount"
	maxAmountText = "{0} is too large"

	requiredTag  = "required"
	requiredText = "this field is required"
)

// MaxAmount bounds a single amount, keeping running totals finite.
const MaxAmount = 1e12

// NewTranslator returns the english translator used for validation messages.
func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(monthTag, monthValidation)
	RegisterCustomTranslation(validate, translator, monthTag, monthText)

	_ = validate.RegisterValidation(maxAmountTag, maxAmountValidation)
	RegisterCustomTranslation(validate, translator, maxAmountTag, maxAmountText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

// maxAmountValidation rejects amounts above MaxAmount.
func maxAmountValidation(fl validator.FieldLevel) bool {
	return fl.Field().Float() <= MaxAmount
}

// monthValidation only allows calendar month names, in any case.
func monthValidation(fl validator.FieldLevel) bool {
	_, ok := ParseMonth(fl.Field().String())
	return ok
}
