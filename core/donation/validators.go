package donation

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kitabu/core"
)

var (
	ledgerKindTag  = "ledger_kind"
	ledgerKindText = "{0} must be one of: donation, fine"
)

// InitValidators registers the donation validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(ledgerKindTag, ledgerKindValidation)
	core.RegisterCustomTranslation(validate, translator, ledgerKindTag, ledgerKindText)
}

// ledgerKindValidation only allows the exact ledger kinds.
func ledgerKindValidation(fl validator.FieldLevel) bool {
	kind := fl.Field().String()
	for _, k := range Kinds {
		if kind == k {
			return true
		}
	}
	return false
}
