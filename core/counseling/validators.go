package counseling

import "github.com/trezcool/igreja/core"

func init() {
	core.RegisterEnumValidation(core.Validate, core.Translator, "counselingtype", "tipo de aconselhamento inválido", Types)
	core.RegisterEnumValidation(core.Validate, core.Translator, "counselingstatus", "status inválido", Statuses)
}
