package event

import "github.com/trezcool/igreja/core"

func init() {
	core.RegisterEnumValidation(core.Validate, core.Translator, "eventtype", "tipo de evento inválido", Types)
}
