package agenda

import "github.com/trezcool/igreja/core"

func init() {
	core.RegisterEnumValidation(core.Validate, core.Translator, "agendatype", "tipo de compromisso inválido", Types)
}
