package schedule

import "github.com/trezcool/igreja/core"

func init() {
	core.RegisterEnumValidation(core.Validate, core.Translator, "recurrence", "recorrência inválida", Recurrences)
}
