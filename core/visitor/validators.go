package visitor

import "github.com/trezcool/igreja/core"

func init() {
	core.RegisterEnumValidation(core.Validate, core.Translator, "flowtrigger", "gatilho inválido", Triggers)
	core.RegisterEnumValidation(core.Validate, core.Translator, "flowaction", "tipo de ação inválido", ActionTypes)
}
