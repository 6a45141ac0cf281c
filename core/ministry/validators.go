package ministry

import "github.com/trezcool/igreja/core"

func init() {
	core.RegisterEnumValidation(core.Validate, core.Translator, "weekday", "dia da semana inválido", Weekdays)
}
