package notification

import "github.com/trezcool/igreja/core"

func init() {
	core.RegisterEnumValidation(core.Validate, core.Translator, "notificationtype", "tipo de notificação inválido", Types)
	core.RegisterEnumValidation(core.Validate, core.Translator, "priority", "prioridade inválida", Priorities)
}
