package board

import "github.com/trezcool/igreja/core"

func init() {
	core.RegisterEnumValidation(core.Validate, core.Translator, "posttype", "tipo de publicação inválido", Types)
	core.RegisterEnumValidation(core.Validate, core.Translator, "audience", "destinatário inválido", Audiences)
}
