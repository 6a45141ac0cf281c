package messaging

import "github.com/trezcool/igreja/core"

func init() {
	core.RegisterEnumValidation(core.Validate, core.Translator, "channel", "canal inválido", Channels)
}
