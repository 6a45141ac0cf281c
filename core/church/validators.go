package church

import "github.com/trezcool/igreja/core"

func init() {
	codes := make([]string, 0, len(Plans))
	for code := range Plans {
		codes = append(codes, code)
	}
	core.RegisterEnumValidation(core.Validate, core.Translator, "plan", "plano inválido", codes)
}
