package discipleship

import "github.com/trezcool/igreja/core"

func init() {
	core.RegisterEnumValidation(core.Validate, core.Translator, "classstatus", "status de turma inválido", ClassStatuses)
	core.RegisterEnumValidation(core.Validate, core.Translator, "enrollmentstatus", "status de matrícula inválido", EnrollmentStatuses)
}
