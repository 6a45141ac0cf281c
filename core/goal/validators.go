package goal

import "github.com/trezcool/igreja/core"

func init() {
	core.RegisterEnumValidation(core.Validate, core.Translator, "goalstatus", "status de meta inválido", Statuses)
	core.RegisterEnumValidation(core.Validate, core.Translator, "metrictype", "tipo de medição inválido", MetricTypes)
	core.RegisterEnumValidation(core.Validate, core.Translator, "goalcategory", "categoria inválida", Categories)
}
