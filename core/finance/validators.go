package finance

import "github.com/trezcool/igreja/core"

func init() {
	core.RegisterEnumValidation(core.Validate, core.Translator, "donationtype", "tipo de doação inválido", Types)
	core.RegisterEnumValidation(core.Validate, core.Translator, "paymentmethod", "forma de pagamento inválida", PaymentMethods)
}
