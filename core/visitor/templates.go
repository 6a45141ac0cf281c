package visitor

import (
	"strconv"
	"strings"
)

// Message template keys.
const (
	TemplateWelcome       = "boas_vindas"
	TemplateReturnInvite  = "convite_retorno"
	TemplateCellInvite    = "convite_celula"
	TemplateFirstFollowUp = "followup_primeiro"
	TemplateBirthday      = "aniversario"
)

var messageTemplates = map[string]string{
	TemplateWelcome: `🙏 Olá {nome}!

É uma grande alegria ter recebido você em nossa igreja! Esperamos que tenha se sentido acolhido(a).

Se tiver qualquer dúvida ou precisar de algo, estamos à disposição.

Que Deus abençoe sua semana! 🙌

- Equipe de Recepção`,

	TemplateReturnInvite: `🙏 Olá {nome}!

Sentimos sua falta! Já faz {dias} dias desde sua última visita.

Gostaríamos muito de revê-lo(a) em nossos cultos.

Será um prazer recebê-lo(a) novamente!

Um abraço carinhoso! ❤️`,

	TemplateCellInvite: `🙏 Olá {nome}!

Que bom que você tem nos visitado!

Gostaria de convidá-lo(a) para participar de uma de nossas células (grupos pequenos). É uma ótima oportunidade para fazer amizades e crescer na fé!

Posso te passar mais informações? 📱

Abraços!`,

	TemplateFirstFollowUp: `🙏 Olá {nome}!

Tudo bem? Passando para saber como você está e se tem alguma dúvida sobre nossa igreja.

Foi muito bom ter você conosco! 😊

Se precisar de oração ou quiser conversar, estou à disposição.

Abraços!`,

	TemplateBirthday: `🎂 Feliz Aniversário, {nome}! 🎉

Que Deus abençoe abundantemente sua vida neste novo ano!

Um forte abraço da família {igreja}! ❤️`,
}

// TemplateVars are the placeholders a visitor message can use.
type TemplateVars struct {
	Name   string // {nome}
	Days   int    // {dias}
	Church string // {igreja}
}

// Templates returns a copy of the built-in visitor message templates.
func Templates() map[string]string {
	out := make(map[string]string, len(messageTemplates))
	for k, v := range messageTemplates {
		out[k] = v
	}
	return out
}

// RenderMessage substitutes the placeholders of text.
func RenderMessage(text string, vars TemplateVars) string {
	return strings.NewReplacer(
		"{nome}", vars.Name,
		"{dias}", strconv.Itoa(vars.Days),
		"{igreja}", vars.Church,
	).Replace(text)
}

// RenderTemplate renders one of the built-in templates. Unknown keys render empty.
func RenderTemplate(key string, vars TemplateVars) string {
	return RenderMessage(messageTemplates[key], vars)
}
