package user

import "strings"

// Profiles
const (
	ProfileAdmin     = "ADMIN"
	ProfilePastor    = "PASTOR"
	ProfileLeader    = "LIDER"
	ProfileSecretary = "SECRETARIA"
	ProfileTreasurer = "FINANCEIRO"
)

const wildcard = "*"

var (
	AllProfiles = []string{ProfileAdmin, ProfilePastor, ProfileLeader, ProfileSecretary, ProfileTreasurer}

	Profiles = []Profile{
		{Name: "Administrador", Value: ProfileAdmin},
		{Name: "Pastor", Value: ProfilePastor},
		{Name: "Líder", Value: ProfileLeader},
		{Name: "Secretaria", Value: ProfileSecretary},
		{Name: "Financeiro", Value: ProfileTreasurer},
	}

	// permissions granted to each profile
	permissions = map[string][]string{
		ProfileAdmin: {wildcard},
		ProfilePastor: {
			"pessoas.ver", "pessoas.editar",
			"visitantes.ver", "visitantes.editar",
			"ministerios.ver", "ministerios.editar",
			"celulas.ver", "celulas.editar",
			"eventos.ver", "eventos.editar",
			"comunicacao.ver", "comunicacao.enviar",
			"aconselhamento.ver", "aconselhamento.editar",
			"dashboard.ver", "relatorios.ver",
			"configuracoes.usuarios", "configuracoes.igreja", "configuracoes.logs",
		},
		ProfileLeader: {
			"pessoas.ver", "visitantes.ver", "ministerios.ver",
			"celulas.ver", "celulas.editar_proprio",
			"eventos.ver",
			"comunicacao.ver", "comunicacao.enviar_grupo",
			"dashboard.ver_proprio",
		},
		ProfileSecretary: {
			"pessoas.ver", "pessoas.editar",
			"visitantes.ver", "visitantes.editar",
			"ministerios.ver", "celulas.ver",
			"eventos.ver", "eventos.editar",
			"comunicacao.ver", "comunicacao.enviar",
			"relatorios.ver", "configuracoes.igreja",
		},
		ProfileTreasurer: {
			"pessoas.ver",
			"doacoes.ver", "doacoes.editar",
			"relatorios.financeiro", "dashboard.financeiro",
		},
	}
)

type Profile struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Permissions returns the permissions granted to profile, nil for unknown profiles.
func Permissions(profile string) []string {
	return permissions[profile]
}

// HasPermission reports whether profile grants perm.
// A grant matches when it is the wildcard, the exact permission,
// or any permission on the same module (the segment before the first dot).
func HasPermission(profile, perm string) bool {
	grants, ok := permissions[profile]
	if !ok || perm == "" {
		return false
	}
	module := moduleOf(perm)
	for _, grant := range grants {
		if grant == wildcard || grant == perm || moduleOf(grant) == module {
			return true
		}
	}
	return false
}

func moduleOf(perm string) string {
	if i := strings.IndexByte(perm, '.'); i >= 0 {
		return perm[:i]
	}
	return perm
}

func isValidProfile(profile string) bool {
	_, ok := permissions[profile]
	return ok
}
